// Package terminal owns the live pseudo-terminal sessions behind UI panels.
//
// A Registry spawns shell processes attached to a PTY, keeps the master side
// of each one, and runs exactly one reader goroutine per session. Output is
// pushed to an events.Sink as it arrives; nothing is buffered for polling.
//
// Architecture:
//   - The PTY handle layer (pty.go) wraps creack/pty behind the Master and
//     Process interfaces so the registry can be driven by fakes in tests.
//   - Three maps keyed by session id hold the writer, the run flag and the
//     resizable master. A session is live while it is present in all three;
//     removal from all three is what "destroyed" means.
//   - Each map has its own mutex and is only locked for map access. Writes,
//     resizes and the blocking read all happen outside the map locks.
//   - Cleanup is idempotent and identity-checked, so a reader that finishes
//     after Kill (or after the id was reused) never removes a newer session.
//
// Lifecycle:
//
//	reg := terminal.NewRegistry(sink, terminal.Options{Logger: logger})
//	reg.Create(ctx, terminal.CreateOptions{ID: "pty-1", Cwd: "/src/app"})
//	reg.Write("pty-1", []byte("ls -la\n"))
//	reg.Resize("pty-1", 120, 40)
//	reg.Kill("pty-1")
//
// Kill closes the master and kills the child, which makes the reader's
// blocking read return; the reader then exits without emitting pty-exit.
// When the child exits on its own the reader emits exactly one pty-exit.
package terminal
