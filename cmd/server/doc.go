// Package main is the entry point for the lovcode backend.
//
// The backend owns the live terminal sessions behind the desktop UI's panels
// and the workspace document that arranges them into projects and features.
//
// Architecture:
//
//	Desktop UI ──HTTP──▶ /pty, /workspace      (commands)
//	           ◀──WS──── /ws                    (pty-data, pty-exit events)
//
// Configuration, lowest precedence first:
//   - Built-in defaults
//   - A YAML or TOML file named by LOVCODE_CONFIG
//   - Environment variables (PORT, HOST, WORKSPACE_PATH, LOG_LEVEL, ...)
//   - CLI flags
//
// Usage:
//
//	# Listen on the default loopback port
//	./server
//
//	# Development mode (colored logs, debug level)
//	./server -dev -port 4317 -workspace ~/.lovstudio/lovcode/workspace.json
package main
