// Package workspace persists the project/feature/panel document behind the
// terminal UI.
//
// The whole document lives in one JSON file. Every mutation loads the file,
// applies one change and writes the file back. The Store serializes those
// cycles with a mutex so concurrent HTTP requests cannot lose updates, and
// writes go to a temp file that is renamed over the original.
//
// Panels carry the PTY session ids they were last attached to. Those ids are
// stored as plain strings: after a restart they name processes that no longer
// exist, and it is up to the UI to spawn replacements and update the panel.
package workspace
