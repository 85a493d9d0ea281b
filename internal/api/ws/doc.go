// Package ws streams terminal output to the UI over WebSocket.
//
// The Hub is the events.Sink handed to the terminal registry. Each event is
// encoded once and offered to every connected client's buffered queue; a
// client whose queue is full misses that frame rather than stalling the PTY
// reader. Dropped frames are counted in metrics.
//
// Server frames:
//
//	{"event":"pty-data","payload":{"id":"pty-1","data":"<base64>"}}
//	{"event":"pty-exit","payload":{"id":"pty-1"}}
//
// Client frames are optional shortcuts for latency-sensitive input:
//
//	{"type":"ping"}
//	{"type":"write","id":"pty-1","data":"<base64>"}
//	{"type":"resize","id":"pty-1","cols":120,"rows":40}
package ws
