// Package events defines the outbound notifications the terminal registry
// pushes to the UI layer.
//
// A Sink is fire-and-forget: implementations must not block the caller for
// long and must swallow delivery failures. Order is preserved per session id
// as long as a single goroutine emits for that id, which is what the registry
// guarantees (one reader per session).
package events

import "sync"

// Event names as seen by the UI.
const (
	PtyData = "pty-data"
	PtyExit = "pty-exit"
)

// DataEvent carries one chunk of output read from a session.
type DataEvent struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// ExitEvent signals that a session's output stream ended.
type ExitEvent struct {
	ID string `json:"id"`
}

// Sink receives session notifications.
type Sink interface {
	EmitData(DataEvent)
	EmitExit(ExitEvent)
}

// Recorder is a Sink that keeps everything it receives. It is safe for
// concurrent use and mostly useful in tests and diagnostics.
type Recorder struct {
	mu     sync.Mutex
	data   []DataEvent
	exits  []ExitEvent
	notify chan struct{}
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// EmitData implements Sink
func (r *Recorder) EmitData(e DataEvent) {
	r.mu.Lock()
	r.data = append(r.data, e)
	r.mu.Unlock()
	r.signal()
}

// EmitExit implements Sink
func (r *Recorder) EmitExit(e ExitEvent) {
	r.mu.Lock()
	r.exits = append(r.exits, e)
	r.mu.Unlock()
	r.signal()
}

func (r *Recorder) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Changed is signalled (coalesced) whenever a new event arrives.
func (r *Recorder) Changed() <-chan struct{} {
	return r.notify
}

// Output concatenates every data chunk recorded for id.
func (r *Recorder) Output(id string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []byte
	for _, e := range r.data {
		if e.ID == id {
			out = append(out, e.Data...)
		}
	}
	return out
}

// ExitCount returns how many exit events were recorded for id.
func (r *Recorder) ExitCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.exits {
		if e.ID == id {
			n++
		}
	}
	return n
}
