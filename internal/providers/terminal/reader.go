package terminal

import (
	"errors"
	"io"
	"syscall"

	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/events"
)

// readLoop is the single consumer of a session's output. It runs until the
// child exits or the session is killed, then cleans up.
func (r *Registry) readLoop(s *session, src io.Reader) {
	defer r.readers.Done()
	defer r.cleanup(s)

	buf := make([]byte, readBufferSize)
	for s.control.running.Load() {
		n, err := src.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			r.metrics.AddPtyBytesRead(n)
			r.sink.EmitData(events.DataEvent{ID: s.id, Data: data})
		}

		switch {
		case err == nil && n > 0:
			continue
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, syscall.EIO):
			// EIO is what Linux returns on the master once the slave is gone.
			r.finish(s, "eof")
			return
		default:
			if s.control.running.Load() {
				r.logger.Warn("PTY read failed",
					zap.String("id", s.id),
					zap.Error(err),
				)
			}
			r.finish(s, "error")
			return
		}
	}
}

// finish emits the exit event if the session was still running. Killed
// sessions have already cleared the flag and stay silent.
func (r *Registry) finish(s *session, cause string) {
	if !s.control.running.CompareAndSwap(true, false) {
		return
	}
	r.metrics.RecordPtyExit(cause)
	r.sink.EmitExit(events.ExitEvent{ID: s.id})
	r.logger.Debug("PTY session exited", zap.String("id", s.id), zap.String("cause", cause))
}

// reap waits on the child so exited shells do not linger as zombies.
func (r *Registry) reap(s *session) {
	err := s.process.Wait()
	r.logger.Debug("PTY child reaped",
		zap.String("id", s.id),
		zap.Int("pid", s.process.Pid()),
		zap.Error(err),
	)
}
