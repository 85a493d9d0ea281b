package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/events"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/monitoring"
	"github.com/lovstudio/lovcode/backend/internal/shared/paths"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrNotInitialized  = errors.New("event sink not initialized")
	ErrInvalidSession  = errors.New("invalid session request")
)

const (
	DefaultCols  = 80
	DefaultRows  = 24
	DefaultShell = "/bin/bash"

	readBufferSize = 16 * 1024
)

// Options configures a Registry. Zero values fall back to the defaults above.
type Options struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Spawner Spawner
	Shell   string
	Cols    uint16
	Rows    uint16
}

// CreateOptions describes a session to spawn.
type CreateOptions struct {
	ID      string
	Cwd     string
	Shell   string
	Command string
}

type session struct {
	id      string
	io      *sessionIO
	control *sessionControl
	master  *sessionMaster
	process Process

	releaseOnce sync.Once
}

type sessionIO struct {
	owner  *session
	mu     sync.Mutex
	writer io.Writer
}

type sessionControl struct {
	owner   *session
	running atomic.Bool
}

type sessionMaster struct {
	owner  *session
	mu     sync.Mutex
	master Master
}

// Registry tracks live PTY sessions keyed by caller-chosen id.
type Registry struct {
	sink    events.Sink
	spawner Spawner
	logger  *zap.Logger
	metrics *monitoring.Metrics
	shell   string
	cols    uint16
	rows    uint16

	// createMu serializes the exists-check and registration of new ids.
	createMu sync.Mutex

	ioMu sync.Mutex
	ios  map[string]*sessionIO

	controlMu sync.Mutex
	controls  map[string]*sessionControl

	masterMu sync.Mutex
	masters  map[string]*sessionMaster

	readers sync.WaitGroup
}

// NewRegistry creates a registry that pushes output to sink.
// A nil sink is accepted; Create then fails with ErrNotInitialized.
func NewRegistry(sink events.Sink, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Spawner == nil {
		opts.Spawner = NativeSpawner{}
	}
	if opts.Cols == 0 {
		opts.Cols = DefaultCols
	}
	if opts.Rows == 0 {
		opts.Rows = DefaultRows
	}

	return &Registry{
		sink:     sink,
		spawner:  opts.Spawner,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		shell:    opts.Shell,
		cols:     opts.Cols,
		rows:     opts.Rows,
		ios:      make(map[string]*sessionIO),
		controls: make(map[string]*sessionControl),
		masters:  make(map[string]*sessionMaster),
	}
}

// Create spawns a shell in a new PTY and starts its reader.
func (r *Registry) Create(ctx context.Context, opts CreateOptions) error {
	if r.sink == nil {
		return ErrNotInitialized
	}
	if opts.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSession)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	if r.Exists(opts.ID) {
		return fmt.Errorf("PTY session '%s': %w", opts.ID, ErrSessionExists)
	}

	spec := r.spawnSpec(opts)
	master, process, err := r.spawner.Spawn(spec)
	if err != nil {
		r.metrics.RecordPtySpawn("error")
		r.logger.Warn("Failed to spawn PTY session",
			zap.String("id", opts.ID),
			zap.String("shell", spec.Program),
			zap.String("cwd", spec.Dir),
			zap.Error(err),
		)
		return err
	}

	s := &session{id: opts.ID, process: process}
	s.io = &sessionIO{owner: s, writer: master}
	s.control = &sessionControl{owner: s}
	s.control.running.Store(true)
	s.master = &sessionMaster{owner: s, master: master}

	r.register(s)
	r.metrics.RecordPtySpawn("success")

	r.readers.Add(1)
	go r.readLoop(s, master)
	go r.reap(s)

	r.logger.Info("PTY session created",
		zap.String("id", opts.ID),
		zap.Int("pid", process.Pid()),
		zap.String("shell", spec.Program),
		zap.String("cwd", spec.Dir),
	)
	return nil
}

func (r *Registry) spawnSpec(opts CreateOptions) SpawnSpec {
	shell := opts.Shell
	if shell == "" {
		shell = r.shell
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = DefaultShell
	}

	var args []string
	if opts.Command != "" {
		args = []string{"-c", opts.Command}
	}

	dir := opts.Cwd
	if dir == "" {
		dir = paths.HomeDir()
	}

	env := append(os.Environ(),
		"TERM=xterm-256color",
		"LOVCODE_TERMINAL=1",
	)

	return SpawnSpec{
		Program: shell,
		Args:    args,
		Dir:     dir,
		Env:     env,
		Cols:    r.cols,
		Rows:    r.rows,
	}
}

func (r *Registry) register(s *session) {
	r.ioMu.Lock()
	r.ios[s.id] = s.io
	live := len(r.ios)
	r.ioMu.Unlock()

	r.masterMu.Lock()
	r.masters[s.id] = s.master
	r.masterMu.Unlock()

	r.controlMu.Lock()
	r.controls[s.id] = s.control
	r.controlMu.Unlock()

	r.metrics.SetPtySessionsActive(live)
}

// Write sends bytes to the session's stdin.
func (r *Registry) Write(id string, data []byte) error {
	r.ioMu.Lock()
	sio, ok := r.ios[id]
	r.ioMu.Unlock()
	if !ok {
		return fmt.Errorf("PTY session '%s': %w", id, ErrSessionNotFound)
	}

	sio.mu.Lock()
	defer sio.mu.Unlock()

	// io.Writer guarantees a short write returns an error.
	n, err := sio.writer.Write(data)
	r.metrics.AddPtyBytesWritten(n)
	if err != nil {
		return fmt.Errorf("failed to write to PTY: %w", err)
	}
	if f, ok := sio.writer.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush PTY: %w", err)
		}
	}
	return nil
}

// Resize changes the terminal dimensions of a session.
func (r *Registry) Resize(id string, cols, rows uint16) error {
	r.masterMu.Lock()
	sm, ok := r.masters[id]
	r.masterMu.Unlock()
	if !ok {
		return fmt.Errorf("PTY session '%s': %w", id, ErrSessionNotFound)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.master.Resize(cols, rows); err != nil {
		return fmt.Errorf("failed to resize PTY: %w", err)
	}
	return nil
}

// Kill tears down a session. Unknown ids are ignored and no exit event is
// ever emitted for a killed session.
func (r *Registry) Kill(id string) {
	r.controlMu.Lock()
	ctl, ok := r.controls[id]
	r.controlMu.Unlock()
	if !ok {
		return
	}

	if ctl.running.CompareAndSwap(true, false) {
		r.metrics.RecordPtyExit("killed")
	}
	r.cleanup(ctl.owner)

	r.logger.Info("PTY session killed", zap.String("id", id))
}

// List returns the ids of all live sessions in sorted order.
func (r *Registry) List() []string {
	r.ioMu.Lock()
	ids := make([]string, 0, len(r.ios))
	for id := range r.ios {
		ids = append(ids, id)
	}
	r.ioMu.Unlock()

	sort.Strings(ids)
	return ids
}

// Exists reports whether id names a live session.
func (r *Registry) Exists(id string) bool {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()
	_, ok := r.ios[id]
	return ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()
	return len(r.ios)
}

// Shutdown kills every live session and waits for their readers to finish.
func (r *Registry) Shutdown(ctx context.Context) error {
	for _, id := range r.List() {
		r.Kill(id)
	}

	done := make(chan struct{})
	go func() {
		r.readers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cleanup removes s from every map it still owns and releases its PTY.
// Entries that belong to a newer session with the same id are left alone.
func (r *Registry) cleanup(s *session) {
	r.ioMu.Lock()
	if cur, ok := r.ios[s.id]; ok && cur.owner == s {
		delete(r.ios, s.id)
	}
	live := len(r.ios)
	r.ioMu.Unlock()

	r.masterMu.Lock()
	if cur, ok := r.masters[s.id]; ok && cur.owner == s {
		delete(r.masters, s.id)
	}
	r.masterMu.Unlock()

	r.controlMu.Lock()
	if cur, ok := r.controls[s.id]; ok && cur.owner == s {
		delete(r.controls, s.id)
	}
	r.controlMu.Unlock()

	r.metrics.SetPtySessionsActive(live)
	s.release(r.logger)
}

// release closes the master and kills the child's process group exactly
// once. Closing the master alone does not unblock a pending read; killing
// every process holding the slave side does.
func (s *session) release(logger *zap.Logger) {
	s.releaseOnce.Do(func() {
		if err := s.master.master.Close(); err != nil {
			logger.Debug("Closing PTY master failed", zap.String("id", s.id), zap.Error(err))
		}
		if err := s.process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Debug("Killing PTY child failed", zap.String("id", s.id), zap.Error(err))
		}
	})
}
