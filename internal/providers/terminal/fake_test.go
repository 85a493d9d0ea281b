package terminal

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// fakeMaster feeds reads from a pipe the test controls and records writes.
type fakeMaster struct {
	out    *io.PipeReader
	feed   *io.PipeWriter
	mu     sync.Mutex
	input  bytes.Buffer
	sizes  [][2]uint16
	closed bool
}

func newFakeMaster() *fakeMaster {
	r, w := io.Pipe()
	return &fakeMaster{out: r, feed: w}
}

func (m *fakeMaster) Read(p []byte) (int, error) { return m.out.Read(p) }

func (m *fakeMaster) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.input.Write(p)
}

func (m *fakeMaster) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return m.out.Close()
}

func (m *fakeMaster) Resize(cols, rows uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, [2]uint16{cols, rows})
	return nil
}

func (m *fakeMaster) written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input.String()
}

func (m *fakeMaster) lastSize() [2]uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sizes) == 0 {
		return [2]uint16{}
	}
	return m.sizes[len(m.sizes)-1]
}

type fakeProcess struct {
	once   sync.Once
	done   chan struct{}
	killed bool
	mu     sync.Mutex
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.done
	return nil
}

func (p *fakeProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// fakeSpawner hands out fake PTYs and remembers every spec it was given.
type fakeSpawner struct {
	mu      sync.Mutex
	specs   []SpawnSpec
	masters []*fakeMaster
	procs   []*fakeProcess
	fail    error
}

func (s *fakeSpawner) Spawn(spec SpawnSpec) (Master, Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, nil, s.fail
	}
	m := newFakeMaster()
	p := newFakeProcess()
	s.specs = append(s.specs, spec)
	s.masters = append(s.masters, m)
	s.procs = append(s.procs, p)
	return m, p, nil
}

func (s *fakeSpawner) last() (*fakeMaster, *fakeProcess, SpawnSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.masters) - 1
	return s.masters[i], s.procs[i], s.specs[i]
}

var errSpawn = errors.New("no such file or directory")
