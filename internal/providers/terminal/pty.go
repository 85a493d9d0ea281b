package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// Master is the controlling side of a pseudo-terminal.
type Master interface {
	io.ReadWriteCloser
	Resize(cols, rows uint16) error
}

// Process is the child attached to the slave side.
type Process interface {
	Pid() int
	Kill() error
	Wait() error
}

// SpawnSpec describes the program to run inside a new PTY.
type SpawnSpec struct {
	Program string
	Args    []string
	Dir     string
	Env     []string
	Cols    uint16
	Rows    uint16
}

// Spawner allocates a PTY pair and starts a process on its slave side.
type Spawner interface {
	Spawn(spec SpawnSpec) (Master, Process, error)
}

// NativeSpawner uses the operating system's PTY facility.
type NativeSpawner struct{}

// Spawn implements Spawner
func (NativeSpawner) Spawn(spec SpawnSpec) (Master, Process, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	// StartWithSize closes the slave in this process once the child holds it,
	// so the master read fails as soon as the child side goes away.
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: spec.Rows,
		Cols: spec.Cols,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	return &nativeMaster{file: ptmx}, &execProcess{cmd: cmd}, nil
}

type nativeMaster struct {
	file *os.File
}

func (m *nativeMaster) Read(p []byte) (int, error)  { return m.file.Read(p) }
func (m *nativeMaster) Write(p []byte) (int, error) { return m.file.Write(p) }
func (m *nativeMaster) Close() error                { return m.file.Close() }

func (m *nativeMaster) Resize(cols, rows uint16) error {
	return pty.Setsize(m.file, &pty.Winsize{
		Rows: rows,
		Cols: cols,
	})
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Kill signals the child's whole process group. pty.Start puts the child in
// a new session, so its pid is also the group id, and background jobs that
// still hold the slave die with it.
func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}
