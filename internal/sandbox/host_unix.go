//go:build !windows

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// HostRunner runs commands directly on the host machine without isolation.
// It implements both Runner and Launcher. Every command gets its own process
// group so that wrappers like "cargo run" are killed together with the
// server they spawn.
type HostRunner struct {
	config Config
	// Output receives the output of launched processes. Nil discards it.
	Output io.Writer
}

// NewHostRunner creates a host runner.
func NewHostRunner(cfg Config) *HostRunner {
	return &HostRunner{config: cfg}
}

// RunCmd implements Runner.
func (r *HostRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, r.config.timeout(timeout))
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return Result{}, err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-cctx.Done():
			killGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		TimedOut: cctx.Err() != nil,
	}
	if waitErr != nil {
		res.Code = 1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
		}
		return res, waitErr
	}
	return res, nil
}

// Start implements Launcher. The process is killed when ctx is cancelled.
func (r *HostRunner) Start(ctx context.Context, dir, name string, args []string) (Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	out := r.Output
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &hostProcess{pid: cmd.Process.Pid, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = p.Kill()
		case <-p.done:
		}
	}()
	return p, nil
}

type hostProcess struct {
	pid     int
	done    chan struct{}
	once    sync.Once
	killErr error
}

func (p *hostProcess) Pid() int { return p.pid }

func (p *hostProcess) Done() <-chan struct{} { return p.done }

func (p *hostProcess) Kill() error {
	p.once.Do(func() {
		p.killErr = killGroup(p.pid)
	})
	return p.killErr
}

// killGroup sends SIGKILL to the process group led by pid. A group that is
// already gone is not an error.
func killGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
