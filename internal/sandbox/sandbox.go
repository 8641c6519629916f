// Package sandbox runs the generated project's toolchain: blocking builds
// with captured output, and background server processes that can be killed.
package sandbox

import (
	"context"
	"time"
)

// Result captures output of a command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner runs a command to completion.
type Runner interface {
	// RunCmd runs name with args in dir. A timeout <= 0 uses the runner's
	// configured default. A non-zero exit is reported through Result.Code
	// together with a non-nil error.
	RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error)
}

// Process is a running background command.
type Process interface {
	Pid() int
	// Kill stops the process and everything it spawned. Safe to call more
	// than once and after the process exited.
	Kill() error
	// Done is closed once the process has exited.
	Done() <-chan struct{}
}

// Launcher starts long-running commands such as the generated web server.
type Launcher interface {
	Start(ctx context.Context, dir, name string, args []string) (Process, error)
}
