// Package toolchain builds and launches the generated project with the
// toolchain its manifest calls for.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/sandbox"
	"github.com/ChamsBouzaiene/autodev/internal/workspace"
)

// ErrUnknownProject is returned when no toolchain matches the project.
var ErrUnknownProject = errors.New("could not detect project type")

// BuildResult is the outcome of one build. A failed compile is a result,
// not an error.
type BuildResult struct {
	Command  string
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Toolchain is what the backend agent needs to verify generated code.
type Toolchain interface {
	// Build compiles the project. The error is reserved for failures to run
	// the toolchain at all.
	Build(ctx context.Context) (BuildResult, error)
	// Start launches the project's server in the background.
	Start(ctx context.Context) (sandbox.Process, error)
}

// Project implements Toolchain for a project directory.
type Project struct {
	Dir      string
	Type     workspace.ProjectType // empty means detect on every call
	Runner   sandbox.Runner
	Launcher sandbox.Launcher
	Timeout  time.Duration // build timeout, 0 uses the runner default
}

// New creates a toolchain for dir.
func New(dir string, runner sandbox.Runner, launcher sandbox.Launcher) *Project {
	return &Project{Dir: dir, Runner: runner, Launcher: launcher}
}

func (p *Project) projectType() (workspace.ProjectType, error) {
	typ := p.Type
	if typ == "" {
		typ = workspace.DetectProjectType(p.Dir)
	}
	if typ == workspace.ProjectTypeUnknown {
		return typ, fmt.Errorf("%w in %s", ErrUnknownProject, p.Dir)
	}
	return typ, nil
}

// Build implements Toolchain.
func (p *Project) Build(ctx context.Context) (BuildResult, error) {
	typ, err := p.projectType()
	if err != nil {
		return BuildResult{}, err
	}

	name, args := workspace.GetBuildCommand(typ)
	if name == "" {
		return BuildResult{Success: true}, nil
	}
	cmdStr := strings.Join(append([]string{name}, args...), " ")

	start := time.Now()
	res, runErr := p.Runner.RunCmd(ctx, p.Dir, name, args, p.Timeout)
	out := BuildResult{
		Command:  cmdStr,
		ExitCode: res.Code,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		TimedOut: res.TimedOut,
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	switch {
	case runErr == nil && res.Code == 0:
		out.Success = true
	case res.TimedOut:
		out.Stderr = strings.TrimRight(out.Stderr, "\n") + "\nbuild timed out"
	case res.Code == 0:
		// The command never ran.
		return out, fmt.Errorf("run %s: %w", cmdStr, runErr)
	}
	return out, nil
}

// Start implements Toolchain.
func (p *Project) Start(ctx context.Context) (sandbox.Process, error) {
	typ, err := p.projectType()
	if err != nil {
		return nil, err
	}
	name, args := workspace.GetRunCommand(typ)
	proc, err := p.Launcher.Start(ctx, p.Dir, name, args)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return proc, nil
}
