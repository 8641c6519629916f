package agents

import (
	"errors"
	"fmt"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
)

var (
	// ErrMissingExternalURLs means URL verification started with no URL list.
	ErrMissingExternalURLs = errors.New("no external urls on fact sheet")
	// ErrSafetyGateDenied means the operator refused to run generated code.
	ErrSafetyGateDenied = errors.New("running generated code was not confirmed")
)

// StageError tells which agent and state a fatal error came from.
type StageError struct {
	Position string
	State    engine.AgentState
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Position, e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// BuildError is returned when the generated code still does not build after
// the allowed number of repairs.
type BuildError struct {
	Attempts int
	Stderr   string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("code still fails to build after %d attempts", e.Attempts)
}

// ProbeIssue records a failed endpoint check. It is reported, not returned.
type ProbeIssue struct {
	Route  string
	URL    string
	Status int
	Err    error
}

func (p ProbeIssue) String() string {
	if p.Err != nil {
		return fmt.Sprintf("Error checking backend %s: %v", p.Route, p.Err)
	}
	return fmt.Sprintf("Error: Status code is not 200 for endpoint: %s (got %d)", p.Route, p.Status)
}
