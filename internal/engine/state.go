package engine

import (
	"fmt"
	"time"
)

// AgentState is the shared state enumeration of agent state machines.
// Each agent interprets a subset of it.
type AgentState int

const (
	StateDiscovery AgentState = iota
	StateWorking
	StateUnitTesting
	StateFinished
)

func (s AgentState) String() string {
	switch s {
	case StateDiscovery:
		return "discovery"
	case StateWorking:
		return "working"
	case StateUnitTesting:
		return "unit_testing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BuildReport describes one build attempt of the generated project.
type BuildReport struct {
	Attempt  int
	Success  bool
	BugCount int
	Stderr   string
	Duration time.Duration
}

// ProbeKind tells which liveness check produced a ProbeReport.
type ProbeKind string

const (
	ProbeExternalURL ProbeKind = "external_url"
	ProbeEndpoint    ProbeKind = "endpoint"
)

// ProbeReport is the outcome of a single HTTP GET probe.
type ProbeReport struct {
	Kind     ProbeKind
	Target   string
	Status   int   // 0 on transport error
	Err      error // transport error, if any
	Excluded bool  // external URLs only: removed from the fact sheet
}

// OK reports whether the probe answered 200.
func (p ProbeReport) OK() bool {
	return p.Err == nil && p.Status == 200
}
