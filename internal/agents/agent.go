// Package agents implements the pipeline's agents as state machines over a
// shared fact sheet.
package agents

import (
	"context"
	"fmt"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
)

// BasicAgent holds the identity and state every agent shares.
type BasicAgent struct {
	Objective string
	Position  string
	State     engine.AgentState
	Memory    []engine.ChatMessage
}

// Agent is one pipeline stage. Execute runs the agent's state machine until
// it reaches StateFinished or fails.
type Agent interface {
	Attributes() *BasicAgent
	Execute(ctx context.Context, fs *factsheet.FactSheet) error
}

// Attributes returns the agent itself; embedding agents inherit it.
func (a *BasicAgent) Attributes() *BasicAgent { return a }

func (a *BasicAgent) transition(ctx context.Context, hooks engine.Hook, to engine.AgentState) {
	from := a.State
	a.State = to
	if from != to {
		hooks.OnStateChange(ctx, a.Position, from, to)
	}
}

// step runs one state of the machine.
type step func(ctx context.Context, fs *factsheet.FactSheet) error

// runLoop drives a state machine. States without a step finish the agent.
func (a *BasicAgent) runLoop(ctx context.Context, hooks engine.Hook, fs *factsheet.FactSheet, steps map[engine.AgentState]step) error {
	for a.State != engine.StateFinished {
		if err := ctx.Err(); err != nil {
			return &StageError{Position: a.Position, State: a.State, Err: fmt.Errorf("cancelled: %w", err)}
		}

		fn, ok := steps[a.State]
		if !ok {
			a.transition(ctx, hooks, engine.StateFinished)
			continue
		}
		if err := fn(ctx, fs); err != nil {
			return &StageError{Position: a.Position, State: a.State, Err: err}
		}
	}
	return nil
}

func hooksOrNop(h engine.Hook) engine.Hook {
	if h == nil {
		return engine.NopHook{}
	}
	return h
}
