// engine/hooks.go
package engine

import (
	"context"
	"time"
)

// Hook observes a pipeline run. Hooks must not block; the pipeline calls them
// synchronously from its single thread of control.
type Hook interface {
	OnAgentStart(ctx context.Context, position, objective string)
	OnStateChange(ctx context.Context, position string, from, to AgentState)
	OnOracleCall(ctx context.Context, position, operation string)
	OnRetryAttempt(ctx context.Context, position, operation string, attempt int, delay time.Duration, err error)
	OnRetryExhausted(ctx context.Context, position, operation string, err error)
	OnBuild(ctx context.Context, position string, report BuildReport)
	OnProbe(ctx context.Context, position string, report ProbeReport)
	OnNotice(ctx context.Context, position, message string)
	OnIssue(ctx context.Context, position, message string)
	OnAgentDone(ctx context.Context, position string, err error)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}

func (NopHook) OnAgentStart(context.Context, string, string)                              {}
func (NopHook) OnStateChange(context.Context, string, AgentState, AgentState)             {}
func (NopHook) OnOracleCall(context.Context, string, string)                              {}
func (NopHook) OnRetryAttempt(context.Context, string, string, int, time.Duration, error) {}
func (NopHook) OnRetryExhausted(context.Context, string, string, error)                   {}
func (NopHook) OnBuild(context.Context, string, BuildReport)                              {}
func (NopHook) OnProbe(context.Context, string, ProbeReport)                              {}
func (NopHook) OnNotice(context.Context, string, string)                                  {}
func (NopHook) OnIssue(context.Context, string, string)                                   {}
func (NopHook) OnAgentDone(context.Context, string, error)                                {}
