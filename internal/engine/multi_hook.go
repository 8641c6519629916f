package engine

import (
	"context"
	"time"
)

type Hooks []Hook

func (hs Hooks) OnAgentStart(ctx context.Context, position, objective string) {
	for _, h := range hs {
		h.OnAgentStart(ctx, position, objective)
	}
}
func (hs Hooks) OnStateChange(ctx context.Context, position string, from, to AgentState) {
	for _, h := range hs {
		h.OnStateChange(ctx, position, from, to)
	}
}
func (hs Hooks) OnOracleCall(ctx context.Context, position, operation string) {
	for _, h := range hs {
		h.OnOracleCall(ctx, position, operation)
	}
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, position, operation string, attempt int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, position, operation, attempt, delay, err)
	}
}
func (hs Hooks) OnRetryExhausted(ctx context.Context, position, operation string, err error) {
	for _, h := range hs {
		h.OnRetryExhausted(ctx, position, operation, err)
	}
}
func (hs Hooks) OnBuild(ctx context.Context, position string, r BuildReport) {
	for _, h := range hs {
		h.OnBuild(ctx, position, r)
	}
}
func (hs Hooks) OnProbe(ctx context.Context, position string, r ProbeReport) {
	for _, h := range hs {
		h.OnProbe(ctx, position, r)
	}
}
func (hs Hooks) OnNotice(ctx context.Context, position, message string) {
	for _, h := range hs {
		h.OnNotice(ctx, position, message)
	}
}
func (hs Hooks) OnIssue(ctx context.Context, position, message string) {
	for _, h := range hs {
		h.OnIssue(ctx, position, message)
	}
}
func (hs Hooks) OnAgentDone(ctx context.Context, position string, err error) {
	for _, h := range hs {
		h.OnAgentDone(ctx, position, err)
	}
}
