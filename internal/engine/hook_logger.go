// engine/hook_logger.go
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/logging"
)

// LoggerHook writes every pipeline event as a structured log line.
type LoggerHook struct{ L *zap.Logger }

func (h LoggerHook) with(ctx context.Context, position string, fields ...zap.Field) []zap.Field {
	out := append(logging.ContextFields(ctx), zap.String("agent", position))
	return append(out, fields...)
}

func (h LoggerHook) OnAgentStart(ctx context.Context, position, objective string) {
	h.L.Info("agent started", h.with(ctx, position, zap.String("objective", objective))...)
}
func (h LoggerHook) OnStateChange(ctx context.Context, position string, from, to AgentState) {
	h.L.Debug("state change", h.with(ctx, position,
		zap.Stringer("from", from), zap.Stringer("to", to))...)
}
func (h LoggerHook) OnOracleCall(ctx context.Context, position, operation string) {
	h.L.Info("oracle call", h.with(ctx, position, zap.String("operation", operation))...)
}
func (h LoggerHook) OnRetryAttempt(ctx context.Context, position, operation string, attempt int, delay time.Duration, err error) {
	fields := h.with(ctx, position,
		zap.String("operation", operation),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(err))
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		fields = append(fields,
			zap.String("retry_class", string(engineErr.Class)),
			zap.Int("http_status", engineErr.HTTPStatus))
	}
	h.L.Warn("oracle retry", fields...)
}
func (h LoggerHook) OnRetryExhausted(ctx context.Context, position, operation string, err error) {
	h.L.Error("oracle retries exhausted", h.with(ctx, position,
		zap.String("operation", operation), zap.Error(err))...)
}
func (h LoggerHook) OnBuild(ctx context.Context, position string, r BuildReport) {
	fields := h.with(ctx, position,
		zap.Int("attempt", r.Attempt),
		zap.Bool("success", r.Success),
		zap.Int("bug_count", r.BugCount),
		zap.Duration("duration", r.Duration))
	if r.Success {
		h.L.Info("build succeeded", fields...)
		return
	}
	h.L.Warn("build failed", append(fields, zap.Int("stderr_bytes", len(r.Stderr)))...)
}
func (h LoggerHook) OnProbe(ctx context.Context, position string, r ProbeReport) {
	fields := h.with(ctx, position,
		zap.String("kind", string(r.Kind)),
		zap.String("target", r.Target),
		zap.Int("status", r.Status))
	switch {
	case r.Err != nil:
		h.L.Warn("probe transport error", append(fields, zap.Error(r.Err))...)
	case !r.OK():
		h.L.Warn("probe returned non-200", append(fields, zap.Bool("excluded", r.Excluded))...)
	default:
		h.L.Debug("probe ok", fields...)
	}
}
func (h LoggerHook) OnNotice(ctx context.Context, position, message string) {
	h.L.Info(message, h.with(ctx, position)...)
}
func (h LoggerHook) OnIssue(ctx context.Context, position, message string) {
	h.L.Warn("issue", h.with(ctx, position, zap.String("detail", message))...)
}
func (h LoggerHook) OnAgentDone(ctx context.Context, position string, err error) {
	if err != nil {
		h.L.Error("agent failed", h.with(ctx, position, zap.Error(err))...)
		return
	}
	h.L.Info("agent finished", h.with(ctx, position)...)
}
