package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/logging"
)

// Recorder is an engine.Hook that appends pipeline events to the ledger.
// The run is taken from the context; events outside a run are dropped.
// Write failures are logged and never interrupt the pipeline.
type Recorder struct {
	db     *DB
	logger *zap.Logger
}

// NewRecorder returns a hook writing into db.
func NewRecorder(db *DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) add(ctx context.Context, agent, kind, detail string) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		return
	}
	// A cancelled run still gets its last events recorded.
	if err := r.db.AddEvent(context.WithoutCancel(ctx), runID, agent, kind, detail); err != nil {
		r.logger.Warn("failed to record history event",
			append(logging.ContextFields(ctx), zap.String("kind", kind), zap.Error(err))...)
	}
}

func (r *Recorder) OnAgentStart(ctx context.Context, position, objective string) {
	r.add(ctx, position, "agent_start", objective)
}
func (r *Recorder) OnStateChange(ctx context.Context, position string, from, to engine.AgentState) {
	r.add(ctx, position, "state", from.String()+" -> "+to.String())
}
func (r *Recorder) OnOracleCall(ctx context.Context, position, operation string) {
	r.add(ctx, position, "oracle_call", operation)
}
func (r *Recorder) OnRetryAttempt(ctx context.Context, position, operation string, attempt int, delay time.Duration, err error) {
	r.add(ctx, position, "retry_attempt", fmt.Sprintf("%s attempt %d after %s: %v", operation, attempt, delay, err))
}
func (r *Recorder) OnRetryExhausted(ctx context.Context, position, operation string, err error) {
	r.add(ctx, position, "retry_exhausted", fmt.Sprintf("%s: %v", operation, err))
}
func (r *Recorder) OnBuild(ctx context.Context, position string, rep engine.BuildReport) {
	result := "failed"
	if rep.Success {
		result = "succeeded"
	}
	r.add(ctx, position, "build", fmt.Sprintf("attempt %d %s in %s", rep.Attempt, result, rep.Duration.Round(time.Millisecond)))
}
func (r *Recorder) OnProbe(ctx context.Context, position string, rep engine.ProbeReport) {
	detail := fmt.Sprintf("%s %s status=%d", rep.Kind, rep.Target, rep.Status)
	if rep.Err != nil {
		detail += " error=" + rep.Err.Error()
	}
	r.add(ctx, position, "probe", detail)
}
func (r *Recorder) OnNotice(ctx context.Context, position, message string) {
	r.add(ctx, position, "notice", message)
}
func (r *Recorder) OnIssue(ctx context.Context, position, message string) {
	r.add(ctx, position, "issue", message)
}
func (r *Recorder) OnAgentDone(ctx context.Context, position string, err error) {
	detail := "finished"
	if err != nil {
		detail = err.Error()
	}
	r.add(ctx, position, "agent_done", detail)
}

var _ engine.Hook = (*Recorder)(nil)
