// Package pipeline runs the agents in sequence over one fact sheet and
// records the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/agents"
	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
	"github.com/ChamsBouzaiene/autodev/internal/history"
	"github.com/ChamsBouzaiene/autodev/internal/logging"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
	"github.com/ChamsBouzaiene/autodev/internal/session"
)

const (
	ManagerPosition  = "Project Manager"
	ManagerObjective = "Turns the user request into a project goal"
)

// Result is what a run produced. On failure FactSheet holds everything the
// agents wrote before the failing one stopped.
type Result struct {
	RunID     string
	FactSheet *factsheet.FactSheet
	Failed    string // position of the failing agent, "" on success
	Err       error
	Issues    []string
	Duration  time.Duration
}

// RunError is returned by Run when an agent fails.
type RunError struct {
	Position string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline stopped at %s: %v", e.Position, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Driver runs the pipeline. Use Builder to create one.
type Driver struct {
	cfg       *config.Config
	oracle    oracle.TaskRequester
	hooks     engine.Hook
	logger    *zap.Logger
	history   *history.DB
	sessions  *session.Store
	metrics   *engine.MetricsHook
	newAgents func() []agents.Agent
	now       func() time.Time
}

type issueReporter interface {
	Issues() []agents.ProbeIssue
}

// Run executes every agent in order on a fresh fact sheet. The result is
// returned even when err is non-nil.
func (d *Driver) Run(ctx context.Context, description string) (*Result, error) {
	now := d.now
	if now == nil {
		now = time.Now
	}
	start := now()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	d.logger.Info("pipeline started", append(logging.ContextFields(ctx), zap.Int("description_len", len(description)))...)

	if d.history != nil {
		if err := d.history.StartRun(ctx, runID, d.cfg.Project.Root, description); err != nil {
			d.logger.Warn("failed to record run start", append(logging.ContextFields(ctx), zap.Error(err))...)
		}
	}

	fs := factsheet.New(description)
	res := &Result{RunID: runID}

	var runErr error
	if d.cfg.Pipeline.RefineGoal {
		runErr = d.refineGoal(ctx, fs)
	}
	if runErr == nil {
		runErr = d.runAgents(ctx, fs, res)
	}

	res.FactSheet = fs.Clone()
	res.Duration = now().Sub(start)
	if runErr != nil {
		var re *RunError
		if errors.As(runErr, &re) {
			res.Failed = re.Position
		}
		res.Err = runErr
	}

	d.finish(ctx, description, start, res)
	return res, runErr
}

func (d *Driver) refineGoal(ctx context.Context, fs *factsheet.FactSheet) error {
	d.hooks.OnAgentStart(ctx, ManagerPosition, ManagerObjective)
	goal, err := d.oracle.Request(ctx, oracle.Task{
		PromptID:  prompts.UserGoal,
		Input:     fs.ProjectDescription,
		Position:  ManagerPosition,
		Operation: "Converting user input to a project goal",
	})
	d.hooks.OnAgentDone(ctx, ManagerPosition, err)
	if err != nil {
		return &RunError{Position: ManagerPosition, Err: err}
	}
	if goal = strings.TrimSpace(goal); goal != "" {
		fs.ProjectDescription = goal
	}
	return nil
}

func (d *Driver) runAgents(ctx context.Context, fs *factsheet.FactSheet, res *Result) error {
	for _, agent := range d.newAgents() {
		attrs := agent.Attributes()
		d.hooks.OnAgentStart(ctx, attrs.Position, attrs.Objective)
		err := agent.Execute(ctx, fs)
		d.hooks.OnAgentDone(ctx, attrs.Position, err)

		if r, ok := agent.(issueReporter); ok {
			for _, issue := range r.Issues() {
				res.Issues = append(res.Issues, issue.String())
			}
		}
		if err != nil {
			return &RunError{Position: attrs.Position, Err: err}
		}
	}
	return nil
}

// finish persists the run. Failures here are logged, never returned, and
// run even when ctx is already cancelled.
func (d *Driver) finish(ctx context.Context, description string, start time.Time, res *Result) {
	fields := logging.ContextFields(ctx)
	ctx = context.WithoutCancel(ctx)

	if d.sessions != nil {
		snap := &session.Session{
			ID:          res.RunID,
			ProjectRoot: d.cfg.Project.Root,
			Title:       session.TitleFrom(description),
			CreatedAt:   start,
			UpdatedAt:   start.Add(res.Duration),
			Outcome:     session.OutcomeSucceeded,
			Issues:      res.Issues,
			FactSheet:   res.FactSheet,
		}
		if res.Err != nil {
			snap.Outcome = session.OutcomeFailed
			snap.FailedAgent = res.Failed
			snap.Error = res.Err.Error()
		}
		if err := d.sessions.Save(snap); err != nil {
			d.logger.Warn("failed to save session", append(fields, zap.Error(err))...)
		}
	}

	if d.history != nil {
		if err := d.history.FinishRun(ctx, res.RunID, res.Failed, res.Err); err != nil {
			d.logger.Warn("failed to record run outcome", append(fields, zap.Error(err))...)
		}
	}

	if d.metrics != nil {
		if err := d.metrics.WriteTextfile(d.cfg.Metrics.Textfile); err != nil {
			d.logger.Warn("failed to write metrics textfile", append(fields, zap.Error(err))...)
		}
	}

	if res.Err != nil {
		d.logger.Error("pipeline failed", append(fields,
			zap.String("agent", res.Failed), zap.Duration("duration", res.Duration), zap.Error(res.Err))...)
		return
	}
	d.logger.Info("pipeline finished", append(fields,
		zap.Duration("duration", res.Duration), zap.Int("issues", len(res.Issues)))...)
}
