package agents

import (
	"context"
	"net/http"
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/probe"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
)

const (
	ArchitectPosition  = "Solutions Architect"
	ArchitectObjective = "Gathers information and design solutions for website development"
)

// SolutionArchitect classifies the project and, when it depends on outside
// data, finds and checks the external URLs to use.
type SolutionArchitect struct {
	BasicAgent

	oracle     oracle.TaskRequester
	prober     probe.Prober
	hooks      engine.Hook
	urlTimeout time.Duration
}

// NewSolutionArchitect creates the architect in StateDiscovery.
func NewSolutionArchitect(req oracle.TaskRequester, prober probe.Prober, hooks engine.Hook, urlTimeout time.Duration) *SolutionArchitect {
	return &SolutionArchitect{
		BasicAgent: BasicAgent{
			Objective: ArchitectObjective,
			Position:  ArchitectPosition,
			State:     engine.StateDiscovery,
		},
		oracle:     req,
		prober:     prober,
		hooks:      hooksOrNop(hooks),
		urlTimeout: urlTimeout,
	}
}

// Execute implements Agent.
func (a *SolutionArchitect) Execute(ctx context.Context, fs *factsheet.FactSheet) error {
	return a.runLoop(ctx, a.hooks, fs, map[engine.AgentState]step{
		engine.StateDiscovery:   a.discover,
		engine.StateUnitTesting: a.checkURLs,
	})
}

func (a *SolutionArchitect) discover(ctx context.Context, fs *factsheet.FactSheet) error {
	scope, _, err := oracle.RequestDecoded[factsheet.ProjectScope](ctx, a.oracle, oracle.Task{
		PromptID:  prompts.ProjectScope,
		Input:     fs.ProjectDescription,
		Position:  a.Position,
		Operation: "Defining project scope",
	}, factsheet.ProjectScopeSchema)
	if err != nil {
		return err
	}
	fs.ProjectScope = &scope

	if !scope.IsExternalURLsRequired {
		a.transition(ctx, a.hooks, engine.StateFinished)
		return nil
	}

	urls, _, err := oracle.RequestDecoded[[]string](ctx, a.oracle, oracle.Task{
		PromptID:  prompts.SiteURLs,
		Input:     fs.ProjectDescription,
		Position:  a.Position,
		Operation: "Determining external urls",
	}, factsheet.URLListSchema)
	if err != nil {
		return err
	}
	if urls == nil {
		urls = []string{}
	}
	fs.ExternalURLs = urls
	a.transition(ctx, a.hooks, engine.StateUnitTesting)
	return nil
}

// checkURLs drops every URL that answers with a status other than 200.
// URLs that cannot be reached at all are kept.
func (a *SolutionArchitect) checkURLs(ctx context.Context, fs *factsheet.FactSheet) error {
	if fs.ExternalURLs == nil {
		return ErrMissingExternalURLs
	}

	excluded := make(map[string]bool)
	for _, url := range fs.ExternalURLs {
		a.hooks.OnNotice(ctx, a.Position, "Testing URL: "+url)

		status, err := a.prober.Status(ctx, url, a.urlTimeout)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		report := engine.ProbeReport{Kind: engine.ProbeExternalURL, Target: url, Status: status, Err: err}
		if err == nil && status != http.StatusOK {
			excluded[url] = true
			report.Excluded = true
		}
		a.hooks.OnProbe(ctx, a.Position, report)
	}

	if len(excluded) > 0 {
		kept := make([]string, 0, len(fs.ExternalURLs)-len(excluded))
		for _, url := range fs.ExternalURLs {
			if !excluded[url] {
				kept = append(kept, url)
			}
		}
		fs.ExternalURLs = kept
	}

	a.transition(ctx, a.hooks, engine.StateFinished)
	return nil
}
