package agents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/probe"
	"github.com/ChamsBouzaiene/autodev/internal/project"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
	"github.com/ChamsBouzaiene/autodev/internal/toolchain"
)

const (
	BackendPosition  = "Backend Developer"
	BackendObjective = "Develops backend code for webserver and json database"
)

// BackendSettings bounds the build loop and locates the launched service.
type BackendSettings struct {
	MaxBugFixes  int
	Host         string
	Port         int
	SettleDelay  time.Duration
	ProbeTimeout time.Duration
}

// BackendSettingsFrom reads the build and service sections.
func BackendSettingsFrom(cfg *config.Config) BackendSettings {
	return BackendSettings{
		MaxBugFixes:  cfg.Build.MaxBugFixes,
		Host:         cfg.Service.Host,
		Port:         cfg.Service.Port,
		SettleDelay:  cfg.Service.SettleDelay.Duration(),
		ProbeTimeout: cfg.Service.ProbeTimeout.Duration(),
	}
}

// BackendDeps are the collaborators of the backend developer.
type BackendDeps struct {
	Oracle    oracle.TaskRequester
	Store     project.Store
	Toolchain toolchain.Toolchain
	Prober    probe.Prober
	Confirmer Confirmer
	Hooks     engine.Hook
}

// BackendDeveloper writes the server from the code template, repairs it
// until it builds, then runs it and checks its GET endpoints.
type BackendDeveloper struct {
	BasicAgent

	deps     BackendDeps
	hooks    engine.Hook
	settings BackendSettings

	bugCount  int
	bugErrors string
	builds    int
	issues    []ProbeIssue
}

// NewBackendDeveloper creates the developer in StateDiscovery.
func NewBackendDeveloper(deps BackendDeps, settings BackendSettings) *BackendDeveloper {
	return &BackendDeveloper{
		BasicAgent: BasicAgent{
			Objective: BackendObjective,
			Position:  BackendPosition,
			State:     engine.StateDiscovery,
		},
		deps:     deps,
		hooks:    hooksOrNop(deps.Hooks),
		settings: settings,
	}
}

// BugCount is the number of consecutive failed builds.
func (b *BackendDeveloper) BugCount() int { return b.bugCount }

// Issues returns the endpoint failures of the last verification.
func (b *BackendDeveloper) Issues() []ProbeIssue { return b.issues }

// Execute implements Agent.
func (b *BackendDeveloper) Execute(ctx context.Context, fs *factsheet.FactSheet) error {
	return b.runLoop(ctx, b.hooks, fs, map[engine.AgentState]step{
		engine.StateDiscovery:   b.writeInitialCode,
		engine.StateWorking:     b.reviseCode,
		engine.StateUnitTesting: b.unitTest,
	})
}

func (b *BackendDeveloper) writeInitialCode(ctx context.Context, fs *factsheet.FactSheet) error {
	tpl, err := b.deps.Store.ReadTemplate()
	if err != nil {
		return err
	}

	input := fmt.Sprintf("CODE TEMPLATE: %s \n PROJECT_DESCRIPTION: %s \n", tpl, fs.ProjectDescription)
	if err := b.generate(ctx, fs, prompts.BackendWebserverCode, "Writing backend code", input); err != nil {
		return err
	}
	b.transition(ctx, b.hooks, engine.StateWorking)
	return nil
}

// reviseCode improves compiling code, or repairs code that failed to build.
func (b *BackendDeveloper) reviseCode(ctx context.Context, fs *factsheet.FactSheet) error {
	var err error
	if b.bugCount == 0 {
		sheet, jerr := fs.JSON()
		if jerr != nil {
			return fmt.Errorf("encode fact sheet: %w", jerr)
		}
		input := fmt.Sprintf("CODE TEMPLATE: %s \n PROJECT_DESCRIPTION: %s \n", fs.Code(), sheet)
		err = b.generate(ctx, fs, prompts.ImprovedWebserverCode, "Improving backend code", input)
	} else {
		input := fmt.Sprintf("BROKEN_CODE: %s \n ERROR_BUGS: %s \n THIS FUNCTION ONLY OUTPUTS CODE. JUST OUTPUT THE CODE.",
			fs.Code(), b.bugErrors)
		err = b.generate(ctx, fs, prompts.FixedCode, "Fixing code bugs", input)
	}
	if err != nil {
		return err
	}
	b.transition(ctx, b.hooks, engine.StateUnitTesting)
	return nil
}

// generate asks for code, persists it and records it on the fact sheet.
func (b *BackendDeveloper) generate(ctx context.Context, fs *factsheet.FactSheet, promptID, operation, input string) error {
	resp, err := b.deps.Oracle.Request(ctx, oracle.Task{
		PromptID:  promptID,
		Input:     input,
		Position:  b.Position,
		Operation: operation,
	})
	if err != nil {
		return err
	}
	code := oracle.ExtractCode(resp)
	if err := b.deps.Store.WriteEntryPoint(code); err != nil {
		return err
	}
	fs.SetBackendCode(code)
	return nil
}

func (b *BackendDeveloper) unitTest(ctx context.Context, fs *factsheet.FactSheet) error {
	b.hooks.OnNotice(ctx, b.Position, "Backend code unit testing: requiring user input")
	ok, err := b.deps.Confirmer.Confirm(ctx, SafetyWarning)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSafetyGateDenied
	}

	b.hooks.OnNotice(ctx, b.Position, "Backend code unit testing: building")
	res, err := b.deps.Toolchain.Build(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	b.builds++

	if !res.Success {
		b.bugCount++
		b.bugErrors = res.Stderr
		b.hooks.OnBuild(ctx, b.Position, engine.BuildReport{
			Attempt:  b.builds,
			BugCount: b.bugCount,
			Stderr:   res.Stderr,
			Duration: res.Duration,
		})
		if b.bugCount > b.settings.MaxBugFixes {
			b.hooks.OnNotice(ctx, b.Position, "Backend code unit testing: too many errors")
			return &BuildError{Attempts: b.builds, Stderr: res.Stderr}
		}
		b.transition(ctx, b.hooks, engine.StateWorking)
		return nil
	}

	b.bugCount = 0
	b.bugErrors = ""
	b.hooks.OnBuild(ctx, b.Position, engine.BuildReport{
		Attempt:  b.builds,
		Success:  true,
		Duration: res.Duration,
	})

	code, err := b.deps.Store.ReadEntryPoint()
	if err != nil {
		return err
	}
	routes, raw, err := oracle.RequestDecoded[[]factsheet.RouteObject](ctx, b.deps.Oracle, oracle.Task{
		PromptID:  prompts.RESTAPIEndpoints,
		Input:     "CODE_INPUT: " + code,
		Position:  b.Position,
		Operation: "Extracting REST API endpoints",
	}, factsheet.RouteListSchema)
	if err != nil {
		return err
	}
	checkable := factsheet.CheckableRoutes(routes)
	if checkable == nil {
		checkable = []factsheet.RouteObject{}
	}
	fs.APIEndpointSchema = checkable

	if err := b.verifyService(ctx, checkable, raw); err != nil {
		return err
	}
	b.transition(ctx, b.hooks, engine.StateFinished)
	return nil
}

// verifyService runs the server, probes each route and saves the route
// list. The server is killed on every return path.
func (b *BackendDeveloper) verifyService(ctx context.Context, routes []factsheet.RouteObject, raw string) error {
	b.issues = nil

	b.hooks.OnNotice(ctx, b.Position, "Backend code unit testing: running server")
	proc, err := b.deps.Toolchain.Start(ctx)
	if err != nil {
		return err
	}
	defer proc.Kill()

	b.hooks.OnNotice(ctx, b.Position, fmt.Sprintf("Backend code unit testing: launching tests on server in %s", b.settings.SettleDelay))
	if err := sleepCtx(ctx, b.settings.SettleDelay); err != nil {
		return err
	}

	for _, r := range routes {
		url := probe.ServiceURL(b.settings.Host, b.settings.Port, r.Route)
		b.hooks.OnNotice(ctx, b.Position, "Testing endpoint: "+r.Route)

		status, err := b.deps.Prober.Status(ctx, url, b.settings.ProbeTimeout)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		b.hooks.OnProbe(ctx, b.Position, engine.ProbeReport{Kind: engine.ProbeEndpoint, Target: url, Status: status, Err: err})

		if err != nil {
			_ = proc.Kill()
		}
		if err != nil || status != http.StatusOK {
			issue := ProbeIssue{Route: r.Route, URL: url, Status: status, Err: err}
			b.issues = append(b.issues, issue)
			b.hooks.OnIssue(ctx, b.Position, issue.String())
		}
	}

	payload, ok := oracle.ExtractJSON(raw)
	if !ok {
		payload = raw
	}
	if err := b.deps.Store.SaveSchema(payload); err != nil {
		return err
	}

	if len(b.issues) == 0 {
		b.hooks.OnNotice(ctx, b.Position, "Backend code unit testing: all tests passed")
	} else {
		b.hooks.OnNotice(ctx, b.Position, fmt.Sprintf("Backend code unit testing: finished with %d failing endpoint(s)", len(b.issues)))
	}
	return proc.Kill()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
