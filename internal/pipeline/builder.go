package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/agents"
	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/history"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/probe"
	"github.com/ChamsBouzaiene/autodev/internal/project"
	"github.com/ChamsBouzaiene/autodev/internal/sandbox"
	"github.com/ChamsBouzaiene/autodev/internal/session"
	"github.com/ChamsBouzaiene/autodev/internal/toolchain"
)

// Builder assembles a Driver with a fluent API.
type Builder struct {
	cfg       *config.Config
	llm       engine.LLMClient
	model     string
	hooks     engine.Hooks
	confirmer agents.Confirmer
	toolchain toolchain.Toolchain
	prober    probe.Prober
	store     project.Store
	history   *history.DB
	sessions  *session.Store
	agents    []agents.Agent
	logger    *zap.Logger
}

// NewBuilder creates a builder on the default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: config.Default()}
}

// WithConfig sets the run configuration.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithLLM sets the oracle client and the model it is asked for.
func (b *Builder) WithLLM(llm engine.LLMClient, model string) *Builder {
	b.llm = llm
	b.model = model
	return b
}

// WithHooks adds observers of the run.
func (b *Builder) WithHooks(hooks ...engine.Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// WithConfirmer sets the safety gate. Defaults to the terminal prompt, or
// auto-confirmation when pipeline.auto_confirm is set.
func (b *Builder) WithConfirmer(c agents.Confirmer) *Builder {
	b.confirmer = c
	return b
}

// WithToolchain replaces the sandboxed toolchain built from config.
func (b *Builder) WithToolchain(tc toolchain.Toolchain) *Builder {
	b.toolchain = tc
	return b
}

// WithProber replaces the HTTP prober.
func (b *Builder) WithProber(p probe.Prober) *Builder {
	b.prober = p
	return b
}

// WithStore replaces the file-backed project store.
func (b *Builder) WithStore(s project.Store) *Builder {
	b.store = s
	return b
}

// WithHistory records every run in the ledger.
func (b *Builder) WithHistory(db *history.DB) *Builder {
	b.history = db
	return b
}

// WithSessions saves a snapshot of every run.
func (b *Builder) WithSessions(s *session.Store) *Builder {
	b.sessions = s
	return b
}

// WithAgents overrides the agent sequence. The agents are used as given for
// a single run.
func (b *Builder) WithAgents(list ...agents.Agent) *Builder {
	b.agents = list
	return b
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and wires the driver.
func (b *Builder) Build() (*Driver, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid config: %w", err)
	}
	if b.llm == nil {
		return nil, fmt.Errorf("pipeline: llm client is required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hooks := append(engine.Hooks{engine.LoggerHook{L: logger}}, b.hooks...)
	var metrics *engine.MetricsHook
	if b.cfg.Metrics.Textfile != "" {
		metrics = engine.NewMetricsHook()
		hooks = append(hooks, metrics)
	}
	if b.history != nil {
		hooks = append(hooks, history.NewRecorder(b.history, logger))
	}

	policy := engine.DefaultOraclePolicy()
	policy.MaxRetries = b.cfg.Oracle.MaxRetries
	policy.InitialDelay = b.cfg.Oracle.RetryDelay.Duration()
	requester, err := oracle.NewRequester(b.llm, oracle.Options{
		Model: b.model,
		Chat: engine.ChatOptions{
			Temperature:     b.cfg.LLM.Temperature,
			MaxOutputTokens: b.cfg.LLM.MaxOutputTokens,
		},
		Policy: policy,
		Hooks:  hooks,
	})
	if err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:      b.cfg,
		oracle:   requester,
		hooks:    hooks,
		logger:   logger,
		history:  b.history,
		sessions: b.sessions,
		metrics:  metrics,
	}

	if b.agents != nil {
		list := b.agents
		d.newAgents = func() []agents.Agent { return list }
		return d, nil
	}

	tc := b.toolchain
	if tc == nil {
		tc, err = defaultToolchain(b.cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	prober := b.prober
	if prober == nil {
		prober = probe.New()
	}
	store := b.store
	if store == nil {
		store = project.NewFiles(b.cfg.Project)
	}
	confirmer := b.confirmer
	if confirmer == nil {
		if b.cfg.Pipeline.AutoConfirm {
			confirmer = agents.AutoConfirmer{}
		} else {
			confirmer = agents.NewTerminalConfirmer()
		}
	}

	cfg := b.cfg
	d.newAgents = func() []agents.Agent {
		return []agents.Agent{
			agents.NewSolutionArchitect(requester, prober, hooks, cfg.Discovery.URLTimeout.Duration()),
			agents.NewBackendDeveloper(agents.BackendDeps{
				Oracle:    requester,
				Store:     store,
				Toolchain: tc,
				Prober:    prober,
				Confirmer: confirmer,
				Hooks:     hooks,
			}, agents.BackendSettingsFrom(cfg)),
		}
	}
	return d, nil
}

func defaultToolchain(cfg *config.Config, logger *zap.Logger) (toolchain.Toolchain, error) {
	sbCfg := sandbox.ConfigFrom(cfg.Build)
	runner, err := sandbox.NewRunner(context.Background(), sbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	// The service always runs on the host so the prober can reach it.
	launcher := sandbox.NewHostRunner(sbCfg)
	return toolchain.New(cfg.Project.Resolve("."), runner, launcher), nil
}
