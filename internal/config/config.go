// Package config holds the typed configuration of an autodev run.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config is the full run configuration. Every filesystem location the
// pipeline touches is listed here rather than hardcoded.
type Config struct {
	Project   ProjectConfig   `koanf:"project" yaml:"project"`
	LLM       LLMConfig       `koanf:"llm" yaml:"llm"`
	Oracle    OracleConfig    `koanf:"oracle" yaml:"oracle"`
	Discovery DiscoveryConfig `koanf:"discovery" yaml:"discovery"`
	Service   ServiceConfig   `koanf:"service" yaml:"service"`
	Build     BuildConfig     `koanf:"build" yaml:"build"`
	Pipeline  PipelineConfig  `koanf:"pipeline" yaml:"pipeline"`
	Storage   StorageConfig   `koanf:"storage" yaml:"storage"`
	Logging   LoggingConfig   `koanf:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics" yaml:"metrics"`
}

// ProjectConfig locates the generated web server project. Relative paths are
// resolved against Root.
type ProjectConfig struct {
	Root           string `koanf:"root" yaml:"root"`
	TemplatePath   string `koanf:"template_path" yaml:"template_path"`
	EntryPointPath string `koanf:"entry_point_path" yaml:"entry_point_path"`
	SchemaPath     string `koanf:"schema_path" yaml:"schema_path"`
}

// LLMConfig selects the oracle provider.
type LLMConfig struct {
	Provider        string  `koanf:"provider" yaml:"provider"`
	Model           string  `koanf:"model" yaml:"model"`
	APIKey          Secret  `koanf:"api_key" yaml:"api_key"`
	BaseURL         string  `koanf:"base_url" yaml:"base_url"`
	Temperature     float32 `koanf:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `koanf:"max_output_tokens" yaml:"max_output_tokens"`
	AzureDeployment string  `koanf:"azure_deployment" yaml:"azure_deployment"`
	AzureAPIVersion string  `koanf:"azure_api_version" yaml:"azure_api_version"`
}

// OracleConfig bounds oracle retries. MaxRetries is the number of repeats
// after the first failed call.
type OracleConfig struct {
	MaxRetries int      `koanf:"max_retries" yaml:"max_retries"`
	RetryDelay Duration `koanf:"retry_delay" yaml:"retry_delay"`
}

// DiscoveryConfig tunes the external URL liveness check.
type DiscoveryConfig struct {
	URLTimeout Duration `koanf:"url_timeout" yaml:"url_timeout"`
}

// ServiceConfig describes how the generated service is reached once launched.
type ServiceConfig struct {
	Host         string   `koanf:"host" yaml:"host"`
	Port         int      `koanf:"port" yaml:"port"`
	SettleDelay  Duration `koanf:"settle_delay" yaml:"settle_delay"`
	ProbeTimeout Duration `koanf:"probe_timeout" yaml:"probe_timeout"`
}

// BuildConfig controls the build/repair loop and where builds execute.
type BuildConfig struct {
	MaxBugFixes   int      `koanf:"max_bug_fixes" yaml:"max_bug_fixes"`
	Sandbox       string   `koanf:"sandbox" yaml:"sandbox"` // host, docker, auto
	DockerImage   string   `koanf:"docker_image" yaml:"docker_image"`
	DockerNetwork bool     `koanf:"docker_network" yaml:"docker_network"` // dependency downloads
	CPU           string   `koanf:"cpu" yaml:"cpu"`
	Memory        string   `koanf:"memory" yaml:"memory"`
	CmdTimeout    Duration `koanf:"cmd_timeout" yaml:"cmd_timeout"`
}

// PipelineConfig toggles optional pipeline behavior.
type PipelineConfig struct {
	RefineGoal  bool `koanf:"refine_goal" yaml:"refine_goal"`
	AutoConfirm bool `koanf:"auto_confirm" yaml:"auto_confirm"`
}

// StorageConfig locates run history. Empty values fall back to the user data dir.
type StorageConfig struct {
	HistoryDB   string `koanf:"history_db" yaml:"history_db"`
	SessionsDir string `koanf:"sessions_dir" yaml:"sessions_dir"`
	Disabled    bool   `koanf:"disabled" yaml:"disabled"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsConfig enables the Prometheus textfile written after each run.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" yaml:"textfile"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:           ".",
			TemplatePath:   "src/code_template.rs",
			EntryPointPath: "src/main.rs",
			SchemaPath:     "schemas/api_schema.json",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4",
			Temperature: 0.1,
		},
		Oracle: OracleConfig{
			MaxRetries: 1,
			RetryDelay: Duration(time.Second),
		},
		Discovery: DiscoveryConfig{
			URLTimeout: Duration(10 * time.Second),
		},
		Service: ServiceConfig{
			Host:         "localhost",
			Port:         8000,
			SettleDelay:  Duration(5 * time.Second),
			ProbeTimeout: Duration(5 * time.Second),
		},
		Build: BuildConfig{
			MaxBugFixes:   10,
			Sandbox:       "host",
			DockerNetwork: true,
			CPU:           "2",
			Memory:        "1g",
			CmdTimeout:    Duration(10 * time.Minute),
		},
		Pipeline: PipelineConfig{
			RefineGoal: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Project.Root == "" {
		errs = append(errs, errors.New("project.root is required"))
	}
	for name, p := range map[string]string{
		"project.template_path":    c.Project.TemplatePath,
		"project.entry_point_path": c.Project.EntryPointPath,
		"project.schema_path":      c.Project.SchemaPath,
	} {
		if p == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service.port %d out of range", c.Service.Port))
	}
	if c.Build.MaxBugFixes < 0 {
		errs = append(errs, fmt.Errorf("build.max_bug_fixes cannot be negative"))
	}
	if c.Oracle.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("oracle.max_retries cannot be negative"))
	}
	for name, d := range map[string]Duration{
		"oracle.retry_delay":    c.Oracle.RetryDelay,
		"discovery.url_timeout": c.Discovery.URLTimeout,
		"service.settle_delay":  c.Service.SettleDelay,
		"service.probe_timeout": c.Service.ProbeTimeout,
		"build.cmd_timeout":     c.Build.CmdTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative", name))
		}
	}
	switch c.Build.Sandbox {
	case "host", "docker", "auto":
	default:
		errs = append(errs, fmt.Errorf("build.sandbox %q invalid (supported: host, docker, auto)", c.Build.Sandbox))
	}
	return errors.Join(errs...)
}

// Resolve returns p made absolute against the project root.
func (p ProjectConfig) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	root, err := filepath.Abs(p.Root)
	if err != nil {
		root = p.Root
	}
	return filepath.Join(root, path)
}
