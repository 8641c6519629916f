package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/autodev/internal/config"
)

// Mode represents the sandbox execution mode.
type Mode string

const (
	// ModeDocker runs builds in Docker containers.
	ModeDocker Mode = "docker"
	// ModeHost runs builds directly on the host.
	ModeHost Mode = "host"
	// ModeAuto uses Docker when the daemon answers, otherwise the host.
	ModeAuto Mode = "auto"
)

const defaultCmdTimeout = 10 * time.Minute

// Config holds configuration for sandbox execution.
type Config struct {
	Mode        Mode
	DockerImage string        // Custom Docker image override
	Network     bool          // Allow network access inside containers
	CPU         string        // CPU limit (e.g., "2")
	Memory      string        // Memory limit (e.g., "1g")
	CmdTimeout  time.Duration // Default command timeout (0 = use default)
}

// ConfigFrom maps the build section of the run configuration.
func ConfigFrom(b config.BuildConfig) Config {
	return Config{
		Mode:        Mode(b.Sandbox),
		DockerImage: b.DockerImage,
		Network:     b.DockerNetwork,
		CPU:         b.CPU,
		Memory:      b.Memory,
		CmdTimeout:  b.CmdTimeout.Duration(),
	}
}

func (c Config) timeout(override time.Duration) time.Duration {
	switch {
	case override > 0:
		return override
	case c.CmdTimeout > 0:
		return c.CmdTimeout
	default:
		return defaultCmdTimeout
	}
}

// IsDockerAvailable checks if the docker CLI can reach a daemon.
func IsDockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "ps")
	return cmd.Run() == nil
}

// NewRunner creates the build runner for cfg.Mode. Docker mode fails when
// the daemon is unreachable; auto mode falls back to the host.
func NewRunner(ctx context.Context, cfg Config, logger *zap.Logger) (Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Mode {
	case ModeHost, "":
		logger.Warn("builds run on the host without isolation")
		return NewHostRunner(cfg), nil

	case ModeDocker:
		r, err := NewDockerRunner(cfg)
		if err != nil {
			return nil, fmt.Errorf("docker sandbox: %w", err)
		}
		return r, nil

	case ModeAuto:
		if IsDockerAvailable(ctx) {
			r, err := NewDockerRunner(cfg)
			if err == nil {
				return r, nil
			}
			logger.Warn("docker available but runner failed, falling back to host", zap.Error(err))
		} else {
			logger.Warn("docker not available, builds run on the host without isolation")
		}
		return NewHostRunner(cfg), nil

	default:
		return nil, fmt.Errorf("unknown sandbox mode: %s", cfg.Mode)
	}
}
