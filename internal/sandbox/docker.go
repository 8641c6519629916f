package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"

	"github.com/ChamsBouzaiene/autodev/internal/workspace"
)

const (
	defaultMemoryBytes = 1 << 30
	defaultCPUs        = 2.0
	workspaceMount     = "/workspace"
)

// DockerRunner runs builds in throwaway containers with the project
// directory bind-mounted. It only implements Runner; the built server is
// launched on the host.
type DockerRunner struct {
	client *client.Client
	config Config
}

// NewDockerRunner creates a new Docker-based runner.
func NewDockerRunner(config Config) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &DockerRunner{client: cli, config: config}, nil
}

// RunCmd implements Runner.
func (r *DockerRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	img := GetDockerImage(workspace.DetectProjectType(dir), r.config)
	if err := r.ensureImage(ctx, img); err != nil {
		return Result{}, fmt.Errorf("failed to ensure image %s: %w", img, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	containerConfig, hostConfig := r.containerSpec(img, absDir, append([]string{name}, args...))

	createResp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := createResp.ID

	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true})
	}()

	execCtx, cancel := context.WithTimeout(ctx, r.config.timeout(timeout))
	defer cancel()

	if err := r.client.ContainerStart(execCtx, containerID, container.StartOptions{}); err != nil {
		return Result{}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(execCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case <-execCtx.Done():
		killCtx, killCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer killCancel()
		_ = r.client.ContainerKill(killCtx, containerID, "SIGKILL")
		return Result{Code: 1, TimedOut: true, Stderr: "command execution timed out"}, execCtx.Err()
	case err := <-errCh:
		if err != nil {
			return Result{}, fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return Result{}, fmt.Errorf("failed to demultiplex container logs: %w", err)
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: int(exitCode)}
	if exitCode != 0 {
		return res, fmt.Errorf("%s exited with code %d", name, exitCode)
	}
	return res, nil
}

// containerSpec builds a locked-down container for one command. Toolchain
// caches live inside the mounted project so repeated builds reuse them.
func (r *DockerRunner) containerSpec(img, absDir string, cmd []string) (*container.Config, *container.HostConfig) {
	cfg := &container.Config{
		Image:      img,
		Cmd:        cmd,
		WorkingDir: workspaceMount,
		User:       "1000:1000",
		Env: []string{
			"HOME=/tmp",
			"CARGO_HOME=" + workspaceMount + "/.cache/cargo",
			"GOCACHE=" + workspaceMount + "/.cache/go-build",
			"GOMODCACHE=" + workspaceMount + "/.cache/go-mod",
			"npm_config_cache=" + workspaceMount + "/.cache/npm",
		},
		NetworkDisabled: !r.config.Network,
	}

	host := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: absDir,
			Target: workspaceMount,
		}},
		Resources: container.Resources{
			Memory:   parseMemory(r.config.Memory),
			NanoCPUs: int64(parseCPU(r.config.CPU) * 1e9),
			Ulimits: []*units.Ulimit{
				{Name: "nofile", Soft: 4096, Hard: 4096},
			},
		},
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,nosuid,size=512m",
		},
	}
	return cfg, host
}

// ensureImage pulls the image unless it is already present.
func (r *DockerRunner) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := r.client.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// parseMemory parses a size like "1g" or "512m". Invalid or empty values
// fall back to 1GiB.
func parseMemory(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultMemoryBytes
	}
	n, err := units.RAMInBytes(s)
	if err != nil || n <= 0 {
		return defaultMemoryBytes
	}
	return n
}

// parseCPU parses a CPU count like "2" or "1.5".
func parseCPU(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return defaultCPUs
	}
	return v
}
