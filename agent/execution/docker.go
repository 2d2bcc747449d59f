package execution

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// DefaultRootDir is the working directory root inside the container.
const DefaultRootDir = "/workspace"

// DockerConfig configures DockerBackend.
type DockerConfig struct {
	Container string
	RootDir   string
	Binary    string
}

// DockerBackend executes shell calls with `docker exec` against an
// already-running container. It never creates or removes containers.
type DockerBackend struct {
	container string
	rootDir   string
	binary    string
	runner    Runner
	logger    *zap.Logger
}

// NewDockerBackend creates a container backend.
func NewDockerBackend(cfg DockerConfig, runner Runner, logger *zap.Logger) (*DockerBackend, error) {
	if strings.TrimSpace(cfg.Container) == "" {
		return nil, types.NewConfigError("container backend requires a container name")
	}
	if runner == nil {
		runner = OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	root := cfg.RootDir
	if root == "" {
		root = DefaultRootDir
	}
	bin := cfg.Binary
	if bin == "" {
		bin = "docker"
	}
	return &DockerBackend{
		container: cfg.Container,
		rootDir:   root,
		binary:    bin,
		runner:    runner,
		logger:    logger.With(zap.String("component", "docker_backend")),
	}, nil
}

// Name returns the backend name.
func (d *DockerBackend) Name() string { return string(ModeContainer) }

// Container returns the target container.
func (d *DockerBackend) Container() string { return d.container }

// ResolveWorkDir maps the model's working_directory onto the container.
// Relative paths are joined to the root, an empty path is the root itself,
// and absolute paths are used as given.
func (d *DockerBackend) ResolveWorkDir(wd string) string {
	if wd == "" {
		return d.rootDir
	}
	if path.IsAbs(wd) {
		return path.Clean(wd)
	}
	return path.Join(d.rootDir, wd)
}

// BuildArgs returns the docker CLI arguments for call.
func (d *DockerBackend) BuildArgs(call types.ShellCall) []string {
	args := []string{"exec", "-w", d.ResolveWorkDir(call.WorkingDirectory)}

	// Environment variables, sorted for a stable argv
	keys := make([]string, 0, len(call.Env))
	for k := range call.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, call.Env[k]))
	}

	args = append(args, d.container)
	return append(args, call.Command...)
}

// Execute runs call in the container.
func (d *DockerBackend) Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
	args := d.BuildArgs(call)

	runCtx := ctx
	timeout := call.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d.logger.Debug("executing docker command",
		zap.String("container", d.container),
		zap.String("call_id", call.CallID),
		zap.Strings("args", args),
		zap.Duration("timeout", timeout),
	)

	start := time.Now()
	out, err := d.runner.Run(runCtx, d.binary, args...)
	elapsed := time.Since(start)

	if err != nil {
		if timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, types.Errorf(types.ErrExecutionTimeout,
				"command %q exceeded timeout of %s", strings.Join(call.Command, " "), timeout).WithCause(err)
		}
		return nil, types.Errorf(types.ErrBackendFailure,
			"docker exec in container %s failed", d.container).WithCause(err)
	}

	return &types.ExecutionResult{
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: elapsed,
	}, nil
}
