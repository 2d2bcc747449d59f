package execution

import (
	"context"
	"strings"

	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🐚 命令执行抽象
// =============================================================================

// CommandExecutor runs one model-proposed shell call in the target
// environment and captures its output.
type CommandExecutor interface {
	Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error)
	Name() string
}

// Mode selects the execution backend.
type Mode string

const (
	// ModeContainer targets an already-running Docker container.
	ModeContainer Mode = "container"
	// ModeSandbox targets an already-created isolated sandbox.
	ModeSandbox Mode = "sandbox"
)

// ParseMode maps a user-supplied backend name to a Mode.
// "docker" and "modal" are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "container", "docker":
		return ModeContainer, nil
	case "sandbox", "modal":
		return ModeSandbox, nil
	default:
		return "", types.NewConfigError("unknown executor mode %q", s)
	}
}

// Config 执行后端配置
type Config struct {
	Mode Mode

	// Container 目标容器名称或 ID（ModeContainer）
	Container string
	// Sandbox 目标沙箱 ID（ModeSandbox）
	Sandbox string

	// RootDir 容器内工作目录根，默认 /workspace
	RootDir string
	// DockerBinary 默认 "docker"
	DockerBinary string
	// ModalBinary 默认 "modal"
	ModalBinary string

	// StrictOptions 让沙箱后端拒绝 env/timeout 而不是忽略
	StrictOptions bool

	// Runner 进程启动器，默认 OSRunner
	Runner Runner
}

// New builds the backend selected by cfg.Mode.
func New(cfg Config, logger *zap.Logger) (CommandExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = OSRunner{}
	}

	switch cfg.Mode {
	case ModeContainer:
		d, err := NewDockerBackend(DockerConfig{
			Container: cfg.Container,
			RootDir:   cfg.RootDir,
			Binary:    cfg.DockerBinary,
		}, runner, logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	case ModeSandbox:
		sb, err := NewModalCLISandbox(cfg.Sandbox, cfg.ModalBinary, runner)
		if err != nil {
			return nil, err
		}
		b, err := NewSandboxBackend(sb, SandboxConfig{StrictOptions: cfg.StrictOptions}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil

	default:
		return nil, types.NewConfigError("unknown executor mode %q", cfg.Mode)
	}
}
