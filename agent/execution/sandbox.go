package execution

import (
	"context"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// Sandbox is a handle to an already-created isolated sandbox.
type Sandbox interface {
	// Exec runs args inside the sandbox and returns its captured output.
	Exec(ctx context.Context, args ...string) (stdout, stderr string, err error)
	ID() string
}

// =============================================================================
// Modal CLI sandbox
// =============================================================================

// ModalCLISandbox reaches a sandbox through `modal container exec`.
type ModalCLISandbox struct {
	id     string
	binary string
	runner Runner
}

// NewModalCLISandbox returns a Sandbox for the given sandbox id.
func NewModalCLISandbox(id, binary string, runner Runner) (*ModalCLISandbox, error) {
	if strings.TrimSpace(id) == "" {
		return nil, types.NewConfigError("sandbox backend requires a sandbox id")
	}
	if binary == "" {
		binary = "modal"
	}
	if runner == nil {
		runner = OSRunner{}
	}
	return &ModalCLISandbox{id: id, binary: binary, runner: runner}, nil
}

// ID returns the sandbox id.
func (s *ModalCLISandbox) ID() string { return s.id }

// Exec implements Sandbox.
func (s *ModalCLISandbox) Exec(ctx context.Context, args ...string) (string, string, error) {
	full := append([]string{"container", "exec", s.id}, args...)
	out, err := s.runner.Run(ctx, s.binary, full...)
	if out == nil {
		out = &RunOutput{}
	}
	return out.Stdout, out.Stderr, err
}

// =============================================================================
// Sandbox backend
// =============================================================================

// SandboxConfig configures SandboxBackend.
type SandboxConfig struct {
	// StrictOptions rejects env and timeout instead of dropping them.
	StrictOptions bool
}

// SandboxBackend executes shell calls inside a Sandbox.
//
// The sandbox exec channel reports no exit status and takes no env or
// timeout, so ExitCode is always 0 and those fields are dropped with a
// warning (or rejected under StrictOptions).
type SandboxBackend struct {
	sandbox Sandbox
	cfg     SandboxConfig
	logger  *zap.Logger
}

// NewSandboxBackend creates a sandbox backend.
func NewSandboxBackend(sb Sandbox, cfg SandboxConfig, logger *zap.Logger) (*SandboxBackend, error) {
	if sb == nil {
		return nil, types.NewConfigError("sandbox backend requires a sandbox")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SandboxBackend{
		sandbox: sb,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "sandbox_backend"), zap.String("sandbox_id", sb.ID())),
	}, nil
}

// Name returns the backend name.
func (b *SandboxBackend) Name() string { return string(ModeSandbox) }

// Execute runs call in the sandbox.
func (b *SandboxBackend) Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
	if dropped := unsupportedOptions(call); len(dropped) > 0 {
		if b.cfg.StrictOptions {
			return nil, types.Errorf(types.ErrUnsupportedOption,
				"sandbox backend does not support %s", strings.Join(dropped, " and "))
		}
		b.logger.Warn("ignoring shell call options unsupported by sandbox",
			zap.String("call_id", call.CallID),
			zap.Strings("options", dropped),
		)
	}

	args := SandboxCommand(call)

	b.logger.Debug("executing sandbox command",
		zap.String("call_id", call.CallID),
		zap.Strings("args", args),
	)

	start := time.Now()
	stdout, stderr, err := b.sandbox.Exec(ctx, args...)
	if err != nil {
		return nil, types.Errorf(types.ErrBackendFailure,
			"exec in sandbox %s failed", b.sandbox.ID()).WithCause(err)
	}

	return &types.ExecutionResult{
		ExitCode: 0,
		Stdout:   stdout,
		Stderr:   stderr,
		Duration: time.Since(start),
	}, nil
}

// SandboxCommand returns the argv sent to the sandbox. A working directory
// turns it into `bash -c "cd <dir> && <command>"`.
func SandboxCommand(call types.ShellCall) []string {
	if call.WorkingDirectory == "" {
		return call.Command
	}
	quoted := make([]string, len(call.Command))
	for i, arg := range call.Command {
		quoted[i] = shellQuote(arg)
	}
	script := "cd " + quoteDir(call.WorkingDirectory) + " && " + strings.Join(quoted, " ")
	return []string{"bash", "-c", script}
}

func unsupportedOptions(call types.ShellCall) []string {
	var dropped []string
	if len(call.Env) > 0 {
		dropped = append(dropped, "env")
	}
	if call.Timeout() > 0 {
		dropped = append(dropped, "timeout_ms")
	}
	return dropped
}

// quoteDir quotes dir like shellQuote but leaves a leading "~" or "~/"
// bare so the shell still expands it to the home directory.
func quoteDir(dir string) string {
	switch {
	case dir == "~":
		return dir
	case strings.HasPrefix(dir, "~/"):
		if rest := dir[2:]; rest != "" {
			return "~/" + shellQuote(rest)
		}
		return dir
	}
	return shellQuote(dir)
}

// shellQuote returns s unchanged when it has no shell metacharacters,
// otherwise wrapped in single quotes.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool { return !isShellSafe(r) }) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '-', '_', '.', '/', ':', '=', ',', '+', '@', '%':
		return true
	}
	return false
}
