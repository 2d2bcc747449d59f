package execution

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// RunOutput is what a finished child process left behind.
type RunOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner spawns a host process and waits for it.
// A non-zero exit status is reported in RunOutput, not as an error; errors
// mean the process could not be started or was cut short by ctx.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*RunOutput, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) (*RunOutput, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) (*RunOutput, error) {
	return f(ctx, name, args...)
}

// defaultWaitDelay bounds how long Wait blocks on inherited pipes after
// the process is killed.
const defaultWaitDelay = 5 * time.Second

// OSRunner runs processes with os/exec.
type OSRunner struct {
	// WaitDelay overrides exec.Cmd.WaitDelay; zero uses defaultWaitDelay.
	WaitDelay time.Duration
}

// Run implements Runner.
func (r OSRunner) Run(ctx context.Context, name string, args ...string) (*RunOutput, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	err := cmd.Run()

	out := &RunOutput{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Non-zero exit is not necessarily an error
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}
