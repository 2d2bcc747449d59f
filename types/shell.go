package types

import (
	"time"
)

// ShellCall is one "run a shell command" request issued by the model.
// It is treated as immutable once received.
type ShellCall struct {
	// ID is the output item identifier assigned by the model.
	ID string `json:"id,omitempty"`

	// CallID correlates the tool result with this call. Never rewritten.
	CallID string `json:"call_id"`

	Command          []string          `json:"command"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	Env              map[string]string `json:"env,omitempty"`

	// TimeoutMS is nil when the model did not ask for a timeout.
	TimeoutMS *int `json:"timeout_ms,omitempty"`
}

// Timeout returns the requested timeout, or 0 when none was given.
func (c ShellCall) Timeout() time.Duration {
	if c.TimeoutMS == nil || *c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(*c.TimeoutMS) * time.Millisecond
}

// ExecutionResult is what a backend reports for one ShellCall.
type ExecutionResult struct {
	// ExitCode is advisory. The sandbox backend always reports 0.
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Output concatenates stdout and stderr, in that order.
func (r *ExecutionResult) Output() string {
	return r.Stdout + r.Stderr
}
