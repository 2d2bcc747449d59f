package execution

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/BaSui01/shellagent/internal/ctxkeys"
	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- test doubles (function callback pattern) ---

type runCall struct {
	name string
	args []string
}

// recordingRunner 记录每次调用并交给 runFn 决定结果
type recordingRunner struct {
	calls []runCall
	runFn func(ctx context.Context, name string, args ...string) (*RunOutput, error)
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) (*RunOutput, error) {
	r.calls = append(r.calls, runCall{name: name, args: append([]string(nil), args...)})
	if r.runFn != nil {
		return r.runFn(ctx, name, args...)
	}
	return &RunOutput{}, nil
}

type testSandbox struct {
	id     string
	execFn func(ctx context.Context, args ...string) (string, string, error)
	seen   [][]string
}

func (s *testSandbox) ID() string { return s.id }

func (s *testSandbox) Exec(ctx context.Context, args ...string) (string, string, error) {
	s.seen = append(s.seen, append([]string(nil), args...))
	if s.execFn != nil {
		return s.execFn(ctx, args...)
	}
	return "", "", nil
}

type testExecutor struct {
	executeFn func(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error)
}

func (e *testExecutor) Name() string { return "test" }

func (e *testExecutor) Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
	return e.executeFn(ctx, call)
}

func intPtr(v int) *int { return &v }

func newDocker(t *testing.T, runner Runner) *DockerBackend {
	t.Helper()
	b, err := NewDockerBackend(DockerConfig{Container: "dev"}, runner, zap.NewNop())
	require.NoError(t, err)
	return b
}

// --- Mode / New ---

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeContainer},
		{"container", ModeContainer},
		{"Docker", ModeContainer},
		{"sandbox", ModeSandbox},
		{" modal ", ModeSandbox},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("vm")
	assert.True(t, types.IsErrorCode(err, types.ErrConfigInvalid))
}

func TestNew(t *testing.T) {
	t.Run("container", func(t *testing.T) {
		exec, err := New(Config{Mode: ModeContainer, Container: "dev"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "container", exec.Name())
		assert.IsType(t, &DockerBackend{}, exec)
	})

	t.Run("sandbox", func(t *testing.T) {
		exec, err := New(Config{Mode: ModeSandbox, Sandbox: "sb-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "sandbox", exec.Name())
		assert.IsType(t, &SandboxBackend{}, exec)
	})

	t.Run("missing container", func(t *testing.T) {
		_, err := New(Config{Mode: ModeContainer}, nil)
		assert.True(t, types.IsErrorCode(err, types.ErrConfigInvalid))
	})

	t.Run("missing sandbox", func(t *testing.T) {
		_, err := New(Config{Mode: ModeSandbox, Sandbox: "  "}, nil)
		assert.True(t, types.IsErrorCode(err, types.ErrConfigInvalid))
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(Config{Mode: "vm", Container: "dev"}, nil)
		assert.True(t, types.IsErrorCode(err, types.ErrConfigInvalid))
	})
}

// --- DockerBackend ---

func TestDockerBackend_ResolveWorkDir(t *testing.T) {
	b := newDocker(t, nil)

	assert.Equal(t, "/workspace", b.ResolveWorkDir(""))
	assert.Equal(t, "/workspace/sub", b.ResolveWorkDir("sub"))
	assert.Equal(t, "/workspace/a/b", b.ResolveWorkDir("a/./b/"))
	assert.Equal(t, "/tmp/x", b.ResolveWorkDir("/tmp/x"))

	custom, err := NewDockerBackend(DockerConfig{Container: "dev", RootDir: "/src"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/src/sub", custom.ResolveWorkDir("sub"))
}

func TestDockerBackend_BuildArgs(t *testing.T) {
	b := newDocker(t, nil)

	args := b.BuildArgs(types.ShellCall{
		Command:          []string{"ls", "-la"},
		WorkingDirectory: "sub",
		Env:              map[string]string{"ZED": "1", "ALPHA": "a=b"},
	})
	assert.Equal(t, []string{
		"exec", "-w", "/workspace/sub",
		"-e", "ALPHA=a=b",
		"-e", "ZED=1",
		"dev", "ls", "-la",
	}, args)

	assert.Equal(t, []string{"exec", "-w", "/workspace", "dev", "pwd"},
		b.BuildArgs(types.ShellCall{Command: []string{"pwd"}}))
}

func TestDockerBackend_Execute(t *testing.T) {
	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			return &RunOutput{Stdout: "a.txt\n", Stderr: "warn\n", ExitCode: 2}, nil
		},
	}
	b := newDocker(t, runner)

	res, err := b.Execute(context.Background(), types.ShellCall{
		CallID:  "call_1",
		Command: []string{"ls"},
		Env:     map[string]string{"FOO": "bar"},
	})
	require.NoError(t, err)

	// 非零退出码不是错误
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "a.txt\nwarn\n", res.Output())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "docker", runner.calls[0].name)
	assert.Contains(t, runner.calls[0].args, "FOO=bar")
}

func TestDockerBackend_Timeout(t *testing.T) {
	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "timeout_ms should bound the context")
			assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, time.Second)
			<-ctx.Done()
			return &RunOutput{ExitCode: -1}, ctx.Err()
		},
	}
	b := newDocker(t, runner)

	_, err := b.Execute(context.Background(), types.ShellCall{
		Command:   []string{"sleep", "10"},
		TimeoutMS: intPtr(20),
	})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrExecutionTimeout))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDockerBackend_NoTimeoutWithoutTimeoutMS(t *testing.T) {
	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			_, ok := ctx.Deadline()
			assert.False(t, ok)
			return &RunOutput{}, nil
		},
	}
	_, err := newDocker(t, runner).Execute(context.Background(), types.ShellCall{
		Command:   []string{"true"},
		TimeoutMS: intPtr(0),
	})
	require.NoError(t, err)
}

func TestDockerBackend_StartFailure(t *testing.T) {
	boom := errors.New("exec: \"docker\": executable file not found in $PATH")
	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			return nil, boom
		},
	}
	_, err := newDocker(t, runner).Execute(context.Background(), types.ShellCall{Command: []string{"ls"}})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrBackendFailure))
	assert.ErrorIs(t, err, boom)
}

func TestDockerBackend_ParentCancelIsBackendFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			return nil, ctx.Err()
		},
	}
	_, err := newDocker(t, runner).Execute(ctx, types.ShellCall{
		Command:   []string{"ls"},
		TimeoutMS: intPtr(1000),
	})
	assert.True(t, types.IsErrorCode(err, types.ErrBackendFailure))
	assert.ErrorIs(t, err, context.Canceled)
}

// --- SandboxBackend ---

func TestSandboxCommand(t *testing.T) {
	assert.Equal(t, []string{"ls", "-la"}, SandboxCommand(types.ShellCall{Command: []string{"ls", "-la"}}))

	assert.Equal(t, []string{"bash", "-c", "cd /workspace/sub && ls -la"},
		SandboxCommand(types.ShellCall{Command: []string{"ls", "-la"}, WorkingDirectory: "/workspace/sub"}))

	assert.Equal(t, []string{"bash", "-c", "cd 'my dir' && bash -lc 'echo '\\''hi'\\'' > f.txt'"},
		SandboxCommand(types.ShellCall{
			Command:          []string{"bash", "-lc", "echo 'hi' > f.txt"},
			WorkingDirectory: "my dir",
		}))
}

func TestSandboxCommand_TildeStaysExpandable(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"~", "cd ~ && pwd"},
		{"~/", "cd ~/ && pwd"},
		{"~/src/app", "cd ~/src/app && pwd"},
		{"~/my dir", "cd ~/'my dir' && pwd"},
		{"~other", "cd '~other' && pwd"},
		{"/tmp/~x", "cd '/tmp/~x' && pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got := SandboxCommand(types.ShellCall{Command: []string{"pwd"}, WorkingDirectory: tt.dir})
			assert.Equal(t, []string{"bash", "-c", tt.want}, got)
		})
	}
}

func TestSandboxBackend_Execute(t *testing.T) {
	sb := &testSandbox{
		id: "sb-1",
		execFn: func(ctx context.Context, args ...string) (string, string, error) {
			return "hello\n", "", nil
		},
	}
	core, logs := observer.New(zapcore.WarnLevel)
	b, err := NewSandboxBackend(sb, SandboxConfig{}, zap.New(core))
	require.NoError(t, err)

	res, err := b.Execute(context.Background(), types.ShellCall{
		CallID:    "call_1",
		Command:   []string{"echo", "hello"},
		Env:       map[string]string{"FOO": "bar"},
		TimeoutMS: intPtr(500),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Output())

	// env 不会出现在沙箱命令中
	require.Len(t, sb.seen, 1)
	assert.Equal(t, []string{"echo", "hello"}, sb.seen[0])
	for _, arg := range sb.seen[0] {
		assert.NotContains(t, arg, "FOO")
	}

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ignoring shell call options unsupported by sandbox", logs.All()[0].Message)
}

func TestSandboxBackend_ExitCodeAlwaysZero(t *testing.T) {
	sb := &testSandbox{
		id: "sb-1",
		execFn: func(ctx context.Context, args ...string) (string, string, error) {
			return "", "ls: cannot access 'nope'\n", nil
		},
	}
	b, err := NewSandboxBackend(sb, SandboxConfig{}, nil)
	require.NoError(t, err)

	res, err := b.Execute(context.Background(), types.ShellCall{Command: []string{"ls", "nope"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ls: cannot access 'nope'\n", res.Stderr)
}

func TestSandboxBackend_StrictOptions(t *testing.T) {
	sb := &testSandbox{id: "sb-1"}
	b, err := NewSandboxBackend(sb, SandboxConfig{StrictOptions: true}, nil)
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), types.ShellCall{
		Command: []string{"env"},
		Env:     map[string]string{"FOO": "bar"},
	})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUnsupportedOption))
	assert.Empty(t, sb.seen, "nothing should run when options are rejected")

	_, err = b.Execute(context.Background(), types.ShellCall{
		Command:   []string{"sleep", "1"},
		TimeoutMS: intPtr(100),
	})
	assert.True(t, types.IsErrorCode(err, types.ErrUnsupportedOption))

	_, err = b.Execute(context.Background(), types.ShellCall{Command: []string{"true"}})
	assert.NoError(t, err)
}

func TestSandboxBackend_ExecFailure(t *testing.T) {
	sb := &testSandbox{
		id: "sb-1",
		execFn: func(ctx context.Context, args ...string) (string, string, error) {
			return "", "", errors.New("sandbox terminated")
		},
	}
	b, err := NewSandboxBackend(sb, SandboxConfig{}, nil)
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), types.ShellCall{Command: []string{"ls"}})
	assert.True(t, types.IsErrorCode(err, types.ErrBackendFailure))
}

func TestNewSandboxBackend_NilSandbox(t *testing.T) {
	_, err := NewSandboxBackend(nil, SandboxConfig{}, nil)
	assert.True(t, types.IsErrorCode(err, types.ErrConfigInvalid))
}

func TestModalCLISandbox_Exec(t *testing.T) {
	runner := &recordingRunner{
		runFn: func(ctx context.Context, name string, args ...string) (*RunOutput, error) {
			return &RunOutput{Stdout: "out", Stderr: "err", ExitCode: 1}, nil
		},
	}
	sb, err := NewModalCLISandbox("sb-42", "", runner)
	require.NoError(t, err)
	assert.Equal(t, "sb-42", sb.ID())

	stdout, stderr, err := sb.Exec(context.Background(), "ls", "-la")
	require.NoError(t, err)
	assert.Equal(t, "out", stdout)
	assert.Equal(t, "err", stderr)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "modal", runner.calls[0].name)
	assert.Equal(t, []string{"container", "exec", "sb-42", "ls", "-la"}, runner.calls[0].args)
}

// --- OSRunner ---

func TestOSRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	out, err := OSRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Stderr)
	assert.Equal(t, 3, out.ExitCode)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = OSRunner{WaitDelay: time.Second}.Run(ctx, "sleep", "5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = OSRunner{}.Run(context.Background(), "definitely-not-a-real-binary-for-tests")
	assert.Error(t, err)
}

// --- Instrumented ---

func TestInstrumented(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	collector := metrics.NewCollector("exec_test", nil, zap.NewNop())

	results := []struct {
		res *types.ExecutionResult
		err error
	}{
		{&types.ExecutionResult{ExitCode: 0, Stdout: "ok"}, nil},
		{&types.ExecutionResult{ExitCode: 1}, nil},
		{nil, types.NewError(types.ErrExecutionTimeout, "slow")},
	}
	i := 0
	inner := &testExecutor{executeFn: func(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
		r := results[i]
		i++
		return r.res, r.err
	}}

	exec := NewInstrumented(inner, collector, tp.Tracer("test"), nil)
	assert.Equal(t, "test", exec.Name())

	res, err := exec.Execute(ctxkeys.WithRunID(context.Background(), "run-1"), types.ShellCall{CallID: "c1", Command: []string{"ls"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)

	_, err = exec.Execute(context.Background(), types.ShellCall{CallID: "c2", Command: []string{"false"}})
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), types.ShellCall{CallID: "c3", Command: []string{"sleep"}})
	assert.True(t, types.IsErrorCode(err, types.ErrExecutionTimeout))

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "shell.execute", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("agent.run_id", "run-1"))
	assert.Equal(t, codes.Error, spans[2].Status().Code)

	gathered, err := collector.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, gathered)
	count, err := testutil.GatherAndCount(collector.Gatherer(), "exec_test_shell_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInstrumented_NilResultIsBackendFailure(t *testing.T) {
	inner := &testExecutor{executeFn: func(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
		return nil, nil
	}}
	exec := NewInstrumented(inner, nil, nil, nil)

	res, err := exec.Execute(context.Background(), types.ShellCall{CallID: "c1", Command: []string{"ls"}})
	assert.Nil(t, res)
	assert.True(t, types.IsErrorCode(err, types.ErrBackendFailure))
}
