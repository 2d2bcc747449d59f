// =============================================================================
// 📦 ShellAgent 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Agent:     DefaultAgentConfig(),
		LLM:       DefaultLLMConfig(),
		Executor:  DefaultExecutorConfig(),
		Logger:    DefaultLoggerConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultAgentConfig 返回默认 Agent 配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Model:              "codex-mini-latest",
		SystemPrompt:       "You are a helpful assistant that can write code and execute shell commands.",
		MaxTurns:           0,
		MultipleCallPolicy: "first_only",
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL: "https://api.openai.com",
		Timeout: 10 * time.Minute,
	}
}

// DefaultExecutorConfig 返回默认执行后端配置
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Mode:         "container",
		RootDir:      "/workspace",
		DockerBinary: "docker",
		ModalBinary:  "modal",
	}
}

// DefaultLoggerConfig 返回默认运行记录配置
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		UnattendedEnv: "MODAL_SANDBOX_ID",
		HTTPTimeout:   30 * time.Second,
		Redis: RedisLogConfig{
			Addr:       "localhost:6379",
			Key:        "shellagent:log:{run_id}",
			MaxRetries: 3,
		},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "shellagent",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "shellagent",
	}
}
