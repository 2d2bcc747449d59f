// =============================================================================
// 📦 ShellAgent 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("shellagent.yaml").
//	    WithEnvPrefix("SHELLAGENT").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 ShellAgent 的完整配置结构
type Config struct {
	// Agent 对话驱动配置
	Agent AgentConfig `yaml:"agent" env:"AGENT"`

	// LLM 模型服务配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Executor 命令执行后端配置
	Executor ExecutorConfig `yaml:"executor" env:"EXECUTOR"`

	// Logger 运行记录（命令与最终回答）的输出配置
	Logger LoggerConfig `yaml:"logger" env:"LOGGER"`

	// Log 诊断日志配置（zap）
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// AgentConfig 对话驱动配置
type AgentConfig struct {
	// 模型标识
	Model string `yaml:"model" env:"MODEL"`
	// 系统指令
	SystemPrompt string `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
	// 最大 shell 调用轮数，0 表示不限制
	MaxTurns int `yaml:"max_turns" env:"MAX_TURNS"`
	// 单轮多个 shell 调用的处理策略: first_only, reject
	MultipleCallPolicy string `yaml:"multiple_call_policy" env:"MULTIPLE_CALL_POLICY"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// API Key；为空时回退到 OPENAI_API_KEY
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 组织 ID（可选）
	Organization string `yaml:"organization" env:"ORGANIZATION"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ExecutorConfig 执行后端配置
type ExecutorConfig struct {
	// 后端模式: container, sandbox
	Mode string `yaml:"mode" env:"MODE"`
	// 容器名称或 ID（container 模式）
	Container string `yaml:"container" env:"CONTAINER"`
	// 沙箱 ID（sandbox 模式）
	Sandbox string `yaml:"sandbox" env:"SANDBOX"`
	// 容器内工作目录根
	RootDir string `yaml:"root_dir" env:"ROOT_DIR"`
	// docker 可执行文件
	DockerBinary string `yaml:"docker_binary" env:"DOCKER_BINARY"`
	// modal 可执行文件
	ModalBinary string `yaml:"modal_binary" env:"MODAL_BINARY"`
	// 沙箱后端遇到 env/timeout 时报错而不是忽略
	StrictOptions bool `yaml:"strict_options" env:"STRICT_OPTIONS"`
}

// LoggerConfig 运行记录输出配置
type LoggerConfig struct {
	// 输出类型: console, discard, file, http, redis；为空时按运行环境决定
	Kind string `yaml:"kind" env:"KIND"`
	// 日志文件路径（file）
	FilePath string `yaml:"file_path" env:"FILE_PATH"`
	// HTTP 端点（http）
	EndpointURL string `yaml:"endpoint_url" env:"ENDPOINT_URL"`
	// 强制按无人值守环境处理
	Unattended bool `yaml:"unattended" env:"UNATTENDED"`
	// 存在即视为无人值守的环境变量名
	UnattendedEnv string `yaml:"unattended_env" env:"UNATTENDED_ENV"`
	// HTTP 请求超时
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
	// HTTP 每秒请求数上限，0 表示不限制
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// Redis sink 配置（redis）
	Redis RedisLogConfig `yaml:"redis" env:"REDIS"`
}

// RedisLogConfig Redis 列表 sink 配置
type RedisLogConfig struct {
	// Redis 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 列表 key，支持 {run_id} 占位符
	Key string `yaml:"key" env:"KEY"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 列表过期时间，0 表示不过期
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标 namespace
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 运行结束时写出的 textfile 路径
	TextfilePath string `yaml:"textfile_path" env:"TEXTFILE_PATH"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "SHELLAGENT",
		lookupEnv:  os.LookupEnv,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvLookup 替换环境变量读取函数，测试中用于隔离进程环境
func (l *Loader) WithEnvLookup(fn func(string) (string, bool)) *Loader {
	if fn != nil {
		l.lookupEnv = fn
	}
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// OPENAI_API_KEY 作为最后的回退
	if cfg.LLM.APIKey == "" {
		if key, ok := l.lookupEnv("OPENAI_API_KEY"); ok {
			cfg.LLM.APIKey = strings.TrimSpace(key)
		}
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := l.lookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Agent.MaxTurns < 0 {
		errs = append(errs, "agent.max_turns must not be negative")
	}
	switch c.Agent.MultipleCallPolicy {
	case "", "first_only", "reject":
	default:
		errs = append(errs, fmt.Sprintf("unknown agent.multiple_call_policy %q", c.Agent.MultipleCallPolicy))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}
	if c.Logger.RateLimitRPS < 0 {
		errs = append(errs, "logger.rate_limit_rps must not be negative")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
