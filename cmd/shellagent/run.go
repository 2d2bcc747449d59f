package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/agent/coding"
	"github.com/BaSui01/shellagent/agent/execution"
	"github.com/BaSui01/shellagent/agent/shelllog"
	"github.com/BaSui01/shellagent/config"
	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/internal/telemetry"
	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// run 执行一次完整的代理运行
func (a *app) run(ctx context.Context, changed func(string) bool, opts *options) error {
	request, err := a.readRequest(opts)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(opts, changed)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		otelProviders = &telemetry.Providers{}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)
		defer a.flushMetrics(cfg.Metrics, collector, logger)
	}

	agent, sink, err := a.buildAgent(cfg, collector, otelProviders, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close log sink", zap.Error(err))
		}
	}()

	answer, err := agent.Run(ctx, request)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, answer)
	return err
}

func (a *app) buildAgent(cfg *config.Config, collector *metrics.Collector, otelProviders *telemetry.Providers, logger *zap.Logger) (*coding.Agent, io.Closer, error) {
	mode, err := execution.ParseMode(cfg.Executor.Mode)
	if err != nil {
		return nil, nil, err
	}
	executor, err := execution.New(execution.Config{
		Mode:          mode,
		Container:     cfg.Executor.Container,
		Sandbox:       cfg.Executor.Sandbox,
		RootDir:       cfg.Executor.RootDir,
		DockerBinary:  cfg.Executor.DockerBinary,
		ModalBinary:   cfg.Executor.ModalBinary,
		StrictOptions: cfg.Executor.StrictOptions,
		Runner:        a.runner,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	executor = execution.NewInstrumented(executor, collector, otelProviders.Tracer(), logger)

	kind, err := shelllog.ParseKind(cfg.Logger.Kind)
	if err != nil {
		return nil, nil, err
	}
	unattended := a.isUnattended(cfg.Logger)
	kind = shelllog.Resolve(kind, unattended)
	sink, err := shelllog.New(shelllog.Config{
		Kind:         kind,
		Unattended:   unattended,
		FilePath:     cfg.Logger.FilePath,
		EndpointURL:  cfg.Logger.EndpointURL,
		Writer:       a.stdout,
		Fallback:     a.stdout,
		HTTPTimeout:  cfg.Logger.HTTPTimeout,
		RateLimitRPS: cfg.Logger.RateLimitRPS,
		Redis: shelllog.RedisConfig{
			Addr:       cfg.Logger.Redis.Addr,
			Password:   cfg.Logger.Redis.Password,
			DB:         cfg.Logger.Redis.DB,
			Key:        cfg.Logger.Redis.Key,
			MaxRetries: cfg.Logger.Redis.MaxRetries,
			TTL:        cfg.Logger.Redis.TTL,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}

	policy, err := coding.ParseMultipleCallPolicy(cfg.Agent.MultipleCallPolicy)
	if err != nil {
		return nil, nil, err
	}

	closer := io.Closer(nopCloser{})
	if c, ok := sink.(io.Closer); ok {
		closer = c
	}

	provider := a.newProvider(cfg.LLM, cfg.Agent.Model, logger)
	agent, err := coding.New(provider, executor, shelllog.NewInstrumented(sink, kind, collector),
		coding.WithModel(cfg.Agent.Model),
		coding.WithSystemPrompt(cfg.Agent.SystemPrompt),
		coding.WithMaxTurns(cfg.Agent.MaxTurns),
		coding.WithMultipleCallPolicy(policy),
		coding.WithZapLogger(logger),
		coding.WithMetrics(collector),
		coding.WithTracer(otelProviders.Tracer()),
		coding.WithMeter(otelProviders.Meter()),
	)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return agent, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// isUnattended 强制开关或约定的环境变量存在即为无人值守
func (a *app) isUnattended(cfg config.LoggerConfig) bool {
	if cfg.Unattended {
		return true
	}
	if cfg.UnattendedEnv == "" {
		return false
	}
	_, ok := a.lookupEnv(cfg.UnattendedEnv)
	return ok
}

// loadConfig 加载配置并以命令行参数覆盖
func (a *app) loadConfig(opts *options, changed func(string) bool) (*config.Config, error) {
	loader := config.NewLoader().
		WithEnvLookup(a.lookupEnv).
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if opts.configPath != "" {
		loader = loader.WithConfigPath(opts.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, types.NewConfigError("load config").WithCause(err)
	}
	applyFlags(cfg, opts, changed)
	if err := cfg.Validate(); err != nil {
		return nil, types.NewConfigError("invalid flags").WithCause(err)
	}
	return cfg, nil
}

// applyFlags 只覆盖命令行显式给出的参数
func applyFlags(cfg *config.Config, opts *options, changed func(string) bool) {
	if changed("model") {
		cfg.Agent.Model = opts.model
	}
	if changed("max-turns") {
		cfg.Agent.MaxTurns = opts.maxTurns
	}
	if changed("container") {
		cfg.Executor.Container = opts.container
	}
	if changed("sandbox") {
		cfg.Executor.Sandbox = opts.sandbox
	}
	if changed("use-sandbox") {
		if opts.useSandbox {
			cfg.Executor.Mode = string(execution.ModeSandbox)
		} else {
			cfg.Executor.Mode = string(execution.ModeContainer)
		}
	}
	if changed("logger") {
		cfg.Logger.Kind = opts.logger
	}
	if changed("log-file") {
		cfg.Logger.FilePath = opts.logFile
	}
	if changed("endpoint-url") {
		cfg.Logger.EndpointURL = opts.endpointURL
	}
	if changed("redis-addr") {
		cfg.Logger.Redis.Addr = opts.redisAddr
	}
	if changed("unattended") {
		cfg.Logger.Unattended = opts.unattended
	}
}

// readRequest 返回去掉首尾空白的请求文本
func (a *app) readRequest(opts *options) (string, error) {
	if opts.file == "" {
		request := strings.TrimSpace(opts.command)
		if request == "" {
			return "", types.NewConfigError("command is empty")
		}
		return request, nil
	}

	path := opts.file
	if !filepath.IsAbs(path) {
		wd, err := a.getwd()
		if err != nil {
			return "", types.NewConfigError("resolve command file %s", path).WithCause(err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.NewConfigError("read command file %s", path).WithCause(err)
	}
	request := strings.TrimSpace(string(data))
	if request == "" {
		return "", types.NewConfigError("command file %s is empty", path)
	}
	return request, nil
}

// flushMetrics 一次性运行没有抓取窗口，结束时写出 textfile
func (a *app) flushMetrics(cfg config.MetricsConfig, collector *metrics.Collector, logger *zap.Logger) {
	if cfg.TextfilePath == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.TextfilePath, collector.Gatherer()); err != nil {
		logger.Warn("failed to write metrics textfile",
			zap.String("path", cfg.TextfilePath),
			zap.Error(err),
		)
	}
}
