// =============================================================================
// ShellAgent 主入口
// =============================================================================
// 一次性运行：把请求交给模型，在容器或沙箱中执行模型提出的命令，
// 把最终回答打印到标准输出。
//
// 使用方法:
//
//	shellagent -c "list the files" --container dev
//	shellagent -f task.txt --use-sandbox --sandbox sb-123 -l file --log-file /logs/run.jsonl
//	shellagent version
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BaSui01/shellagent/agent/execution"
	"github.com/BaSui01/shellagent/config"
	"github.com/BaSui01/shellagent/llm"
	"github.com/BaSui01/shellagent/llm/providers"
	"github.com/BaSui01/shellagent/llm/providers/openai"
	"go.uber.org/zap"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app 汇集命令运行时依赖的外部协作者，测试中逐个替换
type app struct {
	stdout    io.Writer
	lookupEnv func(string) (string, bool)
	getwd     func() (string, error)

	// newProvider 按配置创建模型客户端
	newProvider func(cfg config.LLMConfig, model string, logger *zap.Logger) llm.ResponsesProvider
	// runner 执行 docker / modal 子进程
	runner execution.Runner
}

func defaultApp() *app {
	return &app{
		stdout:      os.Stdout,
		lookupEnv:   os.LookupEnv,
		getwd:       os.Getwd,
		newProvider: newOpenAIProvider,
		runner:      execution.OSRunner{},
	}
}

func newOpenAIProvider(cfg config.LLMConfig, model string, logger *zap.Logger) llm.ResponsesProvider {
	return openai.NewResponsesProvider(providers.OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: cfg.Timeout,
		},
		Organization: cfg.Organization,
	}, logger)
}

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(defaultApp())
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
