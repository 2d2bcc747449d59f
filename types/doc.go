// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 ShellAgent 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent/coding、
agent/execution、agent/shelllog 与 llm 等上层模块提供统一的类型契约，
以避免循环依赖。

# 核心类型

  - ShellCall：模型下发的一次 shell 调用（command / working_directory / env / timeout_ms）
  - ExecutionResult：一次命令执行的退出码与 stdout / stderr
  - LogEntry：追加写入的日志条目，命令条目或最终回答条目二选一
  - Error / ErrorCode：结构化错误体系，支持 errors.Is 按错误码匹配

# 主要能力

  - 错误工具链：NewError / WithCause / IsErrorCode / GetErrorCode
  - 日志条目构造：NewCommandEntry / NewFinalResponseEntry
*/
package types
