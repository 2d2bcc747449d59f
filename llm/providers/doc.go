// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 提供模型服务商适配的公共基础层。具体 Provider 子包
（目前为 openai）依赖本包完成错误映射、配置与 header 构建等共享逻辑。

# 核心类型

  - BaseProviderConfig：所有 Provider 共享的基础配置（APIKey、BaseURL、Model、Timeout）
  - OpenAIConfig：OpenAI Responses API 配置（Organization）

# 核心函数

  - MapHTTPError：将 HTTP 状态码映射为语义化的 llm.Error（含 Retryable 标记）
  - ReadErrorMessage：解析 JSON 错误体，失败时回退到原始文本
  - ChooseModel：按优先级选择模型（请求 > 默认 > 兜底）
*/
package providers
