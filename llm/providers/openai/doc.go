// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 openai 提供 OpenAI Responses API (/v1/responses) 的 Provider 实现，
声明 local_shell 工具并通过 previous_response_id 续写同一会话。

# 核心类型

  - ResponsesProvider：实现 llm.ResponsesProvider
  - DefaultModel：默认模型 codex-mini-latest

# 支持能力

  - Bearer Token 认证与 OpenAI-Organization header
  - 通过 context 覆盖单次运行的 API Key（llm.WithCredentialOverride）
  - HTTP 错误到 llm.Error 的统一映射；不做重试
*/
package openai
