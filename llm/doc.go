// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 定义 Responses 协议的请求/响应模型与 Provider 抽象。

# 概述

驱动循环只依赖 [ResponsesProvider]：每轮发送一个 [ResponseRequest]，
读取 [Response] 的输出项。续写轮次通过 PreviousResponseID 引用上一轮，
而不是重发完整历史。

# 核心类型

  - [InputItem]：角色消息（developer / user）或 local_shell_call_output 工具结果
  - [OutputItem]：message 或 local_shell_call 输出项
  - [ShellAction]：local_shell_call 携带的 exec 动作
  - [Error]：统一错误，含错误码、HTTP 状态与 Retryable 标记

# 辅助

  - [Response.ShellCalls] 按输出顺序提取全部 shell 调用
  - [Response.AssistantMessage] 定位第一条 assistant 消息
  - [OutputItem.FirstText] 取消息的第一个文本段
*/
package llm
