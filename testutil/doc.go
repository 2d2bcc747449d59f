// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 ShellAgent 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertLogEntriesEqual / AssertJSONEqual
  - 数据工具: MustJSON / MustParseJSON / ReadLogFile

# 子包

  - testutil/mocks: MockProvider（按顺序返回预置响应的 Responses Provider）、
    MockExecutor（记录命令的执行后端）、RecordingLogger（保存运行记录）
  - testutil/fixtures: Responses API 输出项与响应工厂

# 使用示例

	provider := mocks.NewMockProvider(
		fixtures.ShellCallResponse("resp_1", "call_1", "ls"),
		fixtures.FinalResponse("resp_2", "Done."),
	)
*/
package testutil
