// =============================================================================
// 📦 测试数据工厂 - Responses API 测试数据
// =============================================================================
// 提供预定义的模型响应，用于驱动循环测试
// =============================================================================
package fixtures

import (
	"time"

	"github.com/BaSui01/shellagent/llm"
)

// =============================================================================
// 🎯 OutputItem 工厂
// =============================================================================

// ShellCallItem 返回一个 local_shell_call 输出项
func ShellCallItem(callID string, command ...string) llm.OutputItem {
	return llm.OutputItem{
		Type:   llm.ItemTypeLocalShellCall,
		ID:     "lsh_" + callID,
		Status: "completed",
		CallID: callID,
		Action: &llm.ShellAction{Type: "exec", Command: command},
	}
}

// ShellCallItemIn 返回一个带工作目录的 local_shell_call 输出项
func ShellCallItemIn(callID, workdir string, command ...string) llm.OutputItem {
	item := ShellCallItem(callID, command...)
	item.Action.WorkingDirectory = &workdir
	return item
}

// MessageItem 返回一个 assistant 消息输出项
func MessageItem(text string) llm.OutputItem {
	return llm.OutputItem{
		Type:   llm.ItemTypeMessage,
		ID:     "msg_1",
		Status: "completed",
		Role:   llm.RoleAssistant,
		Content: []llm.ContentBlock{
			{Type: llm.ContentTypeOutputText, Text: text},
		},
	}
}

// =============================================================================
// 🎯 Response 工厂
// =============================================================================

// Response 返回带给定输出项的响应
func Response(id string, items ...llm.OutputItem) *llm.Response {
	return &llm.Response{
		ID:        id,
		Provider:  "mock",
		Model:     "codex-mini-latest",
		Status:    "completed",
		Output:    items,
		Usage:     &llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		CreatedAt: time.Now(),
	}
}

// ShellCallResponse 返回只含一个 shell 调用的响应
func ShellCallResponse(id, callID string, command ...string) *llm.Response {
	return Response(id, ShellCallItem(callID, command...))
}

// FinalResponse 返回只含 assistant 消息的响应
func FinalResponse(id, text string) *llm.Response {
	return Response(id, MessageItem(text))
}
