package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BaSui01/shellagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputItem_MarshalShapes(t *testing.T) {
	msg, err := json.Marshal(NewMessageInput(RoleDeveloper, "be helpful"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"developer","content":[{"type":"input_text","text":"be helpful"}]}`, string(msg))

	out, err := json.Marshal(NewShellCallOutput("call_1", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"local_shell_call_output","call_id":"call_1","output":""}`, string(out))

	_, err = json.Marshal(InputItem{Type: "bogus"})
	assert.Error(t, err)
}

func TestResponse_Decode(t *testing.T) {
	raw := `{
	  "id": "resp_1",
	  "output": [
	    {"type": "reasoning", "id": "rs_1"},
	    {"type": "local_shell_call", "id": "lsh_1", "call_id": "call_a", "status": "completed",
	     "action": {"type": "exec", "command": ["ls", "-la"], "working_directory": "sub",
	                "env": {"X": "1"}, "timeout_ms": 2000}},
	    {"type": "local_shell_call", "id": "lsh_2", "call_id": "call_b",
	     "action": {"type": "exec", "command": ["pwd"]}},
	    {"type": "message", "role": "assistant", "content": [{"type": "output_text", "text": "hi"}]}
	  ]
	}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	items := resp.ShellCallItems()
	require.Len(t, items, 2)
	calls := make([]types.ShellCall, 0, len(items))
	for _, item := range items {
		call, ok := item.ShellCall()
		require.True(t, ok)
		calls = append(calls, call)
	}
	assert.Equal(t, "call_a", calls[0].CallID)
	assert.Equal(t, "lsh_1", calls[0].ID)
	assert.Equal(t, []string{"ls", "-la"}, calls[0].Command)
	assert.Equal(t, "sub", calls[0].WorkingDirectory)
	assert.Equal(t, map[string]string{"X": "1"}, calls[0].Env)
	require.NotNil(t, calls[0].TimeoutMS)
	assert.Equal(t, 2000, *calls[0].TimeoutMS)

	assert.Equal(t, "", calls[1].WorkingDirectory)
	assert.Nil(t, calls[1].TimeoutMS)

	msg, ok := resp.AssistantMessage()
	require.True(t, ok)
	text, ok := msg.FirstText()
	require.True(t, ok)
	assert.Equal(t, "hi", text)
}

func TestResponse_NoAssistantMessage(t *testing.T) {
	resp := &Response{Output: []OutputItem{{Type: ItemTypeMessage, Role: RoleUser}}}
	_, ok := resp.AssistantMessage()
	assert.False(t, ok)
	assert.Empty(t, resp.ShellCallItems())

	resp.Output = append(resp.Output, OutputItem{Type: ItemTypeLocalShellCall, CallID: "call_x"})
	items := resp.ShellCallItems()
	require.Len(t, items, 1)
	_, ok = items[0].ShellCall()
	assert.False(t, ok)
}

func TestOutputItem_FirstTextSkipsNonText(t *testing.T) {
	item := OutputItem{Content: []ContentBlock{{Type: "refusal"}, {Type: ContentTypeOutputText, Text: "a"}, {Type: ContentTypeOutputText, Text: "b"}}}
	text, ok := item.FirstText()
	require.True(t, ok)
	assert.Equal(t, "a", text)

	_, ok = OutputItem{}.FirstText()
	assert.False(t, ok)
}

func TestCredentialOverride(t *testing.T) {
	ctx := WithCredentialOverride(context.Background(), CredentialOverride{})
	_, ok := CredentialOverrideFromContext(ctx)
	assert.False(t, ok)

	ctx = WithCredentialOverride(ctx, CredentialOverride{APIKey: "sk-secret"})
	c, ok := CredentialOverrideFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "sk-secret", c.APIKey)
	assert.NotContains(t, c.String(), "sk-secret")

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
}
