package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/shellagent/types"
)

type Role string

const (
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Item and content type discriminators used on the wire.
const (
	ItemTypeMessage              = "message"
	ItemTypeLocalShellCall       = "local_shell_call"
	ItemTypeLocalShellCallOutput = "local_shell_call_output"

	ContentTypeInputText  = "input_text"
	ContentTypeOutputText = "output_text"

	ToolTypeLocalShell = "local_shell"
)

// Tool declares a capability to the model.
type Tool struct {
	Type string `json:"type"`
}

// LocalShellTool is the single capability the agent exposes.
var LocalShellTool = Tool{Type: ToolTypeLocalShell}

// ContentBlock is one typed segment of a message.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// InputItem is either a role-tagged message or a shell call output.
// Use NewMessageInput / NewShellCallOutput to build one.
type InputItem struct {
	Type    string
	Role    Role
	Content []ContentBlock
	CallID  string
	Output  string
}

// NewMessageInput builds a role-tagged input message with a single text block.
func NewMessageInput(role Role, text string) InputItem {
	return InputItem{
		Type:    ItemTypeMessage,
		Role:    role,
		Content: []ContentBlock{{Type: ContentTypeInputText, Text: text}},
	}
}

// NewShellCallOutput builds the tool-result item for a shell call.
// callID must be the identifier the model supplied.
func NewShellCallOutput(callID, output string) InputItem {
	return InputItem{
		Type:   ItemTypeLocalShellCallOutput,
		CallID: callID,
		Output: output,
	}
}

// MarshalJSON keeps "output" present even when the command printed nothing.
func (i InputItem) MarshalJSON() ([]byte, error) {
	switch i.Type {
	case ItemTypeLocalShellCallOutput:
		return json.Marshal(struct {
			Type   string `json:"type"`
			CallID string `json:"call_id"`
			Output string `json:"output"`
		}{i.Type, i.CallID, i.Output})
	case ItemTypeMessage, "":
		return json.Marshal(struct {
			Role    Role           `json:"role"`
			Content []ContentBlock `json:"content"`
		}{i.Role, i.Content})
	default:
		return nil, fmt.Errorf("unsupported input item type %q", i.Type)
	}
}

// ResponseRequest is one call to the Responses endpoint.
type ResponseRequest struct {
	Model              string            `json:"model"`
	Tools              []Tool            `json:"tools,omitempty"`
	Input              []InputItem       `json:"input"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// ShellAction is the "exec" action carried by a local_shell_call item.
type ShellAction struct {
	Type             string            `json:"type"`
	Command          []string          `json:"command"`
	WorkingDirectory *string           `json:"working_directory,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	TimeoutMS        *int              `json:"timeout_ms,omitempty"`
	User             *string           `json:"user,omitempty"`
}

// OutputItem is one entry of Response.Output. Only the fields relevant to
// its Type are populated.
type OutputItem struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Status  string         `json:"status,omitempty"`
	Role    Role           `json:"role,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
	CallID  string         `json:"call_id,omitempty"`
	Action  *ShellAction   `json:"action,omitempty"`
}

// FirstText returns the first text segment of a message item.
func (o OutputItem) FirstText() (string, bool) {
	for _, c := range o.Content {
		if c.Type == ContentTypeOutputText || c.Type == "text" {
			return c.Text, true
		}
	}
	return "", false
}

// ShellCall converts a local_shell_call item to the executor's request type.
func (o OutputItem) ShellCall() (types.ShellCall, bool) {
	if o.Type != ItemTypeLocalShellCall || o.Action == nil {
		return types.ShellCall{}, false
	}
	call := types.ShellCall{
		ID:        o.ID,
		CallID:    o.CallID,
		Command:   o.Action.Command,
		Env:       o.Action.Env,
		TimeoutMS: o.Action.TimeoutMS,
	}
	if o.Action.WorkingDirectory != nil {
		call.WorkingDirectory = *o.Action.WorkingDirectory
	}
	return call, true
}

type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// Response is the model's reply to a ResponseRequest.
type Response struct {
	ID        string       `json:"id"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model,omitempty"`
	Status    string       `json:"status,omitempty"`
	Output    []OutputItem `json:"output"`
	Usage     *Usage       `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"-"`
}

// ShellCallItems returns every local_shell_call item in output order,
// including items whose action is missing.
func (r *Response) ShellCallItems() []OutputItem {
	var items []OutputItem
	for _, item := range r.Output {
		if item.Type == ItemTypeLocalShellCall {
			items = append(items, item)
		}
	}
	return items
}

// AssistantMessage returns the first assistant message item.
func (r *Response) AssistantMessage() (OutputItem, bool) {
	for _, item := range r.Output {
		if item.Type == ItemTypeMessage && item.Role == RoleAssistant {
			return item, true
		}
	}
	return OutputItem{}, false
}
