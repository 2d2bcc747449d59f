package llm

import (
	"context"
	"encoding/json"
)

type credentialOverrideKey struct{}

// CredentialOverride 用于在单次运行内覆盖 Provider 的 API Key。
// 该结构仅通过 context 传递，序列化时总是脱敏。
type CredentialOverride struct {
	APIKey string
}

func (c CredentialOverride) String() string {
	if c.APIKey == "" {
		return "CredentialOverride{}"
	}
	return "CredentialOverride{APIKey:***}"
}

func (c CredentialOverride) MarshalJSON() ([]byte, error) {
	out := struct {
		APIKey string `json:"api_key,omitempty"`
	}{}
	if c.APIKey != "" {
		out.APIKey = "***"
	}
	return json.Marshal(out)
}

// WithCredentialOverride 在 ctx 中写入凭据覆盖信息。空 APIKey 不会改变 ctx。
func WithCredentialOverride(ctx context.Context, c CredentialOverride) context.Context {
	if c.APIKey == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialOverrideKey{}, c)
}

// CredentialOverrideFromContext 从 ctx 读取凭据覆盖信息。
func CredentialOverrideFromContext(ctx context.Context) (CredentialOverride, bool) {
	c, ok := ctx.Value(credentialOverrideKey{}).(CredentialOverride)
	return c, ok
}
