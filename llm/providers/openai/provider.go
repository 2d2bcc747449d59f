package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/internal/tlsutil"
	"github.com/BaSui01/shellagent/llm"
	"github.com/BaSui01/shellagent/llm/providers"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is the model tuned for the local_shell tool.
	DefaultModel = "codex-mini-latest"

	providerName = "openai"
)

// ResponsesProvider 实现 OpenAI Responses API (/v1/responses).
type ResponsesProvider struct {
	cfg    providers.OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewResponsesProvider 创建新的 OpenAI Responses API 提供者实例.
func NewResponsesProvider(cfg providers.OpenAIConfig, logger *zap.Logger) *ResponsesProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &ResponsesProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "openai_responses")),
	}
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func (p *ResponsesProvider) WithHTTPClient(c *http.Client) *ResponsesProvider {
	p.client = c
	return p
}

// Name returns the provider name.
func (p *ResponsesProvider) Name() string { return providerName }

type responsesRequest struct {
	Model              string            `json:"model"`
	Tools              []llm.Tool        `json:"tools,omitempty"`
	Input              []llm.InputItem   `json:"input"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type responsesResponse struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	CreatedAt int64            `json:"created_at"`
	Status    string           `json:"status"`
	Model     string           `json:"model"`
	Output    []llm.OutputItem `json:"output"`
	Usage     *llm.Usage       `json:"usage,omitempty"`
}

func (p *ResponsesProvider) buildHeaders(req *http.Request, apiKey string) {
	providers.BearerTokenHeaders(req, apiKey)
	if p.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
}

// CreateResponse sends one request to /v1/responses.
func (p *ResponsesProvider) CreateResponse(ctx context.Context, req *llm.ResponseRequest) (*llm.Response, error) {
	if req == nil || len(req.Input) == 0 {
		return nil, &llm.Error{
			Code: llm.ErrInvalidRequest, Message: "responses request has no input",
			HTTPStatus: http.StatusBadRequest, Provider: p.Name(),
		}
	}

	apiKey := p.cfg.APIKey
	if c, ok := llm.CredentialOverrideFromContext(ctx); ok {
		if strings.TrimSpace(c.APIKey) != "" {
			apiKey = strings.TrimSpace(c.APIKey)
		}
	}

	body := responsesRequest{
		Model:              providers.ChooseModel(req, p.cfg.Model, DefaultModel),
		Tools:              req.Tools,
		Input:              req.Input,
		PreviousResponseID: req.PreviousResponseID,
		Metadata:           req.Metadata,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responses api request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/responses", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, apiKey)

	p.logger.Debug("sending responses request",
		zap.String("model", body.Model),
		zap.Int("input_items", len(body.Input)),
		zap.String("previous_response_id", body.PreviousResponseID),
	)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		code := llm.ErrUpstreamError
		if ctx.Err() == context.DeadlineExceeded {
			code = llm.ErrUpstreamTimeout
		}
		return nil, &llm.Error{
			Code: code, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var rr responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: fmt.Sprintf("decode responses api body: %v", err),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	return toResponse(rr, p.Name()), nil
}

func toResponse(rr responsesResponse, provider string) *llm.Response {
	out := &llm.Response{
		ID:       rr.ID,
		Provider: provider,
		Model:    rr.Model,
		Status:   rr.Status,
		Output:   rr.Output,
		Usage:    rr.Usage,
	}
	if rr.CreatedAt != 0 {
		out.CreatedAt = time.Unix(rr.CreatedAt, 0)
	}
	return out
}
