package shelllog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BaSui01/shellagent/internal/ctxkeys"
	"github.com/BaSui01/shellagent/internal/tlsutil"
	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultHTTPTimeout = 30 * time.Second

// RunIDHeader carries the run ID when the context has one.
const RunIDHeader = "X-Shellagent-Run-Id"

// HTTPConfig configures HTTPLogger.
type HTTPConfig struct {
	EndpointURL string
	// Client overrides the default hardened client.
	Client  *http.Client
	Timeout time.Duration
	// RateLimitRPS caps requests per second; 0 disables the limiter.
	RateLimitRPS float64
}

// HTTPLogger POSTs each entry as JSON to an endpoint.
// Transport errors and non-2xx responses are returned to the caller.
type HTTPLogger struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPLogger creates an HTTP sink.
func NewHTTPLogger(cfg HTTPConfig, logger *zap.Logger) (*HTTPLogger, error) {
	if cfg.EndpointURL == "" {
		return nil, types.NewConfigError("http logger requires an endpoint url")
	}
	if cfg.RateLimitRPS < 0 {
		return nil, types.NewConfigError("http logger rate limit must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = tlsutil.SecureHTTPClient(timeout)
	}

	h := &HTTPLogger{
		url:    cfg.EndpointURL,
		client: client,
		logger: logger.With(zap.String("component", "http_logger"), zap.String("endpoint", cfg.EndpointURL)),
	}
	if cfg.RateLimitRPS > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	return h, nil
}

// Log implements Logger.
func (h *HTTPLogger) Log(ctx context.Context, entry types.LogEntry) error {
	body, err := entry.Encode()
	if err != nil {
		return types.NewError(types.ErrLogSinkFailure, "encode log entry").WithCause(err)
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return types.NewError(types.ErrLogSinkFailure, "wait for log rate limiter").WithCause(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return types.NewError(types.ErrLogSinkFailure, "build log request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if runID, ok := ctxkeys.RunID(ctx); ok {
		req.Header.Set(RunIDHeader, runID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return types.Errorf(types.ErrLogSinkFailure, "post log entry to %s", h.url).WithCause(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Warn("log endpoint rejected entry", zap.Int("status", resp.StatusCode))
		return types.Errorf(types.ErrLogSinkFailure, "log endpoint returned %s", resp.Status).
			WithCause(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
