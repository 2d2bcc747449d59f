package shelllog

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// Logger receives the structured record of a run, one entry per event.
type Logger interface {
	Log(ctx context.Context, entry types.LogEntry) error
}

// Kind identifies a sink variant.
type Kind string

const (
	KindConsole Kind = "console"
	KindDiscard Kind = "discard"
	KindFile    Kind = "file"
	KindHTTP    Kind = "http"
	KindRedis   Kind = "redis"
)

// ParseKind maps a user-supplied sink name to a Kind. The empty string
// means "not chosen" and is returned as is so Resolve can pick a default.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "console", "stdout":
		return KindConsole, nil
	case "discard", "null", "none", "noop":
		return KindDiscard, nil
	case "file":
		return KindFile, nil
	case "http":
		return KindHTTP, nil
	case "redis":
		return KindRedis, nil
	default:
		return "", types.NewConfigError("invalid logger %q", s)
	}
}

// Resolve applies the default selection: an explicit kind wins, an
// unattended run logs to a file, anything else logs to the console.
func Resolve(kind Kind, unattended bool) Kind {
	if kind != "" {
		return kind
	}
	if unattended {
		return KindFile
	}
	return KindConsole
}

// Config 日志 sink 配置
type Config struct {
	// Kind 为空时由 Resolve 按 Unattended 决定
	Kind       Kind
	Unattended bool

	// FilePath file sink 必填
	FilePath string
	// EndpointURL http sink 必填
	EndpointURL string

	// Writer console sink 输出，默认 os.Stdout
	Writer io.Writer
	// Fallback file sink 写失败时的输出，默认 os.Stdout
	Fallback io.Writer

	// HTTPClient http sink 客户端，为空时按 HTTPTimeout 创建
	HTTPClient  *http.Client
	HTTPTimeout time.Duration
	// RateLimitRPS http sink 每秒请求上限，0 表示不限制
	RateLimitRPS float64

	// Redis redis sink 配置，Addr 必填
	Redis RedisConfig

	// Logger 诊断日志
	Logger *zap.Logger
}

// New builds the sink selected by cfg.
func New(cfg Config) (Logger, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch kind := Resolve(cfg.Kind, cfg.Unattended); kind {
	case KindConsole:
		return NewConsoleLogger(cfg.Writer), nil

	case KindDiscard:
		return Discard{}, nil

	case KindFile:
		if strings.TrimSpace(cfg.FilePath) == "" {
			return nil, types.NewConfigError("file logger requires a file path")
		}
		return NewFileLogger(cfg.FilePath, cfg.Fallback, logger), nil

	case KindHTTP:
		if strings.TrimSpace(cfg.EndpointURL) == "" {
			return nil, types.NewConfigError("http logger requires an endpoint url")
		}
		h, err := NewHTTPLogger(HTTPConfig{
			EndpointURL:  cfg.EndpointURL,
			Client:       cfg.HTTPClient,
			Timeout:      cfg.HTTPTimeout,
			RateLimitRPS: cfg.RateLimitRPS,
		}, logger)
		if err != nil {
			return nil, err
		}
		return h, nil

	case KindRedis:
		r, err := NewRedisLogger(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, types.NewConfigError("invalid logger %q", kind)
	}
}

// Discard drops every entry.
type Discard struct{}

// Log implements Logger.
func (Discard) Log(context.Context, types.LogEntry) error { return nil }

func defaultWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
