package shelllog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/internal/ctxkeys"
	"github.com/BaSui01/shellagent/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 Redis 列表 sink
// =============================================================================

// DefaultRedisKey 未配置 key 时使用的列表名
const DefaultRedisKey = "shellagent:log:{run_id}"

// RedisConfig Redis sink 配置
type RedisConfig struct {
	// Redis 地址
	Addr string
	// 密码
	Password string
	// 数据库编号
	DB int
	// 列表 key，支持 {run_id} 占位符
	Key string
	// 最大重试次数
	MaxRetries int
	// 条目保留时间，0 表示不过期
	TTL time.Duration
}

// RedisLogger RPUSHes each entry onto a Redis list so the lines of one run
// can be read back in order with LRANGE.
type RedisLogger struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLogger 创建 Redis sink 并检查连接
func NewRedisLogger(cfg RedisConfig, logger *zap.Logger) (*RedisLogger, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, types.NewConfigError("redis logger requires an address")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, types.Errorf(types.ErrLogSinkFailure, "connect to redis at %s", cfg.Addr).WithCause(err)
	}

	logger.Info("redis logger initialized",
		zap.String("addr", cfg.Addr),
		zap.String("key", key),
	)
	return &RedisLogger{
		client: client,
		key:    key,
		ttl:    cfg.TTL,
		logger: logger.With(zap.String("component", "redis_logger")),
	}, nil
}

// Key returns the list key for ctx.
func (r *RedisLogger) Key(ctx context.Context) string {
	return expandKey(ctx, r.key)
}

// Log implements Logger.
func (r *RedisLogger) Log(ctx context.Context, entry types.LogEntry) error {
	line, err := entry.Encode()
	if err != nil {
		return types.NewError(types.ErrLogSinkFailure, "encode log entry").WithCause(err)
	}

	key := r.Key(ctx)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, line)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("failed to push log entry", zap.String("key", key), zap.Error(err))
		return types.Errorf(types.ErrLogSinkFailure, "push log entry to %s", key).WithCause(err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (r *RedisLogger) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// expandKey 替换 {run_id} 占位符；context 中没有 RunID 时使用 "unknown"
func expandKey(ctx context.Context, key string) string {
	if !strings.Contains(key, "{run_id}") {
		return key
	}
	runID, ok := ctxkeys.RunID(ctx)
	if !ok {
		runID = "unknown"
	}
	return strings.ReplaceAll(key, "{run_id}", runID)
}
