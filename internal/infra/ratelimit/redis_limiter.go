package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const luaScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens
	local elapsedSeconds = math.max(0, now - lastRefill) / 1000000000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', currentTokens, 'last_refill', now)
	redis.call('EXPIRE', key, ttl)
	return allowed
`

// RedisTokenBucket 分散式版本，多個 instance 共用同一個 bucket
type RedisTokenBucket struct {
	LimiterConfig
	client RedisClient
	prefix string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRedisTokenBucket(client RedisClient, config *LimiterConfig, prefix string, logger *zerolog.Logger) *RedisTokenBucket {
	rb := &RedisTokenBucket{
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
	if config != nil {
		rb.LimiterConfig = config.normalize()
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	return rb
}

// Allow redis 無法使用時放行，避免整個結帳流程因限流元件故障而停擺
func (r *RedisTokenBucket) Allow(ctx context.Context, key string) bool {
	result, err := r.client.Eval(
		ctx,
		luaScript,
		[]string{r.prefix + key},
		r.Capacity,
		r.RatePS,
		r.now().UnixNano(),
		r.ttlSeconds(),
	).Int64()
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true
	}
	return result == 1
}

// ttlSeconds bucket 從空補滿所需時間，至少 1 秒
func (r *RedisTokenBucket) ttlSeconds() int64 {
	return int64(math.Max(1, math.Ceil(float64(r.Capacity)/r.RatePS)))
}
