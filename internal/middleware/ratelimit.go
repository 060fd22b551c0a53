package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/config"
)

// takeScript refills the bucket continuously from the elapsed time and
// then tries to take a token. The bucket is a hash {level, at}. Returns
// {granted, floor(level), wait_ms}.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) -- tokens per ms
local ttl = tonumber(ARGV[4])

local level = tonumber(redis.call('HGET', KEYS[1], 'level'))
local at = tonumber(redis.call('HGET', KEYS[1], 'at'))
if level == nil or at == nil then
	level, at = cap, now
end
if now > at then
	level = math.min(cap, level + (now - at) * rate)
end

local granted, wait = 0, 0
if level >= 1 then
	granted = 1
	level = level - 1
else
	wait = math.ceil((1 - level) / rate)
end

redis.call('HSET', KEYS[1], 'level', tostring(level), 'at', tostring(now))
redis.call('EXPIRE', KEYS[1], ttl)
return {granted, math.floor(level), wait}
`)

// bucketDecision is the outcome of one take.
type bucketDecision struct {
	granted   bool
	remaining int64
	wait      time.Duration
}

type tokenBucket struct {
	rdb      *redis.Client
	capacity int
	perMs    float64
	ttlSec   int64
}

func newTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) *tokenBucket {
	interval := cfg.RefillInterval.Milliseconds()
	if interval <= 0 {
		interval = 1000
	}
	return &tokenBucket{
		rdb:      rdb,
		capacity: max(cfg.Capacity, 1),
		perMs:    float64(max(cfg.RefillTokens, 1)) / float64(interval),
		ttlSec:   max(int64(cfg.TTL/time.Second), 1),
	}
}

func (b *tokenBucket) take(ctx context.Context, key string) (bucketDecision, error) {
	res, err := takeScript.Run(ctx, b.rdb, []string{key},
		time.Now().UnixMilli(), b.capacity, b.perMs, b.ttlSec).Int64Slice()
	if err != nil {
		return bucketDecision{}, err
	}
	if len(res) != 3 {
		return bucketDecision{}, fmt.Errorf("bucket script returned %d values", len(res))
	}
	return bucketDecision{
		granted:   res[0] == 1,
		remaining: res[1],
		wait:      time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket throttles the credential endpoints per client. It is a
// pass-through when disabled or without Redis, and a Redis failure on a
// single request lets that request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	bucket := newTokenBucket(cfg, rdb)
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			d, err := bucket.take(c.Request().Context(), key)
			if err != nil {
				log.Warn("ratelimit: redis unavailable, allowing request", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.granted {
				return next(c)
			}

			secs := int64((d.wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.FormatInt(max(secs, 1), 10))
			log.Info("ratelimit: throttled", zap.String("key", key), zap.Duration("wait", d.wait))
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
	}
}

// rateKey partitions buckets. Limited routes run before authentication, so
// only the client address and the route are available.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		return cfg.Prefix + ":ip:" + ip
	case "route":
		return cfg.Prefix + ":route:" + route
	default: // ip_route
		return cfg.Prefix + ":ip:" + ip + ":route:" + route
	}
}
