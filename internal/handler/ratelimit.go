package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// rateLimitEntry tracks token bucket state for one client.
type rateLimitEntry struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// localLimiter is an in-memory per-IP token bucket. Entries idle for a
// minute are dropped by the cleanup goroutine.
type localLimiter struct {
	rps     float64
	burst   int
	entries sync.Map
}

func newLocalLimiter(rps float64, burst int) *localLimiter {
	l := &localLimiter{rps: rps, burst: burst}
	go l.cleanup()
	return l
}

func (l *localLimiter) allow(key string) (bool, float64) {
	now := time.Now()
	entry, _ := l.entries.LoadOrStore(key, &rateLimitEntry{
		tokens:     float64(l.burst),
		lastUpdate: now,
	})
	e := entry.(*rateLimitEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.lastUpdate).Seconds()
	e.tokens = min(float64(l.burst), e.tokens+elapsed*l.rps)
	e.lastUpdate = now

	if e.tokens >= 1 {
		e.tokens--
		return true, e.tokens
	}
	return false, e.tokens
}

func (l *localLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Minute)
		l.entries.Range(func(key, value any) bool {
			e := value.(*rateLimitEntry)
			e.mu.Lock()
			if e.lastUpdate.Before(cutoff) {
				l.entries.Delete(key)
			}
			e.mu.Unlock()
			return true
		})
	}
}

// tokenBucketScript implements the same bucket atomically in Redis, so
// multiple instances share one budget per client.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, tostring(tokens)}
`

type redisLimiter struct {
	client *redis.Client
	rps    float64
	burst  int
}

func (l *redisLimiter) allow(ctx context.Context, key string) (bool, float64, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	values, err := l.client.Eval(ctx, tokenBucketScript,
		[]string{"ratelimit:" + key}, l.rps, float64(l.burst), now).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, nil
	}

	allowed, _ := values[0].(int64)
	remaining := 0.0
	if s, ok := values[1].(string); ok {
		remaining, _ = strconv.ParseFloat(s, 64)
	}
	return allowed == 1, remaining, nil
}

// RateLimit limits each client IP to a token bucket. With a Redis
// address configured the bucket is shared across instances; otherwise
// it is process-local. Redis failures fail open.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	var (
		local *localLimiter
		rdb   *redisLimiter
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rdb = &redisLimiter{client: client, rps: cfg.RPS, burst: cfg.Burst}
	} else {
		local = newLocalLimiter(cfg.RPS, cfg.Burst)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			var (
				allowed   bool
				remaining float64
			)
			if rdb != nil {
				var err error
				allowed, remaining, err = rdb.allow(r.Context(), key)
				if err != nil {
					logger.Get().Warn("rate limiter unavailable, failing open", zap.Error(err))
					allowed = true
					remaining = float64(cfg.Burst)
				}
			} else {
				allowed, remaining = local.allow(key)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RPS, 'f', -1, 64))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(max(remaining, 0))))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's remote IP. The RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
