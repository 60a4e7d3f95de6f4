package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/metrics"
)

type Config struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string // e.g. "rl:webhook"
}

// RateLimiter is a fixed-window counter per client IP stored in Redis.
type RateLimiter struct {
	client *redis.Client
	cfg    Config
	lg     zerolog.Logger
}

func NewRateLimiter(client *redis.Client, cfg Config, lg zerolog.Logger) *RateLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:webhook"
	}
	return &RateLimiter{
		client: client,
		cfg:    cfg,
		lg:     lg.With().Str("component", "rl_redis").Logger(),
	}
}

// INCR then PEXPIRE on the first hit, atomically.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Allow counts one hit for ip and reports whether it is within the limit.
// retryAfter is the time left in the current window.
func (rl *RateLimiter) Allow(ctx context.Context, ip string) (allowed bool, retryAfter time.Duration, err error) {
	if rl.client == nil || rl.cfg.Limit <= 0 || rl.cfg.Window <= 0 {
		return true, 0, nil
	}

	key := fmt.Sprintf("%s:ip:%s", rl.cfg.KeyPrefix, ip)
	res, err := allowScript.Run(ctx, rl.client, []string{key}, rl.cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	count, ttl := res[0], res[1]
	if ttl < 0 {
		ttl = rl.cfg.Window.Milliseconds()
	}
	if count > int64(rl.cfg.Limit) {
		return false, time.Duration(ttl) * time.Millisecond, nil
	}
	return true, 0, nil
}

// Middleware rejects over-limit clients with 429. Redis failures fail open.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, retryAfter, err := rl.Allow(r.Context(), ip)
		if err != nil {
			rl.lg.Error().Err(err).Str("ip", ip).Msg("redis rl check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RecordRateLimited()
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware has already folded X-Forwarded-For into RemoteAddr.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
