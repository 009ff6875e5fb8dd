package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/neiist-dev/shop-backend/api/responses"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/logger"
)

// RateLimiterStore is the counter surface the rate limiter needs; the redis
// client satisfies it.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// OrderRateLimitPolicy throttles order creation per client IP.
type OrderRateLimitPolicy struct {
	window  time.Duration
	ipLimit int
}

func NewOrderRateLimitPolicy(window time.Duration, ipLimit int) OrderRateLimitPolicy {
	return OrderRateLimitPolicy{
		window:  window,
		ipLimit: ipLimit,
	}
}

func (p OrderRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p OrderRateLimitPolicy) scope(ip string) string {
	return fmt.Sprintf("orders:ip:%s", ip)
}

// OrderRateLimit enforces a fixed-window per-IP counter on order creation.
// Without a store or an enabled policy the middleware is a pass-through.
func OrderRateLimit(policy OrderRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.ipLimit), policy.window)
			if err != nil {
				// A broken counter must not block order intake.
				if logg != nil {
					logg.Error(ctx, "orders.rate_limit.unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "orders.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many orders, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
