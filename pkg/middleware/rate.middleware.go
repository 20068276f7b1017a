package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"profile-service/pkg/cache"
	"profile-service/pkg/response"
)

// RateLimiter counts requests per client IP and blocks the client for
// blockDuration once limit is exceeded within window. A nil cache disables
// limiting.
func RateLimiter(c *cache.Cache, limit int, window, blockDuration time.Duration, keyPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := "ip:" + clientIP(r)
			blockKey := key + ":blocked"

			blocked, _ := c.Get(ctx, keyPrefix, blockKey)
			if blocked == "1" {
				ttl, _ := c.TTL(ctx, keyPrefix, blockKey)
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests. Try again in "+ttl.String())
				return
			}

			count, err := c.IncrWithExpire(ctx, keyPrefix, key, window)
			if err != nil {
				// fail open when redis is unavailable
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(limit) {
				_ = c.Set(ctx, keyPrefix, blockKey, "1", blockDuration)
				w.Header().Set("Retry-After", strconv.Itoa(int(blockDuration.Seconds())))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests. Blocked for "+blockDuration.String())
				return
			}

			ttl, _ := c.TTL(ctx, keyPrefix, key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-int(count)))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
