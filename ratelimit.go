package gateway

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bjaus/gateway/ratelimit"
)

// RateLimit returns a stage that counts requests under prefix per client key
// and fails with 429 once a client exceeds the limiter's threshold. Requests
// outside prefix pass through uncounted.
func RateLimit(limiter *ratelimit.Limiter, prefix string) Stage {
	// Rejections can arrive in floods; one warning per interval is enough.
	warn := &rate.Sometimes{Interval: 10 * time.Second}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if !underPrefix(r.URL.Path, prefix) {
				return next(w, r)
			}

			key := ClientKey(r)
			if key == "" {
				key = clientKey(r, false)
			}

			d, err := limiter.Check(r.Context(), key)
			if err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
				warn.Do(func() {
					zerolog.Ctx(r.Context()).Warn().
						Str("client", key).
						Int("limit", d.Limit).
						Time("reset_at", d.ResetAt).
						Msg("rate limit exceeded")
				})
				return errTooManyRequests()
			}
			return next(w, r)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
