package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

const msgTooManyAttempts = "Too many attempts, please try again later"

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// AuthRateLimitPolicy throttles one auth route by client IP and by the email in
// the request body. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	route      string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(route string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	route = strings.ToLower(strings.TrimSpace(route))
	if route == "" {
		route = "auth"
	}
	return AuthRateLimitPolicy{
		route:      route,
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// throttle is one counter checked for a request.
type throttle struct {
	dimension string
	subject   string
	limit     int
}

// AuthRateLimit rejects requests once any counter of the policy passes its limit
// within the window. Counters live in the shared store so every API instance
// sees the same attempts.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			throttles, err := policy.throttles(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Unable to read request body"))
				return
			}

			for _, t := range throttles {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.route, t.dimension, t.subject), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit store unavailable"))
					return
				}
				if count > int64(t.limit) {
					policy.reject(ctx, logg, w, t, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// throttles lists the counters that apply to r. Reading the email consumes the
// body, so it is restored for the next handler.
func (p AuthRateLimitPolicy) throttles(r *http.Request) ([]throttle, error) {
	var out []throttle
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, throttle{dimension: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.emailLimit > 0 && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		if email := bodyEmail(body); email != "" {
			out = append(out, throttle{dimension: "email", subject: digest(email), limit: p.emailLimit})
		}
	}
	return out, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, t throttle, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"route":     p.route,
			"dimension": t.dimension,
			"subject":   t.subject,
			"attempts":  count,
			"limit":     t.limit,
		}), "auth.rate_limited")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgTooManyAttempts))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// bodyEmail returns the normalized email of a register or login payload.
func bodyEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

// digest keeps raw addresses out of redis keys and logs.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:12])
}
