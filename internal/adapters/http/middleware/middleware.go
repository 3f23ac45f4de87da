package middleware

import (
	"log/slog"
	"math"
	"mime"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/csrf"
)

// RateLimiter keeps one token bucket per client address. A bucket holds
// up to burst tokens and refills continuously at burst per interval.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	burst    float64
	perToken time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests per interval from each client, in
// bursts of up to rate.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rate = max(rate, 1)
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		burst:    float64(rate),
		perToken: max(interval/time.Duration(rate), time.Nanosecond),
		now:      time.Now,
	}
}

// Allow spends one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst}
		rl.buckets[key] = b
	} else {
		b.tokens = min(rl.burst, b.tokens+float64(now.Sub(b.seen))/float64(rl.perToken))
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is how long a rejected client waits for its next token.
func (rl *RateLimiter) RetryAfter() time.Duration {
	return rl.perToken
}

// Sweep forgets buckets that have refilled completely, which loses nothing,
// and returns how many went.
func (rl *RateLimiter) Sweep() int {
	full := time.Duration(rl.burst) * rl.perToken
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, b := range rl.buckets {
		if now.Sub(b.seen) >= full {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// RateLimit rejects requests over the limiter's budget with 429. Clients are
// keyed by host, so chi's RealIP should run first behind a proxy.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	retry := strconv.Itoa(int(math.Ceil(limiter.RetryAfter().Seconds())))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limiter.Allow(host) {
				slog.Warn("rate_limit_exceeded", "ip", host, "path", r.URL.Path)
				w.Header().Set("Retry-After", retry)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; " +
	"img-src 'self' data:; connect-src 'self' ws: wss:; frame-ancestors 'none'"

// SecurityHeaders sets the browser hardening headers. HSTS is only sent when
// the site is served over TLS.
func SecurityHeaders(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if secure {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRF guards the login and logout forms. JSON requests skip the token
// check: a cross-origin page cannot send them without passing CORS first.
// authKey must be 32 bytes.
func CSRF(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trustedOrigins),
	)
	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isJSON(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// Chain wraps h so the last middleware listed runs first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
