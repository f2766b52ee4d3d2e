package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window. Zero disables the
	// limiter.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
	// Skip exempts requests from counting, e.g. health probes.
	Skip func(*http.Request) bool
}

// window holds the counts of the current and the previous fixed window;
// the previous one is weighted by how much of it the sliding window still
// covers.
type window struct {
	prev, curr float64
	start      time.Time
}

type limiter struct {
	max    int
	period time.Duration

	mu      sync.Mutex
	clients map[string]*window
}

type decision struct {
	allowed   bool
	remaining int
	reset     time.Time
}

func newLimiter(limit int, period time.Duration) *limiter {
	return &limiter{max: limit, period: period, clients: make(map[string]*window)}
}

func (l *limiter) take(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[key]
	if !ok {
		w = &window{start: now.Truncate(l.period)}
		l.clients[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*l.period:
		w.prev, w.curr = 0, 0
		w.start = now.Truncate(l.period)
	case elapsed >= l.period:
		w.prev, w.curr = w.curr, 0
		w.start = w.start.Add(l.period)
	}

	weight := 1 - float64(now.Sub(w.start))/float64(l.period)
	used := w.prev*max(weight, 0) + w.curr
	d := decision{reset: w.start.Add(l.period)}
	if used >= float64(l.max) {
		return d
	}
	w.curr++
	d.allowed = true
	d.remaining = max(int(float64(l.max)-used-1), 0)
	return d
}

// evict drops clients idle for two full windows.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.clients {
		if now.Sub(w.start) >= 2*l.period {
			delete(l.clients, key)
		}
	}
}

// RateLimit limits requests per client and answers 429 with the API error
// body once the limit is reached. Idle clients are evicted every two windows
// until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	l := newLimiter(cfg.Max, cfg.Window)

	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()

	limit := strconv.Itoa(cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			d := l.take(cfg.KeyFunc(r), time.Now())
			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))

			if !d.allowed {
				wait := max(time.Until(d.reset), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
