package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// joinLimitMessage is the fixed rejection body for over-limit signups.
// There is deliberately no Retry-After negotiation.
const joinLimitMessage = "Too many signup attempts. Please try again later."

type windowEntry struct {
	windowStart time.Time
	count       int
}

// WindowLimiter is a per-IP fixed-window rate limiter: at most max requests
// per window, counted from the first request in the window.
type WindowLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowEntry
	max     int
	window  time.Duration
}

// NewWindowLimiter creates a limiter allowing max requests per window per
// client address, with automatic stale-entry cleanup.
func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	wl := &WindowLimiter{
		clients: make(map[string]*windowEntry),
		max:     max,
		window:  window,
	}
	go wl.cleanup()
	return wl
}

// allow records one request for ip and reports whether it fits the window.
func (wl *WindowLimiter) allow(ip string) bool {
	now := time.Now()
	wl.mu.Lock()
	defer wl.mu.Unlock()
	e, ok := wl.clients[ip]
	if !ok || now.Sub(e.windowStart) >= wl.window {
		wl.clients[ip] = &windowEntry{windowStart: now, count: 1}
		return true
	}
	e.count++
	return e.count <= wl.max
}

// cleanup removes expired windows every 5 minutes.
func (wl *WindowLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		wl.mu.Lock()
		for ip, e := range wl.clients {
			if time.Since(e.windowStart) >= wl.window {
				delete(wl.clients, ip)
			}
		}
		wl.mu.Unlock()
	}
}

// Limit is the middleware handler enforcing the window per client address.
func (wl *WindowLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !wl.allow(RealIP(r)) {
			writeJSONError(w, http.StatusTooManyRequests, joinLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token-bucket rate limiter used for the admin
// login endpoint, with automatic stale-entry cleanup.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	r        rate.Limit
	burst    int
}

// NewRateLimiter creates a per-IP limiter: r requests/second, burst up to
// burst requests.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		r:        r,
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if v, ok := rl.limiters[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: l, lastSeen: time.Now()}
	return l
}

// cleanup removes stale entries every 5 minutes.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.limiters {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(rl.limiters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit is the middleware handler that enforces the rate limit per remote IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(RealIP(r)).Allow() {
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RealIP resolves the client address: X-Forwarded-For (first hop), then
// X-Real-Ip, then RemoteAddr with the port stripped. Handlers use the same
// resolution for the entry's provenance fields.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
