package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storefront/internal/config"
	"storefront/pkg/utils"
)

const (
	DefaultRequests = 20
	BurstSize       = 50

	// Garbage Collection
	VisitorTTL      = 5 * time.Minute // Time before an inactive IP is removed from memory
	CleanupInterval = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	enabled  bool
	message  string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter builds a limiter from config and starts its cleanup worker.
func NewRateLimiter(conf config.RateLimitConfig, message string) *RateLimiter {
	windowDuration, _ := time.ParseDuration(conf.Window)
	if windowDuration <= 0 {
		windowDuration = time.Second
	}
	requests := conf.Requests
	if requests <= 0 {
		requests = DefaultRequests
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = BurstSize
	}
	if message == "" {
		message = "Too many requests. Please wait a moment."
	}

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requests) / windowDuration.Seconds()),
		burst:    burst,
		enabled:  conf.Enabled,
		message:  message,
		stop:     make(chan struct{}),
	}
	if rl.enabled {
		go rl.cleanupLoop()
	}
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

// cleanup removes stale visitors.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > VisitorTTL {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.limit, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Handler blocks excessive requests with a 429 JSON response.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.getVisitor(utils.GetRealIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			utils.WriteError(w, http.StatusTooManyRequests, utils.ErrRequestRateLimitExceeded, rl.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}
