package middleware

import (
	"net/http"
	"sync"
	"time"

	"clinicops/pkg/logger"
)

// TenantRateLimiter applies a sliding-window request limit per tenant.
// Requests without a tenant header pass through; they fail tenant
// validation further down the stack anyway.
type TenantRateLimiter struct {
	mu       sync.RWMutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
}

func NewTenantRateLimiter(limit int, window time.Duration, log *logger.Logger) *TenantRateLimiter {
	limiter := &TenantRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *TenantRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for tenant, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, tenant)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *TenantRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *TenantRateLimiter) Allow(tenant string) bool {
	if tenant == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[tenant][:0:0]
	for _, ts := range rl.requests[tenant] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[tenant] = valid
		return false
	}

	rl.requests[tenant] = append(valid, now)
	return true
}

func TenantRateLimit(limiter *TenantRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Header.Get("X-Tenant-ID")

			if !limiter.Allow(tenant) {
				limiter.log.Warn("Tenant rate limited",
					"request_id", RequestIDFromContext(r.Context()),
					"tenant_id", tenant,
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
