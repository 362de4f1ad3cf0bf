package main

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ilpkit/connector/internal/auth"
)

// rateLimiter keeps one token bucket per authenticated account.
type rateLimiter struct {
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newRateLimiter(perMinute float64, burst int) *rateLimiter {
	perSecond := perMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Middleware must run after auth; unauthenticated requests share one bucket.
func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if account, ok := auth.AccountFromContext(r.Context()); ok {
			id = account.ID
		}

		if !l.limiter(id).Allow() {
			rateLimitedCounter.Inc()
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *rateLimiter) limiter(id string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(l.perSecond, l.burst)
		l.limiters[id] = limiter
	}
	return limiter
}
