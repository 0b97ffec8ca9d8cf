package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"bookpay-be/internal/logger"
	"bookpay-be/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL = 3 * time.Minute
	sweepEvery     = time.Minute
)

// tier is one rate limit policy. Each identity gets a separate bucket per tier.
type tier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	// Anything that can reach the gateway: session creation and events.
	tierStrict   = tier{name: "strict", limit: 2, burst: 5}
	tierGeneral  = tier{name: "general", limit: 10, burst: 20}
	tierFrontend = tier{name: "frontend", limit: 20, burst: 40}
	// Trusted services marked by AuthMiddleware.
	tierInternal = tier{name: "internal", limit: 100, burst: 200}
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per identity and tier. Idle buckets are
// dropped by Run.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := resolveRateTier(r)
		key := identity(r) + ":" + t.name

		if !l.bucket(key, t).Allow() {
			logger.FromCtx(r.Context()).Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", r.URL.Path),
			)
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) bucket(key string, t tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Sweep removes buckets idle longer than visitorIdleTTL and reports how many.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-visitorIdleTTL)
	n := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// identity prefers the authenticated client, then a device id, then the
// remote IP.
func identity(r *http.Request) string {
	if clientID, ok := utils.GetClientIDFromContext(r.Context()); ok {
		return "client:" + clientID
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

func resolveRateTier(r *http.Request) tier {
	switch {
	case utils.IsInternalRequest(r.Context()):
		return tierInternal
	case r.Method == http.MethodPost && isPaymentPath(r.URL.Path):
		return tierStrict
	case r.Header.Get("X-Client-Type") == "frontend-heavy":
		return tierFrontend
	}
	return tierGeneral
}

func isPaymentPath(path string) bool {
	return strings.HasSuffix(path, "/payment-sessions") || strings.HasSuffix(path, "/events")
}
