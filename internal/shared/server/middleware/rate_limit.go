package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"resume-tailor/internal/shared/server/respond"
)

// idleClientTTL bounds how long a client's bucket survives without requests
// once the limiter tracks more than maxTrackedClients keys.
const (
	idleClientTTL     = 10 * time.Minute
	maxTrackedClients = 10000
)

// ClientLimiter keeps one token bucket per client key.
type ClientLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows perSecond requests per client with bursts up to burst.
// A nil now uses time.Now.
func NewClientLimiter(perSecond float64, burst int, now func() time.Time) *ClientLimiter {
	if now == nil {
		now = time.Now
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     now,
		clients: make(map[string]*clientBucket),
	}
}

// Allow takes a token for key. When none is left it reports how long until one is.
func (l *ClientLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.limit <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.evictIdle(now)
		}
		bucket = &clientBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = bucket
	}
	bucket.lastSeen = now

	if bucket.lim.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - bucket.lim.TokensAt(now)
	wait := time.Duration(math.Ceil(missing/float64(l.limit)*1000)) * time.Millisecond
	return false, wait
}

func (l *ClientLimiter) evictIdle(now time.Time) {
	for key, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > idleClientTTL {
			delete(l.clients, key)
		}
	}
}

// RateLimitConfig configures RateLimit. A nil Limiter disables limiting.
type RateLimitConfig struct {
	Limiter *ClientLimiter
	// KeyFor picks the client key; the client IP is used when it returns "".
	KeyFor  func(*gin.Context) string
	Message string
}

// RateLimit rejects requests over the client's budget with 429 and Retry-After.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Message == "" {
		cfg.Message = "Too many requests. Please slow down."
	}
	return func(c *gin.Context) {
		if cfg.Limiter == nil {
			c.Next()
			return
		}
		key := ""
		if cfg.KeyFor != nil {
			key = strings.TrimSpace(cfg.KeyFor(c))
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, wait := cfg.Limiter.Allow(key)
		if allowed {
			c.Next()
			return
		}
		if wait < time.Second {
			wait = time.Second
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", cfg.Message, gin.H{"retryAfterMs": wait.Milliseconds()})
	}
}
