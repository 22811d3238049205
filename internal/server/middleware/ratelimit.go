package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateKeyPrefix = "farmgate:ratelimit:"

// RateLimiter throttles mutations per user (or per client IP when anonymous). With Redis the
// budget is shared by every replica; without it each process keeps its own token buckets.
type RateLimiter struct {
	perMinute int
	redis     *redis_rate.Limiter

	mu      sync.Mutex
	clients map[string]*clientLimiter
	window  time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a limiter for requestsPerMinute, or nil (no limiting) when the budget is
// not positive. client may be nil.
func NewRateLimiter(client redis.UniversalClient, requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	r := &RateLimiter{
		perMinute: requestsPerMinute,
		clients:   make(map[string]*clientLimiter),
		window:    5 * time.Minute,
	}
	if client != nil {
		r.redis = redis_rate.NewLimiter(client)
	}
	return r
}

// Handler returns the gin middleware enforcing the budget.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	if r == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c.Request.Context()); ok {
			key = "user:" + userID
		}
		allowed, retryAfter := r.allow(c, key)
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(c *gin.Context, key string) (bool, time.Duration) {
	if r.redis != nil {
		res, err := r.redis.Allow(c.Request.Context(), rateKeyPrefix+key, redis_rate.PerMinute(r.perMinute))
		if err == nil {
			return res.Allowed > 0, res.RetryAfter
		}
		zap.L().Warn("ratelimit: redis unavailable, using local limiter", zap.Error(err))
	}
	return r.localLimiter(key).Allow(), 0
}

func (r *RateLimiter) localLimiter(key string) *rate.Limiter {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	burst := r.perMinute / 10
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), burst)
	r.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	for k, e := range r.clients {
		if now.Sub(e.lastSeen) > r.window {
			delete(r.clients, k)
		}
	}
	return limiter
}
