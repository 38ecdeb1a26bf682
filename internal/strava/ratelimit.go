package strava

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ennygo-server/internal/metrics"
)

// RateLimitTracker records Strava API rate limit usage as reported by
// response headers. Tracking is observational only: requests are never
// delayed or rejected based on it.
type RateLimitTracker struct {
	mu          sync.RWMutex
	limit15Min  int
	usage15Min  int
	limitDaily  int
	usageDaily  int
	lastUpdated time.Time
}

// RateLimitStatus is a snapshot of the tracked rate limit state
type RateLimitStatus struct {
	Limit15Min  int
	Usage15Min  int
	LimitDaily  int
	UsageDaily  int
	LastUpdated time.Time
}

// NewRateLimitTracker creates a tracker seeded with Strava's default limits
func NewRateLimitTracker() *RateLimitTracker {
	return &RateLimitTracker{
		limit15Min: 200,
		limitDaily: 2000,
	}
}

// UpdateFromHeaders parses X-RateLimit-Limit and X-RateLimit-Usage headers
// ("15min,daily" pairs) and updates the tracked state and metrics
func (rl *RateLimitTracker) UpdateFromHeaders(headers http.Header) {
	limitHeader := headers.Get("X-RateLimit-Limit")
	usageHeader := headers.Get("X-RateLimit-Usage")
	if limitHeader == "" || usageHeader == "" {
		return
	}

	limits := strings.Split(limitHeader, ",")
	usages := strings.Split(usageHeader, ",")
	if len(limits) != 2 || len(usages) != 2 {
		return
	}

	limit15, _ := strconv.Atoi(strings.TrimSpace(limits[0]))
	limitDaily, _ := strconv.Atoi(strings.TrimSpace(limits[1]))
	usage15, _ := strconv.Atoi(strings.TrimSpace(usages[0]))
	usageDaily, _ := strconv.Atoi(strings.TrimSpace(usages[1]))

	rl.mu.Lock()
	rl.limit15Min = limit15
	rl.usage15Min = usage15
	rl.limitDaily = limitDaily
	rl.usageDaily = usageDaily
	rl.lastUpdated = time.Now()
	rl.mu.Unlock()

	metrics.StravaRateLimitUsage.WithLabelValues(metrics.Window15Min, metrics.BucketLimit).Set(float64(limit15))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.Window15Min, metrics.BucketUsage).Set(float64(usage15))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.WindowDaily, metrics.BucketLimit).Set(float64(limitDaily))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.WindowDaily, metrics.BucketUsage).Set(float64(usageDaily))
}

// Status returns the current rate limit snapshot
func (rl *RateLimitTracker) Status() RateLimitStatus {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return RateLimitStatus{
		Limit15Min:  rl.limit15Min,
		Usage15Min:  rl.usage15Min,
		LimitDaily:  rl.limitDaily,
		UsageDaily:  rl.usageDaily,
		LastUpdated: rl.lastUpdated,
	}
}
