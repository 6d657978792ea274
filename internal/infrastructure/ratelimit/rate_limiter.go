package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage       = "send_message"
	ActionStartConversation = "start_conversation"
)

// Limit describes a token bucket refilled evenly over a minute.
type Limit struct {
	PerMinute int
	Burst     int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	limits   map[string]Limit
	fallback Limit
	buckets  map[string]*entry
	mutex    sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a limiter with per-action limits. Actions without an entry use
// 20 actions per minute.
func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		fallback: Limit{PerMinute: 20, Burst: 20},
		buckets:  make(map[string]*entry),
		now:      time.Now,
	}
}

func (rl *RateLimiter) limitFor(action string) Limit {
	l, ok := rl.limits[action]
	if !ok || l.PerMinute <= 0 {
		return rl.fallback
	}
	if l.Burst <= 0 {
		l.Burst = l.PerMinute
	}
	return l
}

// Allow reports whether userID may perform action now. When it may not, the returned
// duration is how long until the next token is available.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	e, exists := rl.buckets[key]
	if !exists {
		l := rl.limitFor(action)
		e = &entry{limiter: rate.NewLimiter(rate.Limit(float64(l.PerMinute)/60), l.Burst)}
		rl.buckets[key] = e
	}
	e.lastSeen = now
	rl.mutex.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Tokens returns the tokens currently available to userID for action.
func (rl *RateLimiter) Tokens(userID, action string) float64 {
	rl.mutex.Lock()
	e, exists := rl.buckets[userID+":"+action]
	rl.mutex.Unlock()

	if !exists {
		return float64(rl.limitFor(action).Burst)
	}
	return e.limiter.TokensAt(rl.now())
}

// Cleanup removes buckets that haven't been used for an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, e := range rl.buckets {
		if now.Sub(e.lastSeen) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until done is closed.
func (rl *RateLimiter) StartCleanupRoutine(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-done:
				return
			}
		}
	}()
}
