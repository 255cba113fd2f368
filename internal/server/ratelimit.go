package server

import (
	"sync"
	"time"

	"github.com/paniker63/the-tale/internal/config"
)

// RequestLimiter locks out clients whose requests keep being rejected.
type RequestLimiter struct {
	mu              sync.Mutex
	clients         map[string]*failureInfo
	maxFailures     int
	lockout         time.Duration
	maxLockout      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type failureInfo struct {
	failures     int
	lockedUntil  time.Time
	lockoutCount int // Doubles the lockout each time
}

// NewRequestLimiter creates a limiter from cfg and starts its cleanup loop.
func NewRequestLimiter(cfg config.RateLimitConfig) *RequestLimiter {
	rl := &RequestLimiter{
		clients:         make(map[string]*failureInfo),
		maxFailures:     cfg.MaxFailures,
		lockout:         time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:      time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}

	if rl.maxFailures == 0 {
		rl.maxFailures = 5
	}
	if rl.lockout == 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout < rl.lockout {
		rl.maxLockout = rl.lockout
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RequestLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *RequestLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.clients[ip]
	if !exists {
		return false, 0
	}
	if now := rl.now(); now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a rejected request from ip. It returns true with the lockout
// duration once ip has been locked out.
func (rl *RequestLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.clients[ip]
	if !exists {
		info = &failureInfo{}
		rl.clients[ip] = info
	}

	now := rl.now()
	if now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}

	info.failures++
	if info.failures < rl.maxFailures {
		return false, 0
	}

	info.lockoutCount++
	d := rl.lockout
	for i := 1; i < info.lockoutCount && d < rl.maxLockout; i++ {
		d *= 2
	}
	if d > rl.maxLockout {
		d = rl.maxLockout
	}
	info.lockedUntil = now.Add(d)
	info.failures = 0
	return true, d
}

// RecordSuccess clears the failure count of ip. Past lockouts still count towards the
// next lockout's duration.
func (rl *RequestLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.clients[ip]; exists {
		info.failures = 0
	}
}

// Failures returns the current failure count for ip.
func (rl *RequestLimiter) Failures(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.clients[ip]; exists {
		return info.failures
	}
	return 0
}

func (rl *RequestLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup forgets clients unlocked for at least 10 minutes with no pending failures.
func (rl *RequestLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * time.Minute)
	for ip, info := range rl.clients {
		if info.lockedUntil.Before(cutoff) && info.failures == 0 {
			delete(rl.clients, ip)
		}
	}
}
