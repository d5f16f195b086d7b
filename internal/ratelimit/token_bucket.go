package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is the stricter alternative policy: limit tokens refill evenly
// over each window, so there is no burst doubling at window edges.
type TokenBucket struct {
	mu       sync.Mutex
	entries  map[string]*bucketEntry
	interval time.Duration
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewTokenBucket(limit int, length time.Duration, opts ...Option) *TokenBucket {
	o := buildOptions(opts)
	return &TokenBucket{
		entries:  make(map[string]*bucketEntry),
		interval: length / time.Duration(limit),
		burst:    limit,
		idleTTL:  length,
		now:      o.now,
	}
}

func (l *TokenBucket) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	ent, ok := l.entries[identity]
	if !ok {
		ent = &bucketEntry{lim: rate.NewLimiter(rate.Every(l.interval), l.burst)}
		l.entries[identity] = ent
	}
	ent.lastSeen = now
	l.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

func (l *TokenBucket) RetryAfter() time.Duration {
	return l.interval
}

// Sweep drops buckets idle for longer than a full window; they would be full again.
func (l *TokenBucket) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

func (l *TokenBucket) StartSweeper(ctx context.Context, every time.Duration) {
	startSweeper(ctx, every, func() { l.Sweep() })
}
