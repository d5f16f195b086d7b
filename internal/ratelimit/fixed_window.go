package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// FixedWindow counts requests per identity in fixed windows.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	length  time.Duration
	now     func() time.Time
}

func NewFixedWindow(limit int, length time.Duration, opts ...Option) *FixedWindow {
	o := buildOptions(opts)
	return &FixedWindow{
		windows: make(map[string]*window),
		limit:   limit,
		length:  length,
		now:     o.now,
	}
}

func (l *FixedWindow) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identity]
	if !ok || now.Sub(w.start) > l.length {
		l.windows[identity] = &window{count: 1, start: now}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// counts returns a copy of the current per-identity counts.
func (l *FixedWindow) counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := make(map[string]int, len(l.windows))
	for id, w := range l.windows {
		state[id] = w.count
	}
	return state
}

func (l *FixedWindow) RetryAfter() time.Duration {
	return l.length
}

// Sweep drops windows that have already expired. Expired windows would be
// reset on the next request anyway, so sweeping never changes a decision.
func (l *FixedWindow) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, w := range l.windows {
		if now.Sub(w.start) > l.length {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done. A non-positive
// interval disables sweeping and the map keeps one entry per identity seen.
func (l *FixedWindow) StartSweeper(ctx context.Context, every time.Duration) {
	startSweeper(ctx, every, func() { l.Sweep() })
}

func startSweeper(ctx context.Context, every time.Duration, sweep func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				sweep()
			}
		}
	}()
}
