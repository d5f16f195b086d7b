package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is one limiter verdict, recorded for operators.
type Decision struct {
	Identity string
	Allowed  bool
	At       time.Time
}

// StatsRecorder persists limiter decisions. Recording is best effort: callers
// log errors and carry on.
type StatsRecorder interface {
	Record(ctx context.Context, d Decision) error
}

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStats keeps totals in process memory.
type MemoryStats struct {
	mu    sync.Mutex
	total Counters
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{}
}

func (s *MemoryStats) Record(_ context.Context, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Allowed {
		s.total.Allowed++
	} else {
		s.total.Denied++
	}
	return nil
}

func (s *MemoryStats) Totals() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// RedisStats counts decisions in Redis hashes: a cumulative total and one
// per-minute bucket that expires after ttl. Identities are never written,
// which keeps key cardinality flat.
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

func NewRedisStats(rdb *redis.Client, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "leadintake:ratelimit",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStats) Record(ctx context.Context, d Decision) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := d.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if d.Allowed {
		field = "allowed"
	}

	bucketKey := s.MinuteKey(at)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.TotalKey(), field, 1)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ratelimit: record stats: %w", err)
	}
	return nil
}

func (s *RedisStats) TotalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStats) MinuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}
