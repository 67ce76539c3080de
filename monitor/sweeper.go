package monitor

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultTTL is how long messages are retained.
	DefaultTTL = 14 * 24 * time.Hour
	// DefaultSweepInterval is the pause between retention sweeps.
	DefaultSweepInterval = 60 * time.Second
)

// Sweeper purges messages that fell out of the retention window.
type Sweeper struct {
	store    MessageStore
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper returns a Sweeper. Non-positive durations fall back to defaults.
func NewSweeper(store MessageStore, log *slog.Logger, ttl, interval time.Duration) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, log: log, ttl: ttl, interval: interval}
}

// Interval returns the pause between sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Sweep runs a single purge pass against the store clock.
func (s *Sweeper) Sweep() (int64, error) {
	count, cutoff, err := s.store.PurgeOlderThan(s.ttl)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	s.log.Info("Deleted old messages from DB", "count", count, "cutoff", cutoff)
	return count, nil
}
