package services

import (
	"context"
	"log"
	"time"
)

// ExpiryStore is the slice of the ledger the sweeper needs.
type ExpiryStore interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper moves requested records that nobody acted on for TTL into the
// expired terminal state, so pending work cannot accumulate forever. No
// notification is published for sweeper transitions.
type Sweeper struct {
	Store    ExpiryStore
	TTL      time.Duration
	Interval time.Duration
}

func NewSweeper(store ExpiryStore, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{Store: store, TTL: ttl, Interval: interval}
}

// Run sweeps on a ticker until ctx is cancelled. A zero TTL disables the
// sweeper entirely.
func (s *Sweeper) Run(ctx context.Context) {
	if s.TTL <= 0 {
		return
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires everything past the TTL cutoff.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.Store.ExpireStale(ctx, time.Now().Add(-s.TTL))
	if err != nil {
		log.Printf("sweeper: expire stale requests: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("sweeper: expired %d stale access requests", expired)
	}
}
