package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"portaria-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExpiryStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	expired int64
}

func (s *recordingExpiryStore) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.expired, nil
}

func (s *recordingExpiryStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestSweepOnceUsesTTLCutoff(t *testing.T) {
	store := &recordingExpiryStore{expired: 3}
	sweeper := services.NewSweeper(store, 24*time.Hour, time.Minute)

	before := time.Now().Add(-24 * time.Hour)
	sweeper.SweepOnce(context.Background())
	after := time.Now().Add(-24 * time.Hour)

	require.Equal(t, 1, store.calls())
	cutoff := store.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}

func TestRunDisabledWithZeroTTL(t *testing.T) {
	store := &recordingExpiryStore{}
	sweeper := services.NewSweeper(store, 0, time.Millisecond)

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when TTL is zero")
	}
	assert.Equal(t, 0, store.calls())
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	store := &recordingExpiryStore{}
	sweeper := services.NewSweeper(store, time.Hour, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for store.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ticked")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
