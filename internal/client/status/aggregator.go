// Package status derives the engine's single observable sync state from the
// operation queue, connectivity and the last confirmed sync time.
package status

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophnotes/internal/client/events"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

type Counter interface {
	Counts(ctx context.Context) (map[models.OperationStatus]int, error)
}

type Connectivity interface {
	Online() bool
}

type Aggregator struct {
	counter Counter
	meta    metadata.Repository
	conn    Connectivity
	bus     *events.Bus
	logger  logging.Logger

	mu     sync.Mutex
	last   models.SyncState
	known  bool
	subs   map[int]chan models.SyncState
	nextID int
}

func New(counter Counter, meta metadata.Repository, conn Connectivity, bus *events.Bus, logger logging.Logger) *Aggregator {
	return &Aggregator{
		counter: counter,
		meta:    meta,
		conn:    conn,
		bus:     bus,
		logger:  logger.With("module", "status"),
		subs:    make(map[int]chan models.SyncState),
	}
}

// Derive applies the status precedence: offline, syncing, failed, pending,
// synced.
func Derive(online bool, counts map[models.OperationStatus]int) models.SyncStatus {
	switch {
	case !online:
		return models.SyncStatusOffline
	case counts[models.StatusSyncing] > 0:
		return models.SyncStatusSyncing
	case counts[models.StatusFailed] > 0:
		return models.SyncStatusFailed
	case counts[models.StatusPending] > 0:
		return models.SyncStatusPending
	default:
		return models.SyncStatusSynced
	}
}

// Compute builds a fresh state without publishing it.
func (a *Aggregator) Compute(ctx context.Context) (models.SyncState, error) {
	counts, err := a.counter.Counts(ctx)
	if err != nil {
		return models.SyncState{}, err
	}
	last, err := a.meta.GetTime(ctx, metadata.KeyLastSyncedAt)
	if err != nil {
		return models.SyncState{}, err
	}

	online := a.conn.Online()
	return models.SyncState{
		Status:       Derive(online, counts),
		PendingCount: counts[models.StatusPending],
		SyncingCount: counts[models.StatusSyncing],
		FailedCount:  counts[models.StatusFailed],
		Online:       online,
		LastSyncedAt: last,
	}, nil
}

// Refresh recomputes the state and notifies subscribers when it changed.
func (a *Aggregator) Refresh(ctx context.Context) (models.SyncState, error) {
	s, err := a.Compute(ctx)
	if err != nil {
		a.logger.Warn(ctx, "failed to compute sync state", "error", err)
		return models.SyncState{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.known && a.last.Equal(s) {
		return s, nil
	}
	a.last, a.known = s, true
	for _, ch := range a.subs {
		offerLatest(ch, s)
	}
	a.logger.Debug(ctx, "sync state changed", "status", s.Status, "pending", s.PendingCount,
		"syncing", s.SyncingCount, "failed", s.FailedCount)
	return s, nil
}

// Current returns the last published state, if any.
func (a *Aggregator) Current() (models.SyncState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.known
}

// Subscribe delivers every state change. A slow reader only ever sees the
// newest state it missed.
func (a *Aggregator) Subscribe() (<-chan models.SyncState, func()) {
	ch := make(chan models.SyncState, 1)

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	if a.known {
		ch <- a.last
	}
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// Run refreshes the state on every engine signal until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	sig, cancel := a.bus.Subscribe(16)
	defer cancel()

	_, _ = a.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sig:
			if !ok {
				return
			}
			_, _ = a.Refresh(ctx)
		}
	}
}

func offerLatest(ch chan models.SyncState, s models.SyncState) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
