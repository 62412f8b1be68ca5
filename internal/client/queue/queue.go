// Package queue is the durable FIFO of pending note mutations.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/events"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/operations"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = operations.ErrNotFound
	ErrNotFailed = errors.New("operation is not in failed state")
)

// Queue wraps the operation store with the queue's state machine. All
// transitions are serialized by a mutex so that the check-then-write of
// Enqueue cannot race with itself.
type Queue struct {
	mu         sync.Mutex
	ops        operations.Repository
	bus        *events.Bus
	logger     logging.Logger
	now        func() time.Time
	maxRetries int
}

type Option func(*Queue)

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxRetries = n
		}
	}
}

func New(ops operations.Repository, bus *events.Bus, logger logging.Logger, opts ...Option) *Queue {
	q := &Queue{
		ops:        ops,
		bus:        bus,
		logger:     logger.With("module", "queue"),
		now:        time.Now,
		maxRetries: models.MaxRetryAttempts,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// MaxRetries is the retry bound after which an operation freezes in failed.
func (q *Queue) MaxRetries() int { return q.maxRetries }

// Enqueue records the intent to apply kind to note on the server.
//
// When a pending or syncing operation of the same kind already exists for the
// note, nothing is written and the existing operation is returned with
// created=false. An update is also absorbed by a still-pending create of the
// same note, because the create is dispatched with the note's latest content.
func (q *Queue) Enqueue(ctx context.Context, kind models.OperationKind, note models.Note) (op models.SyncOperation, created bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	existing, err := q.ops.FindActive(ctx, note.ID, kind)
	switch {
	case err == nil:
		return *existing, false, nil
	case !errors.Is(err, operations.ErrNotFound):
		return models.SyncOperation{}, false, err
	}

	if kind == models.OperationUpdate {
		create, err := q.ops.FindActive(ctx, note.ID, models.OperationCreate)
		switch {
		case err == nil && create.Status == models.StatusPending:
			return *create, false, nil
		case err != nil && !errors.Is(err, operations.ErrNotFound):
			return models.SyncOperation{}, false, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.SyncOperation{}, false, fmt.Errorf("generate operation id: %w", err)
	}

	op = models.SyncOperation{
		ID:         id.String(),
		Kind:       kind,
		NoteID:     note.ID,
		OwnerID:    note.OwnerID,
		Status:     models.StatusPending,
		EnqueuedAt: q.now().UTC(),
	}
	if kind != models.OperationDelete {
		p := note.Payload()
		op.Payload = &p
	}

	if err := q.ops.Put(ctx, op); err != nil {
		return models.SyncOperation{}, false, err
	}

	q.logger.Debug(ctx, "operation queued", "op_id", op.ID, "kind", op.Kind, "note_id", op.NoteID)
	q.bus.Publish(events.OperationQueued)
	return op, true, nil
}

// PeekPending returns all pending operations in FIFO order.
func (q *Queue) PeekPending(ctx context.Context) ([]models.SyncOperation, error) {
	return q.ops.ListByStatus(ctx, models.StatusPending)
}

func (q *Queue) Get(ctx context.Context, id string) (*models.SyncOperation, error) {
	return q.ops.Get(ctx, id)
}

// ForNote returns every queued operation of a note in FIFO order.
func (q *Queue) ForNote(ctx context.Context, noteID string) ([]models.SyncOperation, error) {
	return q.ops.ListByNote(ctx, noteID)
}

func (q *Queue) ListFailed(ctx context.Context) ([]models.SyncOperation, error) {
	return q.ops.ListByStatus(ctx, models.StatusFailed)
}

// Counts returns the number of operations per status.
func (q *Queue) Counts(ctx context.Context) (map[models.OperationStatus]int, error) {
	return q.ops.CountByStatus(ctx)
}

// MarkSyncing moves a pending operation to syncing and returns it. An
// operation that is no longer pending (removed or frozen meanwhile) yields
// ErrNotFound.
func (q *Queue) MarkSyncing(ctx context.Context, id string) (models.SyncOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, err := q.ops.Get(ctx, id)
	if err != nil {
		return models.SyncOperation{}, err
	}
	if op.Status != models.StatusPending {
		return models.SyncOperation{}, ErrNotFound
	}
	op.Status = models.StatusSyncing
	if err := q.ops.Put(ctx, *op); err != nil {
		return models.SyncOperation{}, err
	}
	return *op, nil
}

// MarkSynced removes a completed operation.
func (q *Queue) MarkSynced(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ops.Delete(ctx, id); err != nil {
		return err
	}
	q.bus.Publish(events.OperationCompleted)
	return nil
}

// MarkFailed records a failed attempt. The retry count always grows; the
// operation goes back to pending unless the bound is reached or terminal is
// set, in which case it freezes in failed.
func (q *Queue) MarkFailed(ctx context.Context, id string, cause error, terminal bool) (models.SyncOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, err := q.ops.Get(ctx, id)
	if err != nil {
		return models.SyncOperation{}, err
	}

	op.RetryCount++
	if cause != nil {
		op.LastError = cause.Error()
	}
	if terminal || op.RetryCount >= q.maxRetries {
		op.Status = models.StatusFailed
	} else {
		op.Status = models.StatusPending
	}

	if err := q.ops.Put(ctx, *op); err != nil {
		return models.SyncOperation{}, err
	}

	if op.Status == models.StatusFailed {
		q.logger.Warn(ctx, "operation failed permanently", "op_id", op.ID, "kind", op.Kind,
			"note_id", op.NoteID, "retries", op.RetryCount, "error", op.LastError)
		q.bus.Publish(events.OperationFailed)
	}
	return *op, nil
}

// ResetForRetry moves a failed operation back to pending with a fresh retry
// budget.
func (q *Queue) ResetForRetry(ctx context.Context, id string) (models.SyncOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, err := q.ops.Get(ctx, id)
	if err != nil {
		return models.SyncOperation{}, err
	}
	if op.Status != models.StatusFailed {
		return models.SyncOperation{}, fmt.Errorf("%w: %s is %s", ErrNotFailed, id, op.Status)
	}

	op.Status = models.StatusPending
	op.RetryCount = 0
	op.LastError = ""
	if err := q.ops.Put(ctx, *op); err != nil {
		return models.SyncOperation{}, err
	}
	q.bus.Publish(events.OperationQueued)
	return *op, nil
}

// CollapseForNote drops the queued, not in-flight operations of a note that
// is being deleted permanently. remoteKnown is false when a create was among
// them: the server never saw the note, so no delete has to be sent.
func (q *Queue) CollapseForNote(ctx context.Context, noteID string) (remoteKnown bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops, err := q.ops.ListByNote(ctx, noteID)
	if err != nil {
		return false, err
	}

	remoteKnown = true
	for _, op := range ops {
		if op.Status == models.StatusSyncing {
			continue
		}
		if op.Kind == models.OperationCreate {
			remoteKnown = false
		}
		if err := q.ops.Delete(ctx, op.ID); err != nil {
			return false, err
		}
		q.logger.Debug(ctx, "operation collapsed", "op_id", op.ID, "kind", op.Kind, "note_id", noteID)
	}
	return remoteKnown, nil
}

// Retarget moves queued operations to the server-assigned note ID.
func (q *Queue) Retarget(ctx context.Context, oldNoteID, newNoteID string) error {
	if oldNoteID == newNoteID {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ops.Retarget(ctx, oldNoteID, newNoteID)
}

// RecoverInterrupted returns operations left in syncing by a previous process
// to pending. It must run before the first drain.
func (q *Queue) RecoverInterrupted(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stuck, err := q.ops.ListByStatus(ctx, models.StatusSyncing)
	if err != nil {
		return 0, err
	}
	for _, op := range stuck {
		op.Status = models.StatusPending
		if err := q.ops.Put(ctx, op); err != nil {
			return 0, err
		}
	}
	if len(stuck) > 0 {
		q.logger.Info(ctx, "recovered interrupted operations", "count", len(stuck))
	}
	return len(stuck), nil
}
