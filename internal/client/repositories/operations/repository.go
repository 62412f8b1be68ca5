// Package operations persists the durable sync queue in the local SQLite store.
package operations

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

var ErrNotFound = errors.New("sync operation not found")

// Repository is the operation half of the local store. Listings are ordered
// FIFO by enqueue time with the operation ID as tie-breaker.
type Repository interface {
	Get(ctx context.Context, id string) (*models.SyncOperation, error)
	Put(ctx context.Context, op models.SyncOperation) error
	Delete(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status models.OperationStatus) ([]models.SyncOperation, error)

	// FindActive returns the pending or syncing operation of the given kind
	// for a note, or ErrNotFound.
	FindActive(ctx context.Context, noteID string, kind models.OperationKind) (*models.SyncOperation, error)

	// ListByNote returns every queued operation of a note regardless of status.
	ListByNote(ctx context.Context, noteID string) ([]models.SyncOperation, error)

	// CountByStatus returns the number of operations per status.
	CountByStatus(ctx context.Context) (map[models.OperationStatus]int, error)

	// Retarget moves all operations of oldNoteID to newNoteID.
	Retarget(ctx context.Context, oldNoteID, newNoteID string) error
}
