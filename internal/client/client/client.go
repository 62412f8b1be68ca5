package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// Client is the remote note store.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	// Create stores a new note. The server may assign a different ID.
	Create(ctx context.Context, in CreateInput) (*models.Note, error)

	// Update applies a partial update. It fails with ErrConflict when the
	// server copy is newer than in.LastModified.
	Update(ctx context.Context, id, ownerID string, in UpdateInput) (*models.Note, error)

	// Delete removes a note; a missing note yields ErrNotFound.
	Delete(ctx context.Context, id, ownerID string) error

	Get(ctx context.Context, id, ownerID string) (*models.Note, error)
	ListAll(ctx context.Context, ownerID string) ([]models.Note, error)
}

type CreateInput struct {
	OwnerID      string
	Title        string
	Body         string
	CreatedAt    time.Time
	LastModified time.Time
}

// UpdateInput carries the changed fields; nil pointers are left untouched.
type UpdateInput struct {
	Title        *string
	Body         *string
	LastModified time.Time
}

// CreateInputFrom builds the create request for a local note.
func CreateInputFrom(n models.Note) CreateInput {
	return CreateInput{
		OwnerID:      n.OwnerID,
		Title:        n.Title,
		Body:         n.Body,
		CreatedAt:    n.CreatedAt,
		LastModified: n.LastModified,
	}
}

// UpdateInputFrom builds a whole-content update for a local note.
func UpdateInputFrom(n models.Note) UpdateInput {
	title, body := n.Title, n.Body
	return UpdateInput{Title: &title, Body: &body, LastModified: n.LastModified}
}
