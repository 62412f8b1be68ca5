// Package services holds the server business logic for notes: validation,
// ownership checks and last-write-wins on updates.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type CreateInput struct {
	UserID     string
	Title      string
	Content    string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type NoteService struct {
	store  repomanager.Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewNoteService(store repomanager.Store, logger logging.Logger) *NoteService {
	return &NoteService{
		store:  store,
		logger: logger.With("module", "notes"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create stores a new note under a server-assigned id. Missing timestamps
// default to the current time.
func (s *NoteService) Create(ctx context.Context, in CreateInput) (*models.Note, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}

	n := &models.Note{
		ID:         s.newID(),
		UserID:     in.UserID,
		Title:      in.Title,
		Content:    in.Content,
		CreatedAt:  s.stamp(in.CreatedAt),
		ModifiedAt: s.stamp(in.ModifiedAt),
	}
	if in.ModifiedAt.IsZero() {
		n.ModifiedAt = n.CreatedAt
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repo notes.Repository) error {
		return repo.Create(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "note created", "id", n.ID, "user_id", n.UserID)
	return n, nil
}

func (s *NoteService) Get(ctx context.Context, id, userID string) (*models.Note, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var n *models.Note
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo notes.Repository) error {
		var err error
		n, err = repo.Get(ctx, id, userID)
		return err
	})
	return n, err
}

func (s *NoteService) List(ctx context.Context, userID string) ([]models.Note, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var list []models.Note
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo notes.Repository) error {
		var err error
		list, err = repo.ListByUser(ctx, userID)
		return err
	})
	return list, err
}

// Update applies p unless the stored note was modified after p.ModifiedAt.
// Equal timestamps are applied.
func (s *NoteService) Update(ctx context.Context, id, userID string, p models.NotePatch) (*models.Note, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	p.ModifiedAt = s.stamp(p.ModifiedAt)

	var updated models.Note
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo notes.Repository) error {
		stored, err := repo.Get(ctx, id, userID)
		if err != nil {
			return err
		}
		if stored.ModifiedAt.After(p.ModifiedAt) {
			return common.ErrVersionConflict
		}

		updated = p.Apply(*stored)
		return repo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *NoteService) Delete(ctx context.Context, id, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repo notes.Repository) error {
		return repo.Delete(ctx, id, userID)
	})
}

func (s *NoteService) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Truncate(common.TimestampPrecision)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user_id is required", common.ErrorValidation)
	}
	return nil
}
