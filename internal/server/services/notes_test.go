package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type memRepo struct {
	notes.Repository
	byID      map[string]models.Note
	updateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]models.Note{}}
}

func (r *memRepo) Create(ctx context.Context, n *models.Note) error {
	r.byID[n.ID] = *n
	return nil
}

func (r *memRepo) Get(ctx context.Context, id, userID string) (*models.Note, error) {
	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &n, nil
}

func (r *memRepo) ListByUser(ctx context.Context, userID string) ([]models.Note, error) {
	out := []models.Note{}
	for _, n := range r.byID {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, n *models.Note) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.byID[n.ID] = *n
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id, userID string) error {
	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type memStore struct {
	repo *memRepo
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo notes.Repository) error) error {
	return fn(ctx, s.repo)
}

func (s *memStore) Ping(ctx context.Context) error  { return nil }
func (s *memStore) Close(ctx context.Context) error { return nil }

var now = time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

func newService() (*NoteService, *memRepo) {
	repo := newMemRepo()
	s := NewNoteService(&memStore{repo: repo}, logging.NewNop())
	s.now = func() time.Time { return now }
	s.newID = func() string { return "srv-1" }
	return s, repo
}

func strPtr(s string) *string { return &s }

func TestCreate_AssignsIDAndDefaultsTimestamps(t *testing.T) {
	s, repo := newService()

	n, err := s.Create(context.Background(), CreateInput{UserID: "u1", Title: "t", Content: "c"})
	require.NoError(t, err)

	assert.Equal(t, "srv-1", n.ID)
	want := now.Truncate(time.Millisecond)
	assert.Equal(t, want, n.CreatedAt)
	assert.Equal(t, want, n.ModifiedAt)
	assert.Contains(t, repo.byID, "srv-1")
}

func TestCreate_KeepsClientTimestamps(t *testing.T) {
	s, _ := newService()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	modified := created.Add(time.Hour)

	n, err := s.Create(context.Background(), CreateInput{UserID: "u1", CreatedAt: created, ModifiedAt: modified})
	require.NoError(t, err)
	assert.Equal(t, created, n.CreatedAt)
	assert.Equal(t, modified, n.ModifiedAt)
}

func TestCreate_RequiresUser(t *testing.T) {
	s, repo := newService()

	_, err := s.Create(context.Background(), CreateInput{Title: "t"})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, repo.byID)
}

func TestGet_OtherUserIsNotFound(t *testing.T) {
	s, repo := newService()
	repo.byID["n1"] = models.Note{ID: "n1", UserID: "u1"}

	_, err := s.Get(context.Background(), "n1", "u2")
	require.ErrorIs(t, err, common.ErrorNotFound)

	n, err := s.Get(context.Background(), "n1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
}

func TestList_OnlyOwnNotes(t *testing.T) {
	s, repo := newService()
	repo.byID["n1"] = models.Note{ID: "n1", UserID: "u1"}
	repo.byID["n2"] = models.Note{ID: "n2", UserID: "u2"}

	list, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
}

func TestUpdate_LastWriteWins(t *testing.T) {
	stored := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		modified time.Time
		wantErr  error
	}{
		{"newer edit applied", stored.Add(time.Second), nil},
		{"equal timestamp applied", stored, nil},
		{"older edit rejected", stored.Add(-time.Second), common.ErrVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo := newService()
			repo.byID["n1"] = models.Note{ID: "n1", UserID: "u1", Title: "old", Content: "body", ModifiedAt: stored}

			n, err := s.Update(context.Background(), "n1", "u1", models.NotePatch{Title: strPtr("new"), ModifiedAt: tt.modified})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "old", repo.byID["n1"].Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "new", n.Title)
			assert.Equal(t, "body", n.Content)
			assert.Equal(t, tt.modified, repo.byID["n1"].ModifiedAt)
		})
	}
}

func TestUpdate_Missing(t *testing.T) {
	s, _ := newService()

	_, err := s.Update(context.Background(), "nope", "u1", models.NotePatch{ModifiedAt: now})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_RaceLostInRepository(t *testing.T) {
	s, repo := newService()
	repo.byID["n1"] = models.Note{ID: "n1", UserID: "u1"}
	repo.updateErr = common.ErrVersionConflict

	_, err := s.Update(context.Background(), "n1", "u1", models.NotePatch{ModifiedAt: now})
	require.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestDelete(t *testing.T) {
	s, repo := newService()
	repo.byID["n1"] = models.Note{ID: "n1", UserID: "u1"}

	require.ErrorIs(t, s.Delete(context.Background(), "n1", "u2"), common.ErrorNotFound)
	require.NoError(t, s.Delete(context.Background(), "n1", "u1"))
	assert.Empty(t, repo.byID)

	err := s.Delete(context.Background(), "n1", "")
	assert.True(t, errors.Is(err, common.ErrorValidation))
}
