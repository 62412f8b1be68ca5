package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE notes (
  id            TEXT PRIMARY KEY,
  owner_id      TEXT NOT NULL,
  title         TEXT NOT NULL DEFAULT '',
  body          TEXT NOT NULL DEFAULT '',
  created_at    INTEGER NOT NULL,
  last_modified INTEGER NOT NULL,
  archived      INTEGER NOT NULL DEFAULT 0,
  deleted       INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

func note(id, owner string, modified time.Time) models.Note {
	return models.Note{
		ID:           id,
		OwnerID:      owner,
		Title:        "title " + id,
		Body:         "body " + id,
		CreatedAt:    modified.Add(-time.Hour),
		LastModified: modified,
	}
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPutAndGet_RoundTrip(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := note("n1", "u1", base)
	n.Archived = true
	require.NoError(t, r.Put(ctx, n))

	got, err := r.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, n, *got)
}

func TestGet_Missing_ReturnsErrNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, got)
}

func TestPut_UpsertReplacesContent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := note("n1", "u1", base)
	require.NoError(t, r.Put(ctx, n))

	n.Title = "changed"
	n.LastModified = base.Add(time.Minute)
	n.Deleted = true
	require.NoError(t, r.Put(ctx, n))

	got, err := r.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
	assert.True(t, got.Deleted)
	assert.Equal(t, base.Add(time.Minute), got.LastModified)
}

func TestDelete_RemovesAndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, note("n1", "u1", base)))
	require.NoError(t, r.Delete(ctx, "n1"))

	_, err := r.Get(ctx, "n1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, "n1"))
}

func TestListByOwner_FiltersAndOrders(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	active := note("a", "u1", base)
	newer := note("b", "u1", base.Add(time.Minute))
	archived := note("c", "u1", base.Add(2*time.Minute))
	archived.Archived = true
	trashed := note("d", "u1", base.Add(3*time.Minute))
	trashed.Deleted = true
	foreign := note("e", "u2", base)

	require.NoError(t, r.PutMany(ctx, []models.Note{active, newer, archived, trashed, foreign}))

	got, err := r.ListByOwner(ctx, "u1", false, false)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, ids(got))

	got, err = r.ListByOwner(ctx, "u1", true, false)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, ids(got))

	got, err = r.ListByOwner(ctx, "u1", true, true)
	require.NoError(t, err)
	require.Equal(t, []string{"d", "c", "b", "a"}, ids(got))

	got, err = r.ListByOwner(ctx, "nobody", true, true)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPutMany_Empty_NoOp(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	require.NoError(t, r.PutMany(context.Background(), nil))
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get note[k]")

	err = r.Put(ctx, note("k", "u", base))
	require.ErrorContains(t, err, "failed to put note[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete note[k]")

	_, err = r.ListByOwner(ctx, "u", true, true)
	require.ErrorContains(t, err, "failed to list notes")

	err = r.PutMany(ctx, []models.Note{note("k", "u", base)})
	require.ErrorContains(t, err, "failed to put notes")
}

func ids(ns []models.Note) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}
