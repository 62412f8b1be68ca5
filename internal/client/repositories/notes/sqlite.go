package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const noteColumns = `id, owner_id, title, body, created_at, last_modified, archived, deleted`

const upsertNote = `
	INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		title = excluded.title,
		body = excluded.body,
		created_at = excluded.created_at,
		last_modified = excluded.last_modified,
		archived = excluded.archived,
		deleted = excluded.deleted
`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note[%s]: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, n models.Note) error {
	if err := putNote(ctx, r.db, n); err != nil {
		return fmt.Errorf("failed to put note[%s]: %w", n.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) PutMany(ctx context.Context, ns []models.Note) error {
	if len(ns) == 0 {
		return nil
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, n := range ns {
			if err := putNote(ctx, tx, n); err != nil {
				return fmt.Errorf("note[%s]: %w", n.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put notes: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string, includeArchived, includeDeleted bool) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY last_modified DESC, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	result := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}

func putNote(ctx context.Context, db dbx.DBTX, n models.Note) error {
	_, err := db.ExecContext(ctx, upsertNote,
		n.ID, n.OwnerID, n.Title, n.Body,
		n.CreatedAt.UnixMilli(), n.LastModified.UnixMilli(),
		n.Archived, n.Deleted)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var (
		n                 models.Note
		created, modified int64
		archived, deleted bool
	)
	if err := s.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Body, &created, &modified, &archived, &deleted); err != nil {
		return nil, err
	}
	n.CreatedAt = time.UnixMilli(created).UTC()
	n.LastModified = time.UnixMilli(modified).UTC()
	n.Archived = archived
	n.Deleted = deleted
	return &n, nil
}
