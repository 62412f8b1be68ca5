package operations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const opColumns = `id, kind, note_id, owner_id, payload, status, enqueued_at, retry_count, last_error`

const fifoOrder = ` ORDER BY enqueued_at, id`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.SyncOperation, error) {
	op, err := scanOperation(r.db.QueryRowContext(ctx, `SELECT `+opColumns+` FROM sync_operations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation[%s]: %w", id, err)
	}
	return op, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, op models.SyncOperation) error {
	var payload sql.NullString
	if op.Payload != nil {
		b, err := json.Marshal(op.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload of operation[%s]: %w", op.ID, err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_operations (`+opColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			note_id = excluded.note_id,
			owner_id = excluded.owner_id,
			payload = excluded.payload,
			status = excluded.status,
			enqueued_at = excluded.enqueued_at,
			retry_count = excluded.retry_count,
			last_error = excluded.last_error
	`, op.ID, string(op.Kind), op.NoteID, op.OwnerID, payload, string(op.Status),
		op.EnqueuedAt.UnixNano(), op.RetryCount, op.LastError)
	if err != nil {
		return fmt.Errorf("failed to put operation[%s]: %w", op.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete operation[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, status models.OperationStatus) ([]models.SyncOperation, error) {
	return r.list(ctx, `SELECT `+opColumns+` FROM sync_operations WHERE status = ?`+fifoOrder, string(status))
}

func (r *SQLiteRepository) ListByNote(ctx context.Context, noteID string) ([]models.SyncOperation, error) {
	return r.list(ctx, `SELECT `+opColumns+` FROM sync_operations WHERE note_id = ?`+fifoOrder, noteID)
}

func (r *SQLiteRepository) FindActive(ctx context.Context, noteID string, kind models.OperationKind) (*models.SyncOperation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+opColumns+` FROM sync_operations
		WHERE note_id = ? AND kind = ? AND status IN (?, ?)`+fifoOrder+` LIMIT 1`,
		noteID, string(kind), string(models.StatusPending), string(models.StatusSyncing))
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active %s operation for note[%s]: %w", kind, noteID, err)
	}
	return op, nil
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[models.OperationStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_operations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}
	defer rows.Close()

	result := make(map[models.OperationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan operation count: %w", err)
		}
		result[models.OperationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation counts: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Retarget(ctx context.Context, oldNoteID, newNoteID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sync_operations SET note_id = ? WHERE note_id = ?`, newNoteID, oldNoteID)
	if err != nil {
		return fmt.Errorf("failed to retarget operations of note[%s]: %w", oldNoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.SyncOperation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	result := make([]models.SyncOperation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		result = append(result, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(s scanner) (*models.SyncOperation, error) {
	var (
		op             models.SyncOperation
		kind, status   string
		payload        sql.NullString
		enqueuedAtNano int64
	)
	if err := s.Scan(&op.ID, &kind, &op.NoteID, &op.OwnerID, &payload, &status,
		&enqueuedAtNano, &op.RetryCount, &op.LastError); err != nil {
		return nil, err
	}
	op.Kind = models.OperationKind(kind)
	op.Status = models.OperationStatus(status)
	op.EnqueuedAt = time.Unix(0, enqueuedAtNano).UTC()
	if payload.Valid {
		var p models.NotePayload
		if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		op.Payload = &p
	}
	return &op, nil
}
