package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/conflict"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/queue"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/notes"
)

// applied describes what a successful dispatch changed locally.
type applied struct {
	noteID   string
	conflict *models.Conflict
	// requeue is set when the note was edited while its operation was in
	// flight; the newer content still has to reach the server.
	requeue *models.Note
}

func localErr(err error) error {
	return fmt.Errorf("%w: %v", client.ErrLocalDataNotAvailable, err)
}

// retryable separates transient failures from ones the server will keep
// rejecting.
func retryable(err error) bool {
	return client.IsRetryable(err) || errors.Is(err, client.ErrLocalDataNotAvailable)
}

func (p *Processor) process(ctx context.Context, opID string) outcome {
	current, err := p.queue.Get(ctx, opID)
	if err != nil {
		if !errors.Is(err, queue.ErrNotFound) {
			p.logger.Error(ctx, "failed to load operation", "op_id", opID, "error", err)
		}
		return outcome{}
	}
	if current.Status != models.StatusPending {
		return outcome{noteID: current.NoteID}
	}

	blocked, err := p.blocked(ctx, *current)
	if err != nil {
		p.logger.Error(ctx, "failed to check note ordering", "op_id", opID, "error", err)
		return outcome{noteID: current.NoteID}
	}
	if blocked {
		p.logger.Debug(ctx, "operation waits for an earlier one", "op_id", opID, "note_id", current.NoteID)
		return outcome{noteID: current.NoteID}
	}

	op, err := p.queue.MarkSyncing(ctx, opID)
	if err != nil {
		if !errors.Is(err, queue.ErrNotFound) {
			p.logger.Error(ctx, "failed to mark operation syncing", "op_id", opID, "error", err)
		}
		return outcome{noteID: current.NoteID}
	}

	res, err := p.dispatch(ctx, op)
	if err != nil {
		return p.fail(ctx, op, err)
	}

	if err := p.queue.MarkSynced(ctx, op.ID); err != nil {
		p.logger.Error(ctx, "failed to remove synced operation", "op_id", op.ID, "error", err)
	}
	p.recordSync(ctx)

	if res.requeue != nil {
		next, created, err := p.queue.Enqueue(ctx, models.OperationUpdate, *res.requeue)
		if err != nil {
			p.logger.Error(ctx, "failed to queue follow-up update", "note_id", res.noteID, "error", err)
		} else if created {
			p.Kick(next.ID)
		}
	}

	p.logger.Debug(ctx, "operation synced", "op_id", op.ID, "kind", op.Kind, "note_id", res.noteID)
	return outcome{noteID: res.noteID, synced: true, conflict: res.conflict}
}

// blocked reports whether an older operation of the same note has not been
// confirmed yet. Operations of one note reach the server in queue order.
func (p *Processor) blocked(ctx context.Context, op models.SyncOperation) (bool, error) {
	ops, err := p.queue.ForNote(ctx, op.NoteID)
	if err != nil {
		return false, err
	}
	for _, other := range ops {
		if other.ID == op.ID {
			return false, nil
		}
		if other.Status == models.StatusPending || other.Status == models.StatusSyncing {
			return true, nil
		}
	}
	return false, nil
}

func (p *Processor) fail(ctx context.Context, op models.SyncOperation, cause error) outcome {
	terminal := !retryable(cause)

	updated, err := p.queue.MarkFailed(ctx, op.ID, cause, terminal)
	if err != nil {
		p.logger.Error(ctx, "failed to record sync failure", "op_id", op.ID, "error", err)
		return outcome{noteID: op.NoteID}
	}

	if updated.Status == models.StatusFailed {
		return outcome{noteID: op.NoteID, failed: &updated}
	}

	p.logger.Info(ctx, "sync attempt failed, will retry", "op_id", op.ID, "kind", op.Kind,
		"retry_count", updated.RetryCount, "error", cause)
	p.scheduleRetry(updated)
	return outcome{noteID: op.NoteID}
}

func (p *Processor) dispatch(ctx context.Context, op models.SyncOperation) (applied, error) {
	switch op.Kind {
	case models.OperationCreate:
		return p.pushCreate(ctx, op)
	case models.OperationUpdate:
		return p.pushUpdate(ctx, op)
	case models.OperationDelete:
		return p.pushDelete(ctx, op)
	default:
		return applied{}, fmt.Errorf("%w: unknown operation kind %q", client.ErrRejected, op.Kind)
	}
}

// loadLocal reads the note an operation refers to. The queued payload is
// only a snapshot; the stored note is the source of truth at dispatch time.
// A missing note yields (nil, nil).
func (p *Processor) loadLocal(ctx context.Context, id string) (*models.Note, error) {
	n, err := p.notes.Get(ctx, id)
	if errors.Is(err, notes.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, localErr(err)
	}
	return n, nil
}

func (p *Processor) pushCreate(ctx context.Context, op models.SyncOperation) (applied, error) {
	sent, err := p.loadLocal(ctx, op.NoteID)
	if err != nil {
		return applied{}, err
	}
	if sent == nil {
		// Deleted locally before it ever reached the server.
		return applied{noteID: op.NoteID}, nil
	}

	remote, err := p.remote.Create(ctx, client.CreateInputFrom(*sent))
	if err != nil {
		return applied{}, err
	}
	return p.adoptCreated(ctx, *sent, *remote)
}

// adoptCreated replaces the local row with the server's copy, which may carry
// a new ID, and points queued operations of the note at that ID.
func (p *Processor) adoptCreated(ctx context.Context, sent, remote models.Note) (applied, error) {
	res := applied{noteID: remote.ID}

	current, err := p.loadLocal(ctx, sent.ID)
	if err != nil {
		return applied{}, err
	}
	if current == nil {
		// Deleted while in flight; the queued delete must hit the server ID.
		if err := p.queue.Retarget(ctx, sent.ID, remote.ID); err != nil {
			return applied{}, localErr(err)
		}
		return res, nil
	}

	merged := remote.WithFlagsOf(*current)
	if current.LastModified.After(sent.LastModified) {
		merged.Title = current.Title
		merged.Body = current.Body
		merged.LastModified = current.LastModified
		res.requeue = &merged
	}

	if err := p.notes.Put(ctx, merged); err != nil {
		return applied{}, localErr(err)
	}
	if remote.ID != sent.ID {
		if err := p.notes.Delete(ctx, sent.ID); err != nil {
			return applied{}, localErr(err)
		}
		if err := p.queue.Retarget(ctx, sent.ID, remote.ID); err != nil {
			return applied{}, localErr(err)
		}
		p.logger.Debug(ctx, "note id replaced by server", "local_id", sent.ID, "server_id", remote.ID)
	}
	return res, nil
}

func (p *Processor) pushUpdate(ctx context.Context, op models.SyncOperation) (applied, error) {
	sent, err := p.loadLocal(ctx, op.NoteID)
	if err != nil {
		return applied{}, err
	}
	if sent == nil {
		return applied{noteID: op.NoteID}, nil
	}

	remote, err := p.remote.Update(ctx, sent.ID, sent.OwnerID, client.UpdateInputFrom(*sent))
	if errors.Is(err, client.ErrConflict) {
		return p.resolveConflict(ctx, *sent)
	}
	if err != nil {
		return applied{}, err
	}

	res := applied{noteID: sent.ID}
	current, err := p.loadLocal(ctx, sent.ID)
	if err != nil {
		return applied{}, err
	}
	if current == nil {
		return res, nil
	}
	if current.LastModified.After(sent.LastModified) {
		res.requeue = current
		return res, nil
	}

	if err := p.notes.Put(ctx, remote.WithFlagsOf(*current)); err != nil {
		return applied{}, localErr(err)
	}
	return res, nil
}

// resolveConflict applies last-write-wins after the server refused an update
// because its copy is newer.
func (p *Processor) resolveConflict(ctx context.Context, sent models.Note) (applied, error) {
	remote, err := p.remote.Get(ctx, sent.ID, sent.OwnerID)
	if err != nil {
		return applied{}, err
	}

	local, err := p.loadLocal(ctx, sent.ID)
	if err != nil {
		return applied{}, err
	}
	if local == nil {
		// deleted locally while the update was in flight; the queued delete settles it
		return applied{noteID: sent.ID}, nil
	}

	c := conflict.Resolve(*local, *remote)
	if c.Winner == models.WinnerLocal {
		pushed, err := p.remote.Update(ctx, local.ID, local.OwnerID, client.UpdateInputFrom(*local))
		if err != nil {
			return applied{}, err
		}
		c.Merged = pushed.WithFlagsOf(*local)
	}

	if err := p.notes.Put(ctx, c.Merged); err != nil {
		return applied{}, localErr(err)
	}

	p.logger.Info(ctx, conflict.Message(c), "note_id", c.NoteID, "winner", c.Winner)
	return applied{noteID: sent.ID, conflict: &c}, nil
}

func (p *Processor) pushDelete(ctx context.Context, op models.SyncOperation) (applied, error) {
	err := p.remote.Delete(ctx, op.NoteID, op.OwnerID)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return applied{}, err
	}
	return applied{noteID: op.NoteID}, nil
}

func (p *Processor) recordSync(ctx context.Context) {
	if err := p.meta.SetTime(ctx, metadata.KeyLastSyncedAt, p.now().UTC()); err != nil {
		p.logger.Warn(ctx, "failed to record last sync time", "error", err)
	}
}
