package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/conflict"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/processor"
	"github.com/dmitrijs2005/gophnotes/internal/client/queue"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrForbidden    = errors.New("note belongs to another user")
	ErrOffline      = errors.New("server is not reachable")
)

// Syncer is the part of the sync processor the service drives.
type Syncer interface {
	Drain(ctx context.Context) (processor.Result, error)
	RetryFailed(ctx context.Context, opID string) (processor.Result, error)
	Kick(opID string)
}

type StateSource interface {
	Refresh(ctx context.Context) (models.SyncState, error)
}

type Connectivity interface {
	Online() bool
}

// UpdateInput carries the fields to change; nil leaves a field as is.
type UpdateInput struct {
	Title *string
	Body  *string
}

// PullResult summarizes a reconciliation against the server's note list.
type PullResult struct {
	Inserted  int
	Refreshed int
	// Skipped counts notes left alone because they still have queued changes.
	Skipped   int
	Conflicts []models.Conflict
}

type NoteService interface {
	Create(ctx context.Context, title, body string) (*models.Note, error)
	Update(ctx context.Context, id string, in UpdateInput) (*models.Note, error)
	Archive(ctx context.Context, id string) (*models.Note, error)
	Unarchive(ctx context.Context, id string) (*models.Note, error)
	Trash(ctx context.Context, id string) (*models.Note, error)
	Restore(ctx context.Context, id string) (*models.Note, error)
	DeletePermanently(ctx context.Context, id string) error

	Get(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, view models.NoteView) ([]models.Note, error)
	Search(ctx context.Context, query string, view models.NoteView) ([]models.Note, error)
	Counts(ctx context.Context) (map[models.NoteView]int, error)

	Pull(ctx context.Context) (PullResult, error)
	SyncNow(ctx context.Context) (processor.Result, error)
	RetryFailed(ctx context.Context, opID string) (processor.Result, error)
	ListFailed(ctx context.Context) ([]models.SyncOperation, error)
	Status(ctx context.Context) (models.SyncState, error)
}

type noteService struct {
	ownerID string
	store   notes.Repository
	queue   *queue.Queue
	sync    Syncer
	remote  client.Client
	state   StateSource
	conn    Connectivity
	meta    metadata.Repository
	logger  logging.Logger
	now     func() time.Time
}

type Option func(*noteService)

func WithClock(now func() time.Time) Option {
	return func(s *noteService) { s.now = now }
}

func NewNoteService(ownerID string, store notes.Repository, q *queue.Queue, sync Syncer, remote client.Client,
	state StateSource, conn Connectivity, meta metadata.Repository, logger logging.Logger, opts ...Option) NoteService {

	s := &noteService{
		ownerID: ownerID,
		store:   store,
		queue:   q,
		sync:    sync,
		remote:  remote,
		state:   state,
		conn:    conn,
		meta:    meta,
		logger:  logger.With("module", "notes"),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *noteService) Create(ctx context.Context, title, body string) (*models.Note, error) {

	ts := s.now().UTC().Truncate(models.TimestampPrecision)
	n := models.Note{
		ID:           uuid.NewString(),
		OwnerID:      s.ownerID,
		Title:        title,
		Body:         body,
		CreatedAt:    ts,
		LastModified: ts,
	}

	if err := s.store.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	s.enqueue(ctx, models.OperationCreate, n)
	return &n, nil
}

func (s *noteService) Update(ctx context.Context, id string, in UpdateInput) (*models.Note, error) {

	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Body != nil {
		n.Body = *in.Body
	}
	n.LastModified = models.NextModified(n.LastModified, s.now())

	if err := s.store.Put(ctx, *n); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	s.enqueue(ctx, models.OperationUpdate, *n)
	return n, nil
}

// Archive, Unarchive, Trash and Restore change local-only flags; nothing is
// queued for the server.

func (s *noteService) Archive(ctx context.Context, id string) (*models.Note, error) {
	return s.mutateLocal(ctx, id, func(n *models.Note) { n.Archived = true })
}

func (s *noteService) Unarchive(ctx context.Context, id string) (*models.Note, error) {
	return s.mutateLocal(ctx, id, func(n *models.Note) { n.Archived = false })
}

func (s *noteService) Trash(ctx context.Context, id string) (*models.Note, error) {
	return s.mutateLocal(ctx, id, func(n *models.Note) {
		n.Deleted = true
		n.Archived = false
	})
}

func (s *noteService) Restore(ctx context.Context, id string) (*models.Note, error) {
	return s.mutateLocal(ctx, id, func(n *models.Note) { n.Deleted = false })
}

func (s *noteService) mutateLocal(ctx context.Context, id string, fn func(n *models.Note)) (*models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(n)
	n.LastModified = models.NextModified(n.LastModified, s.now())
	if err := s.store.Put(ctx, *n); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return n, nil
}

// DeletePermanently removes the note locally and drops its queued changes. A
// delete is sent to the server only if the server may already know the note.
func (s *noteService) DeletePermanently(ctx context.Context, id string) error {

	n, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}

	remoteKnown, err := s.queue.CollapseForNote(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to collapse queued operations", "note_id", id, "error", err)
		remoteKnown = true
	}
	if remoteKnown {
		s.enqueue(ctx, models.OperationDelete, *n)
	}
	return nil
}

func (s *noteService) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.load(ctx, id)
}

func (s *noteService) List(ctx context.Context, view models.NoteView) ([]models.Note, error) {

	all, err := s.store.ListByOwner(ctx, s.ownerID, view != models.ViewActive, view == models.ViewTrash || view == models.ViewAll)
	if err != nil {
		return nil, fmt.Errorf("error retrieving notes: %w", err)
	}

	result := make([]models.Note, 0, len(all))
	for _, n := range all {
		if view.Matches(n) {
			result = append(result, n)
		}
	}
	return result, nil
}

// Search returns the notes of a view whose title or body contains query,
// ignoring case. An empty query matches everything.
func (s *noteService) Search(ctx context.Context, query string, view models.NoteView) ([]models.Note, error) {
	list, err := s.List(ctx, view)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list, nil
	}

	result := list[:0]
	for _, n := range list {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Body), q) {
			result = append(result, n)
		}
	}
	return result, nil
}

func (s *noteService) Counts(ctx context.Context) (map[models.NoteView]int, error) {
	all, err := s.store.ListByOwner(ctx, s.ownerID, true, true)
	if err != nil {
		return nil, fmt.Errorf("error retrieving notes: %w", err)
	}

	counts := map[models.NoteView]int{models.ViewAll: len(all)}
	for _, n := range all {
		for _, v := range []models.NoteView{models.ViewActive, models.ViewArchived, models.ViewTrash} {
			if v.Matches(n) {
				counts[v]++
			}
		}
	}
	return counts, nil
}

// Pull reconciles the local store with the server's list of notes. Notes
// with queued changes or a requested delete are left to the processor;
// diverged ones are resolved last-write-wins and unknown ones are inserted.
// A local winner is queued for upload.
func (s *noteService) Pull(ctx context.Context) (PullResult, error) {
	var res PullResult

	if !s.conn.Online() {
		return res, ErrOffline
	}

	remoteNotes, err := s.remote.ListAll(ctx, s.ownerID)
	if err != nil {
		return res, fmt.Errorf("error fetching notes: %w", err)
	}

	toSave := make([]models.Note, 0, len(remoteNotes))
	var push []models.Note
	for _, r := range remoteNotes {
		busy, err := s.hasQueuedChanges(ctx, r.ID)
		if err != nil {
			return res, err
		}
		if busy {
			res.Skipped++
			continue
		}

		local, err := s.store.Get(ctx, r.ID)
		if errors.Is(err, notes.ErrNotFound) {
			toSave = append(toSave, r.WithFlagsOf(models.Note{}))
			res.Inserted++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("error retrieving note: %w", err)
		}

		if !conflict.Diverged(*local, r) {
			continue
		}

		c := conflict.Resolve(*local, r)
		toSave = append(toSave, c.Merged)
		res.Refreshed++
		if c.Winner == models.WinnerLocal {
			push = append(push, c.Merged)
		}
		if !conflict.SameContent(*local, r) {
			res.Conflicts = append(res.Conflicts, c)
			s.logger.Info(ctx, conflict.Message(c), "note_id", c.NoteID, "winner", c.Winner)
		}
	}

	if err := s.store.PutMany(ctx, toSave); err != nil {
		return res, fmt.Errorf("saving error: %w", err)
	}
	// The server still holds the older copy of a local winner.
	for _, n := range push {
		s.enqueue(ctx, models.OperationUpdate, n)
	}
	if err := s.meta.SetTime(ctx, metadata.KeyLastPulledAt, s.now().UTC()); err != nil {
		s.logger.Warn(ctx, "failed to record pull time", "error", err)
	}

	return res, nil
}

// hasQueuedChanges reports whether the processor still owns the note: an
// operation is pending or syncing, or a delete was requested at any point.
func (s *noteService) hasQueuedChanges(ctx context.Context, noteID string) (bool, error) {
	ops, err := s.queue.ForNote(ctx, noteID)
	if err != nil {
		return false, fmt.Errorf("error retrieving operations: %w", err)
	}
	for _, op := range ops {
		if !op.Status.Terminal() || op.Kind == models.OperationDelete {
			return true, nil
		}
	}
	return false, nil
}

func (s *noteService) SyncNow(ctx context.Context) (processor.Result, error) {
	if !s.conn.Online() {
		return processor.Result{}, ErrOffline
	}
	return s.sync.Drain(ctx)
}

func (s *noteService) RetryFailed(ctx context.Context, opID string) (processor.Result, error) {
	return s.sync.RetryFailed(ctx, opID)
}

func (s *noteService) ListFailed(ctx context.Context) ([]models.SyncOperation, error) {
	return s.queue.ListFailed(ctx)
}

func (s *noteService) Status(ctx context.Context) (models.SyncState, error) {
	return s.state.Refresh(ctx)
}

func (s *noteService) load(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.store.Get(ctx, id)
	if errors.Is(err, notes.ErrNotFound) {
		return nil, fmt.Errorf("%w: Note with id %s not found", ErrNoteNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving note: %w", err)
	}
	if n.OwnerID != s.ownerID {
		return nil, fmt.Errorf("%w: Note with id %s does not belong to user %s", ErrForbidden, id, s.ownerID)
	}
	return n, nil
}

// enqueue records the mutation for the server and, when online, attempts it
// right away. The local write already succeeded, so queue errors are only
// logged.
func (s *noteService) enqueue(ctx context.Context, kind models.OperationKind, n models.Note) {
	op, created, err := s.queue.Enqueue(ctx, kind, n)
	if err != nil {
		s.logger.Error(ctx, "failed to queue operation", "kind", kind, "note_id", n.ID, "error", err)
		return
	}
	if created && s.conn.Online() {
		s.sync.Kick(op.ID)
	}
}
