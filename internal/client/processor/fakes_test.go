package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

type onlineFlag struct{ v atomic.Bool }

func (o *onlineFlag) Online() bool { return o.v.Load() }

// fakeRemote is an in-memory server. Hooks override the default behavior.
type fakeRemote struct {
	mu     sync.Mutex
	notes  map[string]models.Note
	calls  []string
	nextID int

	createHook func(in client.CreateInput) (*models.Note, error)
	updateHook func(id string, in client.UpdateInput) (*models.Note, error)
	deleteHook func(id string) error
	getHook    func(id string) (*models.Note, error)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{notes: make(map[string]models.Note)}
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) Close() error { return nil }
func (f *fakeRemote) Ping(ctx context.Context) error { return nil }

func (f *fakeRemote) Create(ctx context.Context, in client.CreateInput) (*models.Note, error) {
	f.record("create:" + in.Title)
	if f.createHook != nil {
		return f.createHook(in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n := models.Note{
		ID:           fmt.Sprintf("srv-%d", f.nextID),
		OwnerID:      in.OwnerID,
		Title:        in.Title,
		Body:         in.Body,
		CreatedAt:    in.CreatedAt,
		LastModified: in.LastModified,
	}
	f.notes[n.ID] = n
	return &n, nil
}

func (f *fakeRemote) Update(ctx context.Context, id, ownerID string, in client.UpdateInput) (*models.Note, error) {
	f.record("update:" + id)
	if f.updateHook != nil {
		return f.updateHook(id, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return nil, &client.RemoteError{Op: "update", StatusCode: 404, Kind: client.ErrNotFound}
	}
	if n.LastModified.After(in.LastModified) {
		return nil, &client.RemoteError{Op: "update", StatusCode: 409, Kind: client.ErrConflict}
	}
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Body != nil {
		n.Body = *in.Body
	}
	n.LastModified = in.LastModified
	f.notes[id] = n
	return &n, nil
}

func (f *fakeRemote) Delete(ctx context.Context, id, ownerID string) error {
	f.record("delete:" + id)
	if f.deleteHook != nil {
		return f.deleteHook(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return &client.RemoteError{Op: "delete", StatusCode: 404, Kind: client.ErrNotFound}
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeRemote) Get(ctx context.Context, id, ownerID string) (*models.Note, error) {
	f.record("get:" + id)
	if f.getHook != nil {
		return f.getHook(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return nil, &client.RemoteError{Op: "get", StatusCode: 404, Kind: client.ErrNotFound}
	}
	return &n, nil
}

func (f *fakeRemote) ListAll(ctx context.Context, ownerID string) ([]models.Note, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Note, 0, len(f.notes))
	for _, n := range f.notes {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRemote) put(n models.Note) {
	f.mu.Lock()
	f.notes[n.ID] = n
	f.mu.Unlock()
}

var _ client.Client = (*fakeRemote)(nil)
