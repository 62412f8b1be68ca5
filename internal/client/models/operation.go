package models

import "time"

// OperationKind is the remote mutation a SyncOperation carries.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// OperationStatus is the queue state of a SyncOperation.
//
//	pending -> syncing -> (removed)            on success
//	pending -> syncing -> pending              on retryable failure
//	pending -> syncing -> failed               when the retry bound is reached
//	failed  -> pending                         on manual retry
type OperationStatus string

const (
	StatusPending OperationStatus = "pending"
	StatusSyncing OperationStatus = "syncing"
	StatusFailed  OperationStatus = "failed"
	StatusSynced  OperationStatus = "synced"
)

// Terminal reports whether the status no longer participates in draining.
func (s OperationStatus) Terminal() bool {
	return s == StatusFailed || s == StatusSynced
}

// MaxRetryAttempts bounds the retry ladder of a single operation.
const MaxRetryAttempts = 3

// NotePayload is the snapshot of note content captured when an operation
// was enqueued. The processor refreshes it from the local store before
// dispatching, so it mostly documents what the user intended at the time.
type NotePayload struct {
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// SyncOperation is one durable, queued intent to mutate the server.
type SyncOperation struct {
	ID         string
	Kind       OperationKind
	NoteID     string
	OwnerID    string
	Payload    *NotePayload
	Status     OperationStatus
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}
