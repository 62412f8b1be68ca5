package models

import "time"

// SyncStatus is the single observable status of the sync engine.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusOffline SyncStatus = "offline"
)

// SyncState is derived on demand from the queue and connectivity. It is
// never persisted.
type SyncState struct {
	Status       SyncStatus
	PendingCount int
	SyncingCount int
	FailedCount  int
	Online       bool
	LastSyncedAt *time.Time
}

// Equal compares two states, including the optional timestamp.
func (s SyncState) Equal(o SyncState) bool {
	if s.Status != o.Status || s.PendingCount != o.PendingCount ||
		s.SyncingCount != o.SyncingCount || s.FailedCount != o.FailedCount || s.Online != o.Online {
		return false
	}
	switch {
	case s.LastSyncedAt == nil && o.LastSyncedAt == nil:
		return true
	case s.LastSyncedAt == nil || o.LastSyncedAt == nil:
		return false
	default:
		return s.LastSyncedAt.Equal(*o.LastSyncedAt)
	}
}
