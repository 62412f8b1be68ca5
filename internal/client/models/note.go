// Package models defines the client-side data model of the note sync engine:
// notes, queued sync operations and the derived sync state.
package models

import (
	"time"
)

// TimestampPrecision is the resolution at which LastModified is kept.
// The server stores the same precision, so equal instants compare equal
// after a round trip.
const TimestampPrecision = time.Millisecond

// Note is the user-visible document.
type Note struct {
	ID      string
	OwnerID string
	Title   string
	Body    string

	// CreatedAt is set once, on local creation.
	CreatedAt time.Time
	// LastModified strictly increases on every local or remote mutation.
	LastModified time.Time

	// Archived and Deleted are local-only lifecycle flags; they never
	// travel to the server.
	Archived bool
	Deleted  bool
}

// DisplayTitle falls back to a placeholder for notes without a title.
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return "Untitled Note"
	}
	return n.Title
}

// Payload captures the content of the note that is sent to the server.
func (n Note) Payload() NotePayload {
	return NotePayload{
		OwnerID:      n.OwnerID,
		Title:        n.Title,
		Body:         n.Body,
		CreatedAt:    n.CreatedAt,
		LastModified: n.LastModified,
	}
}

// WithFlagsOf returns a copy of n carrying the lifecycle flags of local.
func (n Note) WithFlagsOf(local Note) Note {
	n.Archived = local.Archived
	n.Deleted = local.Deleted
	return n
}

// NextModified returns the LastModified value for a mutation happening at now.
// The result is truncated to TimestampPrecision and is always strictly later
// than prev, even when the clock has not advanced or went backwards.
func NextModified(prev, now time.Time) time.Time {
	t := now.UTC().Truncate(TimestampPrecision)
	if !t.After(prev) {
		t = prev.UTC().Truncate(TimestampPrecision).Add(TimestampPrecision)
	}
	return t
}

// NoteView selects a lifecycle subset of the owner's notes.
type NoteView string

const (
	ViewActive   NoteView = "active"
	ViewArchived NoteView = "archived"
	ViewTrash    NoteView = "trash"
	ViewAll      NoteView = "all"
)

// Matches reports whether n belongs to the view.
func (v NoteView) Matches(n Note) bool {
	switch v {
	case ViewActive:
		return !n.Archived && !n.Deleted
	case ViewArchived:
		return n.Archived && !n.Deleted
	case ViewTrash:
		return n.Deleted
	default:
		return true
	}
}

// ParseNoteView converts user input into a NoteView; unknown values map to ViewActive.
func ParseNoteView(s string) NoteView {
	switch NoteView(s) {
	case ViewArchived, ViewTrash, ViewAll:
		return NoteView(s)
	default:
		return ViewActive
	}
}
