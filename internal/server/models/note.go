// Package models defines server-side data models persisted in the database.
package models

import "time"

// Note is the server copy of a user's note. The server keeps content only;
// archive and trash state live on the clients.
type Note struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	CreatedAt  time.Time `bson:"created_at"`
	ModifiedAt time.Time `bson:"modified_at"`
}

// NotePatch carries a partial update. Nil fields are left unchanged;
// ModifiedAt is the client's timestamp for the edit.
type NotePatch struct {
	Title      *string
	Content    *string
	ModifiedAt time.Time
}

// Apply returns n with the patch applied.
func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	n.ModifiedAt = p.ModifiedAt
	return n
}
