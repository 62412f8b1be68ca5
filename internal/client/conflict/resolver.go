// Package conflict implements last-write-wins resolution between the local
// and the server copy of a note.
package conflict

import (
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"golang.org/x/crypto/blake2b"
)

// Resolve picks the copy with the strictly later LastModified; a tie goes to
// the server. The merged note carries the winner's content and the local
// Archived/Deleted flags, since those never leave the device.
func Resolve(local, remote models.Note) models.Conflict {
	c := models.Conflict{NoteID: local.ID, Local: local, Remote: remote}

	if local.LastModified.After(remote.LastModified) {
		c.Winner = models.WinnerLocal
		c.Merged = local
	} else {
		c.Winner = models.WinnerRemote
		c.Merged = remote.WithFlagsOf(local)
		c.Merged.ID = local.ID
	}
	return c
}

// Diverged reports whether the two copies disagree in any synced attribute.
func Diverged(local, remote models.Note) bool {
	if !local.LastModified.Equal(remote.LastModified) {
		return true
	}
	return Fingerprint(local) != Fingerprint(remote)
}

// SameContent compares the synced content of two notes, ignoring timestamps.
func SameContent(a, b models.Note) bool {
	return Fingerprint(a) == Fingerprint(b)
}

// Fingerprint hashes the synced content of a note (title and body).
func Fingerprint(n models.Note) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	// Length prefixes keep ("ab","c") and ("a","bc") apart.
	fmt.Fprintf(h, "%d:%s|%d:%s", len(n.Title), n.Title, len(n.Body), n.Body)
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Message renders the user-facing notification for a resolved conflict.
func Message(c models.Conflict) string {
	resolution := "Server version was used"
	if c.Winner == models.WinnerLocal {
		resolution = "Your local version was kept"
	}
	return fmt.Sprintf("Conflict resolved for %q: %s (Last-Write-Wins)", c.Local.DisplayTitle(), resolution)
}
