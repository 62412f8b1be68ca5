package conflict

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func pair(localAt, remoteAt time.Time) (models.Note, models.Note) {
	local := models.Note{ID: "n1", OwnerID: "u1", Title: "local", Body: "L", LastModified: localAt, Archived: true}
	remote := models.Note{ID: "n1", OwnerID: "u1", Title: "remote", Body: "R", LastModified: remoteAt}
	return local, remote
}

func TestResolve_LocalNewerWins(t *testing.T) {
	local, remote := pair(t0.Add(time.Second), t0)

	c := Resolve(local, remote)
	require.Equal(t, models.WinnerLocal, c.Winner)
	assert.Equal(t, local, c.Merged)
	assert.Equal(t, "n1", c.NoteID)
}

func TestResolve_RemoteNewerWinsAndKeepsLocalFlags(t *testing.T) {
	local, remote := pair(t0, t0.Add(time.Second))
	local.Deleted = true

	c := Resolve(local, remote)
	require.Equal(t, models.WinnerRemote, c.Winner)
	assert.Equal(t, "remote", c.Merged.Title)
	assert.Equal(t, "R", c.Merged.Body)
	assert.True(t, c.Merged.Archived)
	assert.True(t, c.Merged.Deleted)
	assert.True(t, c.Merged.LastModified.Equal(remote.LastModified))
}

func TestResolve_TieGoesToRemote(t *testing.T) {
	local, remote := pair(t0, t0)

	c := Resolve(local, remote)
	require.Equal(t, models.WinnerRemote, c.Winner)
	assert.Equal(t, "remote", c.Merged.Title)
}

func TestResolve_IsDeterministic(t *testing.T) {
	local, remote := pair(t0, t0.Add(time.Minute))
	require.Equal(t, Resolve(local, remote), Resolve(local, remote))
}

func TestDiverged(t *testing.T) {
	local, remote := pair(t0, t0)
	assert.True(t, Diverged(local, remote), "same time, different content")

	remote.Title, remote.Body = local.Title, local.Body
	assert.False(t, Diverged(local, remote))

	remote.LastModified = t0.Add(time.Millisecond)
	assert.True(t, Diverged(local, remote))
}

func TestFingerprint_IgnoresFlagsAndSeparatesFields(t *testing.T) {
	a := models.Note{Title: "ab", Body: "c"}
	b := models.Note{Title: "a", Body: "bc"}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	flagged := a
	flagged.Archived = true
	flagged.LastModified = t0
	assert.True(t, SameContent(a, flagged))
}

func TestMessage(t *testing.T) {
	local, remote := pair(t0.Add(time.Second), t0)
	assert.Equal(t, `Conflict resolved for "local": Your local version was kept (Last-Write-Wins)`, Message(Resolve(local, remote)))

	local.Title = ""
	local.LastModified = t0
	assert.Equal(t, `Conflict resolved for "Untitled Note": Server version was used (Last-Write-Wins)`, Message(Resolve(local, remote)))
}
