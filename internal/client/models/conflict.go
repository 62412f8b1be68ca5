package models

// Winner names the side whose content survived conflict resolution.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// Conflict describes one resolved divergence between the local and the
// server copy of a note.
type Conflict struct {
	NoteID string
	Local  Note
	Remote Note
	Winner Winner
	// Merged is the winner's content with the local lifecycle flags.
	Merged Note
}
