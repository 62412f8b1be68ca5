package cli

import (
	"context"
	"fmt"
	"strings"
)

// execIface defines the command surface shared by the REPL and the
// one-shot subcommands. The real App type satisfies this interface; tests
// can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error
	Unarchive(ctx context.Context, args []string) error
	Trash(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Pull(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Failed(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
}

type command struct {
	name    string
	aliases []string
	usage   string
	short   string
	maxArgs int // -1 for any
	run     func(a execIface, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "add", aliases: []string{"a", "new"}, usage: "[title]", short: "Create a note", maxArgs: -1, run: execIface.Add},
	{name: "edit", aliases: []string{"e"}, usage: "[id]", short: "Change the title or body of a note", maxArgs: 1, run: execIface.Edit},
	{name: "list", aliases: []string{"l", "ls"}, usage: "[active|archived|trash|all]", short: "List notes", maxArgs: 1, run: execIface.List},
	{name: "search", aliases: []string{"find"}, usage: "[query]", short: "Find notes by title or body", maxArgs: -1, run: execIface.Search},
	{name: "show", usage: "[id]", short: "Print a note", maxArgs: 1, run: execIface.Show},
	{name: "archive", usage: "[id]", short: "Archive a note", maxArgs: 1, run: execIface.Archive},
	{name: "unarchive", usage: "[id]", short: "Return an archived note to the active list", maxArgs: 1, run: execIface.Unarchive},
	{name: "trash", usage: "[id]", short: "Move a note to the trash", maxArgs: 1, run: execIface.Trash},
	{name: "restore", usage: "[id]", short: "Take a note out of the trash", maxArgs: 1, run: execIface.Restore},
	{name: "delete", aliases: []string{"rm"}, usage: "[id]", short: "Delete a note permanently", maxArgs: 1, run: execIface.Delete},
	{name: "sync", aliases: []string{"s"}, short: "Push queued changes to the server", maxArgs: 0, run: execIface.Sync},
	{name: "pull", short: "Fetch the server's notes", maxArgs: 0, run: execIface.Pull},
	{name: "status", aliases: []string{"st"}, short: "Show the sync status", maxArgs: 0, run: execIface.Status},
	{name: "failed", short: "List operations that stopped retrying", maxArgs: 0, run: execIface.Failed},
	{name: "retry", usage: "[operation-id]", short: "Retry a failed operation", maxArgs: 1, run: execIface.Retry},
	{name: "backup", short: "Upload a snapshot of the local store", maxArgs: 0, run: execIface.Backup},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, al := range c.aliases {
			if al == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range commands {
		use := strings.TrimSpace(c.name + " " + c.usage)
		fmt.Fprintf(&b, "  %-36s %s\n", use, c.short)
	}
	fmt.Fprintf(&b, "  %-36s %s", "exit", "Leave the program")
	return b.String()
}
