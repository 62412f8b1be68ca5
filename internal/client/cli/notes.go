package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
)

var errNoID = errors.New("note id is required")

const timeLayout = "2006-01-02 15:04:05"

// noteID takes the id from the first argument or asks for it.
func (a *App) noteID(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errNoID
	}
	return id, nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		if title, err = GetSimpleText(a.reader, "Title", a.out); err != nil {
			return err
		}
	}

	body, err := GetMultiline(a.reader, "Body", a.out)
	if err != nil {
		return err
	}

	n, err := a.notes.Create(ctx, title, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created note %s\n", n.ID)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.noteID(args, "Enter note id to edit")
	if err != nil {
		return err
	}

	n, err := a.notes.Get(ctx, id)
	if err != nil {
		return err
	}

	var in services.UpdateInput

	title, err := GetSimpleText(a.reader, fmt.Sprintf("Title [%s] (empty keeps it)", n.DisplayTitle()), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		in.Title = &title
	}

	body, err := GetMultiline(a.reader, "Body (empty keeps it)", a.out)
	if err != nil {
		return err
	}
	if body != "" {
		in.Body = &body
	}

	if in.Title == nil && in.Body == nil {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}

	n, err = a.notes.Update(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated note %s\n", n.ID)
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	view := models.ViewActive
	if len(args) > 0 {
		view = models.ParseNoteView(args[0])
	}

	list, err := a.notes.List(ctx, view)
	if err != nil {
		return err
	}
	a.printNotes(list)
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		var err error
		if query, err = GetSimpleText(a.reader, "Search for", a.out); err != nil {
			return err
		}
	}

	list, err := a.notes.Search(ctx, query, models.ViewAll)
	if err != nil {
		return err
	}
	a.printNotes(list)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.noteID(args, "Enter note id to show")
	if err != nil {
		return err
	}

	n, err := a.notes.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, n.DisplayTitle())
	fmt.Fprintf(a.out, "ID: %s\n", n.ID)
	fmt.Fprintf(a.out, "Created: %s\n", n.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(a.out, "Modified: %s\n", n.LastModified.Local().Format(timeLayout))
	if f := flags(*n); f != "" {
		fmt.Fprintf(a.out, "Flags: %s\n", f)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, n.Body)
	return nil
}

func (a *App) Archive(ctx context.Context, args []string) error {
	return a.lifecycle(ctx, args, "archive", "Archived", a.notes.Archive)
}

func (a *App) Unarchive(ctx context.Context, args []string) error {
	return a.lifecycle(ctx, args, "unarchive", "Unarchived", a.notes.Unarchive)
}

func (a *App) Trash(ctx context.Context, args []string) error {
	return a.lifecycle(ctx, args, "move to trash", "Trashed", a.notes.Trash)
}

func (a *App) Restore(ctx context.Context, args []string) error {
	return a.lifecycle(ctx, args, "restore", "Restored", a.notes.Restore)
}

func (a *App) lifecycle(ctx context.Context, args []string, verb, done string,
	fn func(context.Context, string) (*models.Note, error)) error {

	id, err := a.noteID(args, "Enter note id to "+verb)
	if err != nil {
		return err
	}
	n, err := fn(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s note %s\n", done, n.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.noteID(args, "Enter note id to delete")
	if err != nil {
		return err
	}
	if a.interactive {
		ok, err := GetConfirmation(a.reader, fmt.Sprintf("Delete note %s permanently?", id), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled")
			return nil
		}
	}
	if err := a.notes.DeletePermanently(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted note %s\n", id)
	return nil
}

func (a *App) printNotes(list []models.Note) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No notes")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMODIFIED\tFLAGS")
	for _, n := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.DisplayTitle(), n.LastModified.Local().Format(timeLayout), flags(n))
	}
	_ = w.Flush()
}

func flags(n models.Note) string {
	var f []string
	if n.Archived {
		f = append(f, "archived")
	}
	if n.Deleted {
		f = append(f, "trash")
	}
	return strings.Join(f, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}
