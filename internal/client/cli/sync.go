package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophnotes/internal/client/backup"
	"github.com/dmitrijs2005/gophnotes/internal/client/conflict"
	"github.com/dmitrijs2005/gophnotes/internal/client/processor"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
)

func (a *App) Sync(ctx context.Context, args []string) error {
	res, err := a.notes.SyncNow(ctx)
	if errors.Is(err, services.ErrOffline) {
		fmt.Fprintln(a.out, "Offline: changes stay queued until the server is reachable")
		return nil
	}
	if err != nil {
		return err
	}
	a.printResult(res)
	return nil
}

func (a *App) Pull(ctx context.Context, args []string) error {
	res, err := a.notes.Pull(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pulled: %d new, %d refreshed, %d skipped\n", res.Inserted, res.Refreshed, res.Skipped)
	for _, c := range res.Conflicts {
		fmt.Fprintln(a.out, conflict.Message(c))
	}
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	st, err := a.notes.Status(ctx)
	if err != nil {
		return err
	}
	a.printState(st)
	return nil
}

func (a *App) Failed(ctx context.Context, args []string) error {
	ops, err := a.notes.ListFailed(ctx)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		fmt.Fprintln(a.out, "No failed operations")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNOTE\tRETRIES\tERROR")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", op.ID, op.Kind, op.NoteID, op.RetryCount, op.LastError)
	}
	return w.Flush()
}

func (a *App) Retry(ctx context.Context, args []string) error {
	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		var err error
		if id, err = GetSimpleText(a.reader, "Enter operation id to retry", a.out); err != nil {
			return err
		}
	}

	res, err := a.notes.RetryFailed(ctx, id)
	if err != nil {
		return err
	}
	a.printResult(res)
	return nil
}

func (a *App) Backup(ctx context.Context, args []string) error {
	b, err := newBackup(ctx, backup.Config{
		Region:       a.config.S3Region,
		AccessKey:    a.config.S3AccessKey,
		SecretKey:    a.config.S3SecretKey,
		BaseEndpoint: a.config.S3BaseEndpoint,
		Bucket:       a.config.S3Bucket,
	})
	if err != nil {
		return err
	}

	key, err := b.Run(ctx, a.config.OwnerID, a.repos.Notes, a.queue)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup stored as %s\n", key)
	return nil
}

func (a *App) printResult(res processor.Result) {
	fmt.Fprintf(a.out, "Synced %d operation(s)\n", res.Processed)
	for _, c := range res.Conflicts {
		fmt.Fprintln(a.out, conflict.Message(c))
	}
	for _, op := range res.Failed {
		fmt.Fprintf(a.out, "Failed: %s %s (%s)\n", op.Kind, op.NoteID, op.LastError)
	}
}
