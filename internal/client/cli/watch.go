package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// Watch runs the sync engine without a prompt and prints every change of
// the sync state until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	states, unsubscribe := a.aggregator.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.aggregator.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.monitor.Run(ctx, a.config.OnlineCheckInterval, a.config.StatusPollInterval)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case st, ok := <-states:
				if !ok {
					return nil
				}
				a.printState(st)
			}
		}
	})

	return g.Wait()
}

func (a *App) printState(st models.SyncState) {
	mode := "offline"
	if st.Online {
		mode = "online"
	}
	fmt.Fprintf(a.out, "Status: %s (%s)\n", st.Status, mode)
	fmt.Fprintf(a.out, "Pending: %d, syncing: %d, failed: %d\n", st.PendingCount, st.SyncingCount, st.FailedCount)
	fmt.Fprintf(a.out, "Last synced: %s\n", formatTime(st.LastSyncedAt))
}
