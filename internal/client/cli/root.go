package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/config"
	"github.com/spf13/cobra"
)

// openApp is a test seam for NewApp.
var openApp = NewApp

// NewCmdRoot builds the gnotes command tree. Without a subcommand it starts
// the interactive session; every subcommand runs once against the same
// local store and exits.
func NewCmdRoot(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gnotes",
		Short: "Local-first notes that sync when the server is reachable",
		Long: `gnotes keeps notes in a local database and works without a connection.
Changes are queued and pushed to the server in the background; conflicting
edits are settled by last-write-wins.

  gnotes                 start the interactive session
  gnotes add "Groceries" create a note, body is read from stdin
  gnotes sync            push queued changes now`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				return a.Root(ctx)
			})
		},
	}

	config.BindFlags(cmd.PersistentFlags(), cfg)

	cmd.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "Start the interactive session",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Keep syncing in the foreground and print status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				return a.Watch(ctx)
			})
		},
	})
	for _, c := range commands {
		cmd.AddCommand(newCmdFor(c, cfg))
	}
	return cmd
}

func newCmdFor(c command, cfg *config.Config) *cobra.Command {
	use := c.name
	if c.usage != "" {
		use += " " + c.usage
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: c.aliases,
		Short:   c.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, a *App) error {
				a.Connect(ctx)
				err := c.run(a, ctx, args)
				a.Wait()
				return err
			})
		},
	}

	switch {
	case c.maxArgs == 0:
		cmd.Args = cobra.NoArgs
	case c.maxArgs > 0:
		cmd.Args = cobra.MaximumNArgs(c.maxArgs)
	}
	return cmd
}

func withApp(ctx context.Context, cfg *config.Config, fn func(ctx context.Context, a *App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error starting client: %w", err)
	}

	err = fn(ctx, a)
	if cerr := a.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
