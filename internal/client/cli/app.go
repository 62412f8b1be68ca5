package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophnotes/internal/client/backup"
	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/config"
	"github.com/dmitrijs2005/gophnotes/internal/client/connectivity"
	"github.com/dmitrijs2005/gophnotes/internal/client/events"
	"github.com/dmitrijs2005/gophnotes/internal/client/processor"
	"github.com/dmitrijs2005/gophnotes/internal/client/queue"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
	"github.com/dmitrijs2005/gophnotes/internal/client/status"
	"github.com/dmitrijs2005/gophnotes/internal/filex"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"go.uber.org/multierr"

	_ "modernc.org/sqlite"
)

// newBackup is a test seam for backup.NewS3.
var newBackup = backup.NewS3

// App holds the wired sync engine and the terminal it talks to.
type App struct {
	config *config.Config
	logger logging.Logger

	repos  *client.Repositories
	remote client.Client
	prober connectivity.Prober

	bus        *events.Bus
	queue      *queue.Queue
	processor  *processor.Processor
	aggregator *status.Aggregator
	monitor    *connectivity.Monitor
	notes      services.NoteService

	reader *bufio.Reader
	out    io.Writer

	// interactive enables confirmations.
	interactive bool
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(c.LogLevel))

	if err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	remote, err := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, multierr.Append(err, repos.Close())
	}

	prober, err := client.NewHealthProber(c.HealthEndpointAddr, "")
	if err != nil {
		return nil, multierr.Combine(err, remote.Close(), repos.Close())
	}

	a, err := assemble(ctx, c, logger, repos, remote, prober, os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	a.interactive = stdinIsTerminal()
	return a, nil
}

// assemble wires the engine around already opened resources. The processor
// and the aggregator read connectivity through the App, which forwards to
// the monitor built after them.
func assemble(ctx context.Context, c *config.Config, logger logging.Logger, repos *client.Repositories,
	remote client.Client, prober connectivity.Prober, in io.Reader, out io.Writer) (*App, error) {

	a := &App{
		config: c,
		logger: logger,
		repos:  repos,
		remote: remote,
		prober: prober,
		bus:    events.NewBus(),
		reader: bufio.NewReader(in),
		out:    out,
	}

	a.queue = queue.New(repos.Operations, a.bus, logger, queue.WithMaxRetries(c.MaxRetries))
	if n, err := a.queue.RecoverInterrupted(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("error recovering queue: %w", err), a.closeResources())
	} else if n > 0 {
		logger.Info(ctx, "recovered interrupted operations", "count", n)
	}

	a.processor = processor.New(a.queue, repos.Notes, repos.Metadata, remote, a, a.bus, logger,
		processor.WithBackoff(c.RetryBaseDelay, c.RetryMaxDelay))
	a.aggregator = status.New(a.queue, repos.Metadata, a, a.bus, logger)
	a.monitor = connectivity.New(prober, a.processor, a.aggregator, a.bus, logger,
		connectivity.WithDebounce(c.ReconnectDebounce),
		connectivity.WithDrainReporter(a.reportDrain))
	a.notes = services.NewNoteService(c.OwnerID, repos.Notes, a.queue, a.processor, remote,
		a.aggregator, a, repos.Metadata, logger)

	return a, nil
}

// Online reports the monitor's view of the server.
func (a *App) Online() bool {
	return a.monitor != nil && a.monitor.Online()
}

// Start launches the connectivity watcher and the status aggregator. Both
// stop with ctx.
func (a *App) Start(ctx context.Context) {
	go a.aggregator.Run(ctx)
	go a.monitor.Run(ctx, a.config.OnlineCheckInterval, a.config.StatusPollInterval)
}

// Connect probes the server once so that a one-shot command knows the mode.
func (a *App) Connect(ctx context.Context) {
	if err := a.monitor.Probe(ctx); err != nil {
		a.logger.Debug(ctx, "server is not reachable", "error", err)
	}
}

// Wait blocks until sync attempts started by a command have finished.
func (a *App) Wait() {
	a.processor.Wait()
}

func (a *App) reportDrain(ctx context.Context, res processor.Result, err error) {
	if err != nil {
		a.logger.Warn(ctx, "background sync failed", "error", err)
		return
	}
	if res.Processed == 0 && len(res.Conflicts) == 0 && len(res.Failed) == 0 {
		return
	}
	a.logger.Info(ctx, "background sync finished",
		"processed", res.Processed, "conflicts", len(res.Conflicts), "failed", len(res.Failed))
}

// statusLine renders the prompt status from the last known sync state.
func (a *App) statusLine() string {
	st, ok := a.aggregator.Current()
	if !ok {
		if a.Online() {
			return string(connectivity.ModeOnline)
		}
		return string(connectivity.ModeOffline)
	}
	if st.PendingCount > 0 {
		return fmt.Sprintf("%s, %d pending", st.Status, st.PendingCount)
	}
	return string(st.Status)
}

func (a *App) Close() error {
	if a.monitor != nil {
		a.monitor.Close()
	}
	if a.processor != nil {
		a.processor.Close()
	}
	return a.closeResources()
}

func (a *App) closeResources() error {
	var err error
	if c, ok := a.prober.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	if a.remote != nil {
		err = multierr.Append(err, a.remote.Close())
	}
	return multierr.Append(err, a.repos.Close())
}
