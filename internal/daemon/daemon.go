package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/jfmyers9/scrobblesync/internal/syncer"
	"github.com/rs/zerolog"
)

// DefaultInterval is used when Config.Interval is not positive.
const DefaultInterval = 30 * time.Minute

// Config holds daemon configuration
type Config struct {
	Interval    time.Duration // How often to sync
	EnrichLimit int           // Albums to resolve after a sync that stored new events, 0 disables
}

// Syncer runs one incremental sync. *syncer.Coordinator satisfies it.
type Syncer interface {
	Run(ctx context.Context) (syncer.Result, error)
}

// Enricher resolves encyclopedia links for albums that lack one.
// *resolver.Enricher satisfies it.
type Enricher interface {
	EnrichWikipedia(ctx context.Context, limit int, retryNotFound bool) (resolver.Report, error)
}

// Daemon runs syncs on an interval until stopped
type Daemon struct {
	config   Config
	syncer   Syncer
	enricher Enricher
	logger   zerolog.Logger
}

// New creates a new Daemon instance. enricher may be nil.
func New(cfg Config, s Syncer, enricher Enricher, logger zerolog.Logger) *Daemon {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Daemon{
		config:   cfg,
		syncer:   s,
		enricher: enricher,
		logger:   logger.With().Str("component", "daemon").Logger(),
	}
}

// Run starts the daemon and blocks until shutdown signal received
func (d *Daemon) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		d.logger.Info().Msg("Shutdown signal received, finishing current page")
		cancel()

		<-sigChan
		d.logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := d.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// run syncs immediately, then once per interval until ctx is done.
func (d *Daemon) run(ctx context.Context) error {
	d.logger.Info().Dur("interval", d.config.Interval).Msg("Starting daemon")

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	d.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Daemon stopped")
			return ctx.Err()
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick performs one sync and, when it stored anything, a bounded
// enrichment pass. Failures are logged and retried on the next tick.
func (d *Daemon) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	res, err := d.syncer.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.logger.Error().Err(err).Int("inserted", res.Inserted).Msg("Sync failed")
		return
	}

	d.logger.Info().
		Int("pages", res.Pages).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Dur("took", time.Since(start)).
		Msg("Sync finished")

	if d.enricher == nil || d.config.EnrichLimit <= 0 || res.Inserted == 0 {
		return
	}

	report, err := d.enricher.EnrichWikipedia(ctx, d.config.EnrichLimit, false)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("Enrichment failed")
		}
		return
	}
	d.logger.Info().
		Int("processed", report.Processed).
		Int("found", report.Found).
		Int("failed", report.Failed).
		Msg("Enrichment finished")
}
