package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jfmyers9/scrobblesync/internal/config"
	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/jfmyers9/scrobblesync/internal/syncer"
	"github.com/jfmyers9/scrobblesync/pkg/lastfm"
	"github.com/rs/zerolog"
)

// app bundles what every command needs: configuration, a logger and the
// open store.
type app struct {
	cfg    *config.Config
	store  *store.Store
	logger zerolog.Logger
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger := setupLogger(logFile, logLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("db", cfg.Database.Path).Msg("Opened database")

	return &app{cfg: cfg, store: st, logger: logger}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// lastfmLogger adapts zerolog to the lastfm client's Logger.
type lastfmLogger struct {
	logger zerolog.Logger
}

func (l lastfmLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (a *app) lastfmClient() (*lastfm.Client, error) {
	if a.cfg.LastFM.APIKey == "" {
		return nil, fmt.Errorf("%w. Set lastfm.api_key in %s or SCROBBLESYNC_LASTFM_API_KEY",
			config.ErrMissingCredentials, filepath.Join(config.GetConfigDir(), "config.yaml"))
	}
	return lastfm.NewClient(lastfm.Config{
		APIKey:  a.cfg.LastFM.APIKey,
		BaseURL: a.cfg.LastFM.BaseURL,
		Logger:  lastfmLogger{a.logger.With().Str("component", "lastfm").Logger()},
	})
}

func (a *app) newCoordinator() (*syncer.Coordinator, error) {
	if err := a.cfg.RequireLastFM(); err != nil {
		return nil, fmt.Errorf("%w. Set them in %s", err, filepath.Join(config.GetConfigDir(), "config.yaml"))
	}
	client, err := a.lastfmClient()
	if err != nil {
		return nil, err
	}

	return syncer.New(a.store, client.User(), a.logger,
		syncer.WithUser(a.cfg.LastFM.Username),
		syncer.WithPageSize(a.cfg.Sync.PageSize),
		syncer.WithPageDelay(a.cfg.Sync.PageDelay),
		syncer.WithCompilationThreshold(a.cfg.Sync.CompilationThreshold),
	), nil
}

func (a *app) clientConfig() resolver.ClientConfig {
	return resolver.ClientConfig{
		UserAgent:         a.cfg.Resolver.UserAgent,
		RequestsPerSecond: a.cfg.Resolver.RequestsPerSecond,
	}
}

func (a *app) newResolver() *resolver.Resolver {
	wiki := resolver.NewWikipediaClient(a.clientConfig(), a.logger)
	return resolver.New(wiki, a.logger,
		resolver.WithWeights(a.cfg.Resolver.Weights),
		resolver.WithThreshold(a.cfg.Resolver.Threshold),
		resolver.WithLanguages(a.cfg.Resolver.Languages...),
	)
}

// newEnricher wires every metadata source that is configured. Last.fm
// album info is only used when an API key is present.
func (a *app) newEnricher() *resolver.Enricher {
	opts := []resolver.EnricherOption{
		resolver.WithYearSource(resolver.NewMusicBrainzClient(a.clientConfig(), a.logger)),
		resolver.WithArtworkSource(resolver.NewArtworkClient(a.clientConfig(), a.logger)),
	}
	if client, err := a.lastfmClient(); err == nil {
		opts = append(opts, resolver.WithAlbumInfo(client.Album()))
	}
	return resolver.NewEnricher(a.store, a.newResolver(), a.logger, opts...)
}
