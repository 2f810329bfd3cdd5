package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/daemon"
	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	daemonInterval    time.Duration
	daemonEnrichLimit int
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync scrobbles on an interval",
	Long: `Run a sync immediately and then once per interval until stopped.

The daemon will:
- Fetch scrobbles newer than the latest stored one
- Mark albums with several artists as compilations
- Resolve encyclopedia links for a few albums after each sync that stored new scrobbles
- Retry failed syncs on the next interval
- Stop between pages on SIGINT/SIGTERM (a second signal forces exit)

The daemon runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for launchd).`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Time between syncs (default: sync.interval from config)")
	daemonCmd.Flags().IntVar(&daemonEnrichLimit, "enrich-limit", -1, "Albums to resolve after each sync, 0 disables (default: sync.enrich_limit from config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	coordinator, err := a.newCoordinator()
	if err != nil {
		return err
	}

	cfg := daemon.Config{
		Interval:    a.cfg.Sync.Interval,
		EnrichLimit: a.cfg.Sync.EnrichLimit,
	}
	if daemonInterval > 0 {
		cfg.Interval = daemonInterval
	}
	if daemonEnrichLimit >= 0 {
		cfg.EnrichLimit = daemonEnrichLimit
	}

	var enricher daemon.Enricher
	if cfg.EnrichLimit > 0 {
		enricher = resolver.NewEnricher(a.store, a.newResolver(), a.logger)
	}

	a.logger.Info().
		Str("version", version).
		Str("db", a.cfg.Database.Path).
		Msg("Starting scrobblesync daemon")

	d := daemon.New(cfg, coordinator, enricher, a.logger)

	// Run daemon (blocks until shutdown signal)
	if err := d.Run(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	return nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
