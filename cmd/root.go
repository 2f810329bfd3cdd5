package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Global flags
var (
	logLevel string
	logFile  string
	dbPath   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrobblesync",
	Short: "Last.fm listening history mirror",
	Long: `scrobblesync mirrors a Last.fm listening history into a local SQLite
database and keeps it tidy.

It syncs new scrobbles incrementally, reconciles scrobbled titles
against official album tracklists, cleans up edition and remaster
suffixes, and enriches albums with encyclopedia links, release years
and cover art.

Run it once with 'scrobblesync sync' or keep it current in the
background with 'scrobblesync daemon' (see 'scrobblesync install').`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: database.path from config)")
}
