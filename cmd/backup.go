package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/spf13/cobra"
)

var (
	backupDir  string
	backupKeep int
	backupList bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a verified copy of the database",
	Long: `Checkpoint the write-ahead log, write a consistent copy of the database
into the backup directory, verify it and delete all but the newest
backups.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (default: backup.dir from config)")
	backupCmd.Flags().IntVar(&backupKeep, "keep", 0, "Number of backups to keep (default: backup.keep from config)")
	backupCmd.Flags().BoolVar(&backupList, "list", false, "List existing backups instead of writing one")
}

func runBackup(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.Backup.Dir
	if backupDir != "" {
		dir = backupDir
	}
	keep := a.cfg.Backup.Keep
	if backupKeep > 0 {
		keep = backupKeep
	}

	if backupList {
		paths, err := store.Backups(dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(filepath.Base(p))
		}
		fmt.Printf("%d backups in %s\n", len(paths), dir)
		return nil
	}

	ctx, stop := commandContext()
	defer stop()

	path, err := a.store.Backup(ctx, dir, keep)
	if err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}

	fmt.Printf("✓ Wrote %s (keeping %d)\n", path, keep)
	return nil
}
