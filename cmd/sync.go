package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new scrobbles from Last.fm",
	Long: `Fetch every scrobble newer than the latest stored one and store it.

The first run downloads the whole history. Later runs only fetch what
is new, so running sync twice in a row stores nothing the second time.
Pages are stored oldest first. An interrupted sync keeps what it stored
and the next run continues from there.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	coordinator, err := a.newCoordinator()
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	res, err := coordinator.Run(ctx)
	if err != nil {
		if res.Inserted > 0 {
			fmt.Printf("Stored %d scrobbles before the sync stopped\n", res.Inserted)
		}
		return fmt.Errorf("failed to sync: %w", err)
	}

	fmt.Printf("✓ Fetched %d scrobbles across %d pages, %d new\n", res.Fetched, res.Pages, res.Inserted)
	if res.Skipped > 0 {
		fmt.Printf("  Skipped %d malformed items\n", res.Skipped)
	}
	if res.Compilations > 0 {
		fmt.Printf("  Marked %d albums as compilations\n", res.Compilations)
	}

	return nil
}
