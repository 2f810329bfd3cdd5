package cmd

import (
	"context"
	"fmt"

	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/spf13/cobra"
)

var (
	enrichLimit   int
	retryNotFound bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Find encyclopedia pages for albums",
	Long: `Search Wikipedia for the page of every album that has not been searched
yet, most played first. Albums without a page are recorded as N/A and
skipped on later runs unless --retry-not-found is given. Albums whose
search failed are left unrecorded and retried next time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich("Encyclopedia pages", func(ctx context.Context, e *resolver.Enricher) (resolver.Report, error) {
			return e.EnrichWikipedia(ctx, enrichLimit, retryNotFound)
		})
	},
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "Backfill album release years",
	Long: `Fill in the release year of albums that have none, trying MusicBrainz
(by album MBID), Last.fm album info and the album's encyclopedia page
in that order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich("Release years", func(ctx context.Context, e *resolver.Enricher) (resolver.Report, error) {
			return e.BackfillYears(ctx, enrichLimit)
		})
	},
}

var artworkCmd = &cobra.Command{
	Use:   "artwork",
	Short: "Backfill missing album artwork",
	Long: `Look up cover art on the iTunes Search API for albums that have no
image from Last.fm.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich("Artwork", func(ctx context.Context, e *resolver.Enricher) (resolver.Report, error) {
			return e.BackfillArtwork(ctx, enrichLimit)
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd, yearsCmd, artworkCmd)

	for _, c := range []*cobra.Command{resolveCmd, yearsCmd, artworkCmd} {
		c.Flags().IntVar(&enrichLimit, "limit", 0, "Maximum number of albums to process (0 = all)")
	}
	resolveCmd.Flags().BoolVar(&retryNotFound, "retry-not-found", false, "Also retry albums previously recorded as N/A")
}

func runEnrich(label string, pass func(ctx context.Context, e *resolver.Enricher) (resolver.Report, error)) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext()
	defer stop()

	report, err := pass(ctx, a.newEnricher())
	printReport(label, report)
	if err != nil {
		return fmt.Errorf("failed to enrich albums: %w", err)
	}
	return nil
}

func printReport(label string, r resolver.Report) {
	fmt.Printf("%s: processed %d, found %d, not found %d", label, r.Processed, r.Found, r.NotFound)
	if r.Failed > 0 {
		fmt.Printf(", failed %d (will retry)", r.Failed)
	}
	fmt.Println()
}
