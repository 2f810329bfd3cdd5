package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jfmyers9/scrobblesync/internal/normalize"
	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/spf13/cobra"
)

var (
	cleanupDryRun     bool
	cleanupSmallWords bool
	cleanupVerbose    bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up stored titles",
}

var cleanupTitlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Strip remaster and edition suffixes from titles",
	Long: `Rewrite every album and track title with the title cleaner, removing
suffixes such as "- 2011 Remaster" or "(Deluxe Edition)".

Scrobbles that become identical to an existing scrobble are removed as
duplicates. Album metadata of merged albums is combined. With --dry-run
nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runCleanupTitles,
}

var cleanupCaseCmd = &cobra.Command{
	Use:   "case",
	Short: "Merge track titles that differ only by letter case",
	Long: `Find track titles within an album that differ only by letter case and
rewrite all of them to the most played spelling (then the most recently
played, then the longest).`,
	Args: cobra.NoArgs,
	RunE: runCleanupCase,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.AddCommand(cleanupTitlesCmd, cleanupCaseCmd)

	cleanupCmd.PersistentFlags().BoolVar(&cleanupDryRun, "dry-run", false, "Report changes without writing them")
	cleanupCmd.PersistentFlags().BoolVarP(&cleanupVerbose, "verbose", "v", false, "List every change")
	cleanupTitlesCmd.Flags().BoolVar(&cleanupSmallWords, "small-words", false, `Also lowercase inner small words ("Out Of Time" -> "Out of Time")`)
}

func runCleanupTitles(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext()
	defer stop()

	rewrite := normalize.Clean
	if cleanupSmallWords {
		rewrite = func(title string) string {
			return normalize.FixCase(normalize.Clean(title))
		}
	}

	report, err := a.store.RewriteTitles(ctx, rewrite, cleanupDryRun)
	if err != nil {
		return fmt.Errorf("failed to clean titles: %w", err)
	}

	if cleanupVerbose && len(report.Changes) > 0 {
		rows := make([][]string, 0, len(report.Changes))
		for _, c := range report.Changes {
			rows = append(rows, []string{c.Table, c.Artist, c.Field, c.From, c.To})
		}
		writeTable(os.Stdout, []string{"Table", "Artist", "Field", "From", "To"}, rows)
		fmt.Println()
	}

	fmt.Printf("%s %d scrobbles, %d album rows, %d tracklist rows; %d duplicate scrobbles removed\n",
		verb(cleanupDryRun), report.ScrobbleRows, report.AlbumArtRows, report.AlbumTrackRows, report.DuplicatesMerged)
	return nil
}

func runCleanupCase(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext()
	defer stop()

	report, err := a.store.MergeCaseVariants(ctx, cleanupDryRun)
	if err != nil {
		return fmt.Errorf("failed to merge case variants: %w", err)
	}

	if cleanupVerbose && len(report.Groups) > 0 {
		rows := make([][]string, 0, len(report.Groups))
		for _, g := range report.Groups {
			rows = append(rows, caseRows(g)...)
		}
		writeTable(os.Stdout, []string{"Artist", "Album", "Variant", "Plays", "Canonical"}, rows)
		fmt.Println()
	}

	fmt.Printf("%s %d scrobbles across %d groups; %d duplicate scrobbles removed\n",
		verb(cleanupDryRun), report.ScrobbleRows, len(report.Groups), report.DuplicatesMerged)
	return nil
}

func caseRows(g store.CaseVariantGroup) [][]string {
	rows := make([][]string, 0, len(g.Variants))
	for _, v := range g.Variants {
		mark := ""
		if v.Track == g.Canonical {
			mark = "*"
		}
		rows = append(rows, []string{g.Artist, g.Album, v.Track, strconv.Itoa(v.Plays), mark})
	}
	return rows
}

func verb(dryRun bool) string {
	if dryRun {
		return "Would update"
	}
	return "✓ Updated"
}
