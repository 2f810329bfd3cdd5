package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jfmyers9/scrobblesync/internal/reconcile"
	"github.com/spf13/cobra"
)

var reviewScope string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review title mismatches between scrobbles and tracklists",
	Long: `Walk through every album and track title that is spelled differently in
the scrobbles than in the stored tracklists and decide how to fix it.

For each mismatch choose:
  [y] yes    - Rename both to the clean version
  [s] scrob  - Rename the tracklist title to match the scrobbles
  [a] alb    - Rename the scrobbles to match the tracklist
  [n] no     - Skip this mismatch
  [q] quit   - Stop, optionally saving approved changes
  [d] done   - Save approved changes and stop

Nothing is written until the review ends.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewScope, "scope", "both", "Mismatches to review (albums, tracks, both)")
}

func parseScope(s string) (reconcile.Scope, error) {
	switch s {
	case "both", "":
		return reconcile.ScopeBoth, nil
	case "albums":
		return reconcile.ScopeAlbums, nil
	case "tracks":
		return reconcile.ScopeTracks, nil
	default:
		return reconcile.ScopeBoth, fmt.Errorf("invalid scope %q (want albums, tracks or both)", s)
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	scope, err := parseScope(reviewScope)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// The prompt reads stdin, so an interrupt exits the process; nothing
	// has been written at that point.
	ctx := context.Background()

	mismatches, err := reconcile.FindMismatches(ctx, a.store)
	if err != nil {
		return err
	}

	q := reconcile.NewReviewQueue(mismatches, scope)
	if q.Len() == 0 {
		fmt.Println("No mismatches found")
		return nil
	}

	printSummary(os.Stdout, mismatches)

	n, err := reviewLoop(ctx, os.Stdin, os.Stdout, q, a.store)
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Printf("\n✓ Applied changes to %d rows\n", n)
	}
	return nil
}

func printSummary(w io.Writer, mismatches []reconcile.Mismatch) {
	counts := map[string]int{}
	for _, m := range mismatches {
		counts[m.Level.String()+"|"+m.Kind]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Found %d mismatches:\n", len(mismatches))
	for _, k := range keys {
		level, kind, _ := strings.Cut(k, "|")
		fmt.Fprintf(w, "  %-5s  %s: %d\n", level, kind, counts[k])
	}
}

// reviewLoop prompts for a decision on every queued mismatch and commits
// the approved renames when the queue ends, on "d", or on "q" when the
// operator asks to save. It returns the number of rows changed.
func reviewLoop(ctx context.Context, in io.Reader, out io.Writer, q *reconcile.ReviewQueue, r reconcile.Renamer) (int, error) {
	scanner := bufio.NewScanner(in)

	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(scanner.Text())), true
	}

	for {
		m, ok := q.Next()
		if !ok {
			break
		}
		printMismatch(out, m, q.Position(), q.Len())

		choice, ok := prompt("\nYour choice [y/s/a/n/q/d]? ")
		if !ok {
			fmt.Fprintln(out, "\nInput closed, discarding approved changes")
			q.Discard()
			return 0, nil
		}

		var d reconcile.Decision
		switch choice {
		case "y", "yes":
			d = reconcile.ApplyNormalized
		case "s", "scrob":
			d = reconcile.PreferScrobble
		case "a", "alb":
			d = reconcile.PreferTracklist
		case "n", "no":
			d = reconcile.Skip
		case "d", "done":
			return q.Commit(ctx, r)
		case "q", "quit":
			if q.Approved() > 0 {
				save, _ := prompt(fmt.Sprintf("\nYou have %d pending changes. Save before quitting? [y/N]: ", q.Approved()))
				if save == "y" || save == "yes" {
					return q.Commit(ctx, r)
				}
			}
			q.Discard()
			fmt.Fprintln(out, "Quit without saving changes")
			return 0, nil
		default:
			fmt.Fprintln(out, "Invalid choice. Please try again.")
			continue
		}

		if err := q.Decide(d); err != nil {
			return 0, err
		}
	}

	if q.Approved() == 0 {
		fmt.Fprintln(out, "\nNo changes approved")
		return 0, nil
	}
	return q.Commit(ctx, r)
}

func printMismatch(w io.Writer, m reconcile.Mismatch, pos, total int) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\n%s\n[%d/%d] %s mismatch - %s\n%s\n", rule, pos+1, total, strings.ToUpper(m.Level.String()), m.Kind, rule)
	fmt.Fprintf(w, "Artist:     %s\n", m.Artist)
	if m.Level == reconcile.LevelTrack {
		fmt.Fprintf(w, "Album:      %s\n", m.Album)
	}
	fmt.Fprintf(w, "Scrobble:   %s (%d plays)\n", m.Scrobble, m.Plays)
	fmt.Fprintf(w, "Tracklist:  %s\n", m.Tracklist)
	fmt.Fprintf(w, "Normalized: %s\n", m.Normalized)
}
