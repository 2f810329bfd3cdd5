package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jfmyers9/scrobblesync/internal/reconcile"
	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/spf13/cobra"
)

var (
	albumSort     string
	albumNoLookup bool
)

var albumCmd = &cobra.Command{
	Use:   "album <artist> <album>",
	Short: "Show an album's tracklist with play counts",
	Long: `Show the official tracklist of an album with the number of times each
track was played.

Plays are matched to tracks by normalized title, so "Airbag (Remastered)"
counts towards "Airbag". Every stored spelling of the album is included.
A tracklist that was never fetched is fetched from Last.fm and stored, and
an unknown encyclopedia link is looked up, unless --no-lookup is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runAlbum,
}

func init() {
	rootCmd.AddCommand(albumCmd)

	albumCmd.Flags().StringVar(&albumSort, "sort", "tracklist", "Sort order (tracklist, plays)")
	albumCmd.Flags().BoolVar(&albumNoLookup, "no-lookup", false, "Do not contact external services")
}

func runAlbum(cmd *cobra.Command, args []string) error {
	order, err := reconcile.ParseSortOrder(albumSort)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext()
	defer stop()

	var engine *reconcile.Engine
	if client, err := a.lastfmClient(); err == nil && !albumNoLookup {
		engine = reconcile.NewEngine(a.store, client.Album(), a.logger)
	} else {
		engine = reconcile.NewEngine(a.store, nil, a.logger)
	}

	view, err := engine.Album(ctx, args[0], args[1], order)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no scrobbles for %s - %s", args[0], args[1])
	}
	if err != nil {
		return err
	}

	art, err := a.store.AlbumArt(ctx, view.Artist, view.Album)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if art.WikipediaURL == "" && !albumNoLookup {
		enricher := resolver.NewEnricher(a.store, a.newResolver(), a.logger)
		res, err := enricher.EnrichAlbum(ctx, store.AlbumRef{Artist: view.Artist, Album: view.Album, Year: art.Year})
		if err != nil {
			return err
		}
		if res.Found {
			art.WikipediaURL = res.URL
			if art.Year == 0 {
				art.Year = res.Year
			}
		}
	}

	printAlbum(view, art)
	return nil
}

func printAlbum(view reconcile.AlbumView, art store.AlbumArt) {
	title := fmt.Sprintf("%s - %s", view.Artist, view.Album)
	if art.Year > 0 {
		title += fmt.Sprintf(" (%d)", art.Year)
	}
	fmt.Println(title)
	if art.WikipediaURL != "" && art.WikipediaURL != store.WikipediaNotFound {
		fmt.Println(art.WikipediaURL)
	}
	if len(view.Spellings) > 1 {
		fmt.Printf("Includes %d spellings of the album\n", len(view.Spellings))
	}
	if view.AnyArtist {
		fmt.Println("Plays counted across all artists")
	}
	fmt.Println()

	if len(view.Tracks) == 0 {
		fmt.Println("No tracklist available")
	} else {
		rows := make([][]string, 0, len(view.Tracks))
		for _, t := range view.Tracks {
			rows = append(rows, []string{strconv.Itoa(t.Number), t.Track, strconv.Itoa(t.Plays)})
		}
		writeTable(os.Stdout, []string{"#", "Track", "Plays"}, rows)
	}

	fmt.Printf("\nTotal plays: %d", view.TotalPlays)
	if view.Unmatched > 0 {
		fmt.Printf(" (%d not on the tracklist)", view.Unmatched)
	}
	fmt.Println()
}
