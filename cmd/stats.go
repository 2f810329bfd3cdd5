package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of top albums to show (0 to hide)")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext()
	defer stop()

	st, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}

	last := "never"
	if st.LastPlayedAt > 0 {
		last = time.Unix(st.LastPlayedAt, 0).Local().Format(time.RFC1123)
	}

	writeTable(os.Stdout, []string{"", ""}, [][]string{
		{"Scrobbles", strconv.Itoa(st.Scrobbles)},
		{"Artists", strconv.Itoa(st.Artists)},
		{"Albums", strconv.Itoa(st.Albums)},
		{"Compilations", strconv.Itoa(st.Compilations)},
		{"Tracklists", strconv.Itoa(st.Tracklists)},
		{"Album metadata", strconv.Itoa(st.AlbumArt)},
		{"Encyclopedia pages", fmt.Sprintf("%d (%d not found)", st.WikipediaFound, st.WikipediaNotFound)},
		{"Release years", strconv.Itoa(st.WithYear)},
		{"Last scrobble", last},
	})

	if statsTop <= 0 {
		return nil
	}

	top, err := a.store.TopAlbums(ctx, statsTop)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(top))
	for i, t := range top {
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Artist, t.Album, strconv.Itoa(t.Plays)})
	}
	fmt.Println()
	writeTable(os.Stdout, []string{"#", "Artist", "Album", "Plays"}, rows)
	return nil
}
