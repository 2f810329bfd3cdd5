package cmd

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/jfmyers9/scrobblesync/internal/reconcile"
	"github.com/jfmyers9/scrobblesync/internal/store"
)

type fakeRenamer struct {
	applied [][]store.Rename
}

func (f *fakeRenamer) ApplyRenames(ctx context.Context, renames []store.Rename) (int, error) {
	f.applied = append(f.applied, renames)
	return len(renames), nil
}

func testMismatches() []reconcile.Mismatch {
	return []reconcile.Mismatch{
		{
			Level: reconcile.LevelTrack, Artist: "Radiohead", Album: "OK Computer",
			Scrobble: "Airbag", Tracklist: "Airbag (Remastered)", Normalized: "Airbag",
			Kind: reconcile.KindTracklistSuffix, Plays: 12,
		},
		{
			Level: reconcile.LevelTrack, Artist: "Radiohead", Album: "OK Computer",
			Scrobble: "lucky", Tracklist: "Lucky", Normalized: "Lucky",
			Kind: reconcile.KindCase, Plays: 2,
		},
		{
			Level: reconcile.LevelTrack, Artist: "Radiohead", Album: "OK Computer",
			Scrobble: "Karma Police - Live", Tracklist: "Karma Police", Normalized: "Karma Police",
			Kind: reconcile.KindScrobbleLive, Plays: 1,
		},
	}
}

func TestReviewLoop(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []store.Rename
		wantOut string
	}{
		{
			name:  "decisions are committed at the end",
			input: "a\ny\nn\n",
			want: []store.Rename{
				{Table: "scrobble", Artist: "Radiohead", Album: "OK Computer", Track: "Airbag", To: "Airbag (Remastered)"},
				{Table: "scrobble", Artist: "Radiohead", Album: "OK Computer", Track: "lucky", To: "Lucky"},
			},
		},
		{
			name:  "done commits early",
			input: "y\nd\n",
			want: []store.Rename{
				{Table: "album_tracks", Artist: "Radiohead", Album: "OK Computer", Track: "Airbag (Remastered)", To: "Airbag"},
			},
		},
		{
			name:  "invalid choices are asked again",
			input: "x\ns\nd\n",
			want: []store.Rename{
				{Table: "album_tracks", Artist: "Radiohead", Album: "OK Computer", Track: "Airbag (Remastered)", To: "Airbag"},
			},
			wantOut: "Invalid choice",
		},
		{
			name:  "quit can save",
			input: "y\nq\ny\n",
			want: []store.Rename{
				{Table: "album_tracks", Artist: "Radiohead", Album: "OK Computer", Track: "Airbag (Remastered)", To: "Airbag"},
			},
		},
		{
			name:    "quit discards by default",
			input:   "y\nq\n\n",
			wantOut: "Quit without saving",
		},
		{
			name:    "closed input discards",
			input:   "y\n",
			wantOut: "Input closed",
		},
		{
			name:    "nothing approved",
			input:   "n\nn\nn\n",
			wantOut: "No changes approved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := reconcile.NewReviewQueue(testMismatches(), reconcile.ScopeBoth)
			r := &fakeRenamer{}
			var out bytes.Buffer

			n, err := reviewLoop(context.Background(), strings.NewReader(tt.input), &out, q, r)
			if err != nil {
				t.Fatalf("failed to review: %v", err)
			}

			var got []store.Rename
			for _, batch := range r.applied {
				got = append(got, batch...)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected renames %+v, got %+v", tt.want, got)
			}
			if n != len(tt.want) {
				t.Errorf("expected %d rows, got %d", len(tt.want), n)
			}
			if len(r.applied) > 1 {
				t.Errorf("expected a single commit, got %d", len(r.applied))
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.wantOut, out.String())
			}
		})
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]reconcile.Scope{
		"":       reconcile.ScopeBoth,
		"both":   reconcile.ScopeBoth,
		"albums": reconcile.ScopeAlbums,
		"tracks": reconcile.ScopeTracks,
	} {
		got, err := parseScope(in)
		if err != nil || got != want {
			t.Errorf("parseScope(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseScope("artists"); err == nil {
		t.Error("expected error for unknown scope")
	}
}
