package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAlbumService_GetInfo(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantTracks []AlbumTrack
		wantYear   int
	}{
		{
			name: "list of tracks",
			body: `{"album":{"name":"OK Computer","artist":"Radiohead","mbid":"m1",
				"tracks":{"track":[
					{"name":"Paranoid Android","@attr":{"rank":2}},
					{"name":"Airbag","@attr":{"rank":1}},
					{"name":"Subterranean Homesick Alien","@attr":{"rank":"3"}}
				]},
				"wiki":{"published":"16 Jun 1997, 00:00"}}}`,
			wantTracks: []AlbumTrack{
				{Name: "Airbag", TrackNumber: 1},
				{Name: "Paranoid Android", TrackNumber: 2},
				{Name: "Subterranean Homesick Alien", TrackNumber: 3},
			},
			wantYear: 1997,
		},
		{
			name: "single track object",
			body: `{"album":{"name":"Single","artist":"Someone",
				"tracks":{"track":{"name":"Only Song","@attr":{"rank":1}}}}}`,
			wantTracks: []AlbumTrack{{Name: "Only Song", TrackNumber: 1}},
		},
		{
			name: "missing ranks fall back to position",
			body: `{"album":{"name":"X","artist":"Y",
				"tracks":{"track":[{"name":"One"},{"name":"  "},{"name":"Two"}]}}}`,
			wantTracks: []AlbumTrack{
				{Name: "One", TrackNumber: 1},
				{Name: "Two", TrackNumber: 2},
			},
		},
		{
			name:       "no tracks",
			body:       `{"album":{"name":"X","artist":"Y","tracks":""}}`,
			wantTracks: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("method") != "album.getInfo" {
					t.Errorf("expected method album.getInfo, got %s", q.Get("method"))
				}
				if q.Get("autocorrect") != "1" {
					t.Errorf("expected autocorrect 1, got %s", q.Get("autocorrect"))
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server)
			info, err := client.Album().GetInfo(context.Background(), "Radiohead", "OK Computer")
			if err != nil {
				t.Fatalf("failed to get album info: %v", err)
			}

			if len(info.Tracks) != len(tt.wantTracks) {
				t.Fatalf("expected %d tracks, got %d: %+v", len(tt.wantTracks), len(info.Tracks), info.Tracks)
			}
			for i, want := range tt.wantTracks {
				if info.Tracks[i] != want {
					t.Errorf("track %d: expected %+v, got %+v", i, want, info.Tracks[i])
				}
			}

			year, ok := info.ReleaseYear()
			if tt.wantYear == 0 {
				if ok {
					t.Errorf("expected no year, got %d", year)
				}
			} else if year != tt.wantYear {
				t.Errorf("expected year %d, got %d", tt.wantYear, year)
			}
		})
	}
}

func TestAlbumService_GetInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":6,"message":"Album not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Album().GetInfo(context.Background(), "Nobody", "Nothing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
