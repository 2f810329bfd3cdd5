package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestArtwork(t *testing.T, handler http.HandlerFunc) *ArtworkClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewArtworkClient(ClientConfig{BaseURL: srv.URL}, zerolog.Nop())
}

func TestArtworkClient_ReturnsUpscaledURL(t *testing.T) {
	a := newTestArtwork(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") != "Queen A Night at the Opera" {
			t.Errorf("unexpected term %q", r.URL.Query().Get("term"))
		}
		_ = json.NewEncoder(w).Encode(itunesResponse{
			Results: []itunesResult{
				{ArtworkURL100: "https://example.com/art/100x100bb.jpg"},
			},
		})
	})

	got, err := a.Lookup(context.Background(), "Queen", "A Night at the Opera")
	if err != nil {
		t.Fatalf("failed to look up artwork: %v", err)
	}
	want := "https://example.com/art/600x600bb.jpg"
	if got != want {
		t.Errorf("Lookup() = %q, want %q", got, want)
	}
}

func TestArtworkClient_CachesResults(t *testing.T) {
	var hits atomic.Int32
	a := newTestArtwork(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(itunesResponse{
			Results: []itunesResult{
				{ArtworkURL100: "https://example.com/art/100x100bb.jpg"},
			},
		})
	})

	for i := 0; i < 3; i++ {
		if _, err := a.Lookup(context.Background(), "Queen", "A Night at the Opera"); err != nil {
			t.Fatalf("failed to look up artwork: %v", err)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 HTTP request, got %d", n)
	}
}

func TestArtworkClient_FallsBackToSongEntity(t *testing.T) {
	a := newTestArtwork(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("entity") == "album" {
			_ = json.NewEncoder(w).Encode(itunesResponse{Results: nil})
			return
		}
		_ = json.NewEncoder(w).Encode(itunesResponse{
			Results: []itunesResult{
				{ArtworkURL100: "https://example.com/art/100x100bb.jpg"},
			},
		})
	})

	got, err := a.Lookup(context.Background(), "Ninajirachi", "I Love My Computer")
	if err != nil {
		t.Fatalf("failed to look up artwork: %v", err)
	}
	want := "https://example.com/art/600x600bb.jpg"
	if got != want {
		t.Errorf("Lookup() = %q, want %q", got, want)
	}
}

func TestArtworkClient_ErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	a := newTestArtwork(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(itunesResponse{})
	})

	if _, err := a.Lookup(context.Background(), "Unknown", "Album"); err == nil {
		t.Fatal("expected error on server failure")
	}

	got, err := a.Lookup(context.Background(), "Unknown", "Album")
	if err != nil {
		t.Fatalf("failed to look up artwork: %v", err)
	}
	if got != "" {
		t.Errorf("expected no artwork, got %q", got)
	}

	// album and song misses are cached together
	before := hits.Load()
	if _, err := a.Lookup(context.Background(), "Unknown", "Album"); err != nil {
		t.Fatalf("failed to look up artwork: %v", err)
	}
	if hits.Load() != before {
		t.Error("expected cached miss")
	}
}
