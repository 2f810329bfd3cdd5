package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestWikipedia(t *testing.T, handler http.HandlerFunc) *WikipediaClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewWikipediaClient(ClientConfig{BaseURL: srv.URL + "/{lang}/api.php"}, zerolog.Nop())
}

func TestWikipediaClient_Search(t *testing.T) {
	c := newTestWikipedia(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pl/api.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("list") != "search" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("srsearch") != `"Tata 2" Kult` {
			t.Errorf("unexpected search %q", q.Get("srsearch"))
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, `{"batchcomplete":true,"query":{"search":[
			{"ns":0,"title":"Tata 2","snippet":"<span class=\"searchmatch\">album</span> zespołu Kult"},
			{"ns":0,"title":"Kult (zespół muzyczny)","snippet":""}
		]}}`)
	})

	got, err := c.Search(context.Background(), "pl", `"Tata 2" Kult`)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Title != "Tata 2" || got[1].Title != "Kult (zespół muzyczny)" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestWikipediaClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"empty results", http.StatusOK, `{"query":{"search":[]}}`, false},
		{"api error", http.StatusOK, `{"error":{"code":"badvalue","info":"bad"}}`, true},
		{"missing query", http.StatusOK, `{}`, true},
		{"malformed body", http.StatusOK, `{"query":`, true},
		{"server error", http.StatusServiceUnavailable, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestWikipedia(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Search(context.Background(), "en", "query")
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWikipediaClient_Wikitext(t *testing.T) {
	c := newTestWikipedia(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "parse" || q.Get("prop") != "wikitext" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch q.Get("page") {
		case "In Rainbows":
			fmt.Fprint(w, `{"parse":{"title":"In Rainbows","pageid":1,"wikitext":"| released = {{Start date|2007|10|10}}"}}`)
		default:
			fmt.Fprint(w, `{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`)
		}
	})

	text, err := c.Wikitext(context.Background(), "en", "In Rainbows")
	if err != nil {
		t.Fatalf("failed to fetch wikitext: %v", err)
	}
	if year, ok := ExtractYear(text); !ok || year != 2007 {
		t.Errorf("expected 2007 from wikitext, got %d", year)
	}

	if _, err := c.Wikitext(context.Background(), "en", "Missing"); !errors.Is(err, errNotFound) {
		t.Errorf("expected errNotFound, got %v", err)
	}
}

func TestWikipediaClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c := newTestWikipedia(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < maxFailures+3; i++ {
		if _, err := c.Search(context.Background(), "en", "query"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := hits.Load(); n != maxFailures {
		t.Errorf("expected breaker to stop requests after %d failures, got %d requests", maxFailures, n)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		lang  string
		title string
		want  string
	}{
		{"en", "In Rainbows", "https://en.wikipedia.org/wiki/In_Rainbows"},
		{"en", "OK Computer (album)", "https://en.wikipedia.org/wiki/OK_Computer_%28album%29"},
		{"pl", "Tata 2", "https://pl.wikipedia.org/wiki/Tata_2"},
		{"en", "AC/DC", "https://en.wikipedia.org/wiki/AC/DC"},
	}

	for _, tt := range tests {
		got := PageURL(tt.lang, tt.title)
		if got != tt.want {
			t.Errorf("PageURL(%q, %q) = %q, want %q", tt.lang, tt.title, got, tt.want)
		}

		lang, title, ok := ParsePageURL(got)
		if !ok || lang != tt.lang || title != tt.title {
			t.Errorf("ParsePageURL(%q) = (%q, %q, %v)", got, lang, title, ok)
		}
	}

	for _, raw := range []string{"N/A", "https://example.com/wiki/X", "https://en.wikipedia.org/w/index.php"} {
		if _, _, ok := ParsePageURL(raw); ok {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}
