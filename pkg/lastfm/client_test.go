package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient creates a client against server with a short backoff.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(Config{
		APIKey:  "test-api-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.initialBackoff = time.Millisecond

	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{APIKey: "key"}},
		{name: "missing api key", cfg: Config{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.baseURL != DefaultBaseURL {
				t.Errorf("expected default base URL, got %s", client.baseURL)
			}
			if client.User() == nil || client.Album() == nil {
				t.Error("expected services to be initialized")
			}
		})
	}
}

func TestCall_Retry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// First two attempts return a temporary error
			_, _ = w.Write([]byte(`{"error":11,"message":"Service Offline"}`))
			return
		}
		_, _ = w.Write([]byte(`{"recenttracks":{"track":[],"@attr":{"page":"1","totalPages":"0"}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	if _, err := client.User().GetRecentTracks(context.Background(), RecentTracksParams{User: "rj"}); err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestCall_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Service Unavailable"))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.User().GetRecentTracks(context.Background(), RecentTracksParams{User: "rj"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Errorf("expected server error, got %v", err)
	}
	if attempts != maxRetries {
		t.Errorf("expected %d attempts, got %d", maxRetries, attempts)
	}
}

func TestCall_InBandError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantCode   int
	}{
		{
			name:       "error with 200",
			statusCode: http.StatusOK,
			body:       `{"error":10,"message":"Invalid API key - You must be granted a valid key by last.fm"}`,
			wantCode:   ErrCodeInvalidAPIKey,
		},
		{
			name:       "error with 404",
			statusCode: http.StatusNotFound,
			body:       `{"error":6,"message":"User not found"}`,
			wantCode:   ErrCodeInvalidParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server)
			_, err := client.User().GetRecentTracks(context.Background(), RecentTracksParams{User: "rj"})

			var lastfmErr *Error
			if !errors.As(err, &lastfmErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if lastfmErr.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, lastfmErr.Code)
			}
			if !errors.Is(err, &Error{Code: tt.wantCode}) {
				t.Error("expected errors.Is to match by code")
			}
			if attempts != 1 {
				t.Errorf("expected permanent error not to be retried, got %d attempts", attempts)
			}
		})
	}
}

func TestCall_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate slow response
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"recenttracks":{"track":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.User().GetRecentTracks(ctx, RecentTracksParams{User: "rj"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}

func TestError_Temporary(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{ErrCodeServiceOffline, true},
		{ErrCodeTempUnavailable, true},
		{ErrCodeRateLimitExceeded, true},
		{ErrCodeInvalidAPIKey, false},
		{ErrCodeInvalidParameters, false},
	}

	for _, tt := range tests {
		err := &Error{Code: tt.code}
		if got := err.Temporary(); got != tt.want {
			t.Errorf("code %d: Temporary() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&Error{Code: ErrCodeInvalidParameters, Message: "Album not found"}) {
		t.Error("expected code 6 to be not found")
	}
	if IsNotFound(&Error{Code: ErrCodeInvalidAPIKey}) {
		t.Error("expected code 10 not to be not found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("expected plain error not to be not found")
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(time.Second); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := nextBackoff(20 * time.Second); got != 30*time.Second {
		t.Errorf("expected cap at 30s, got %v", got)
	}
}
