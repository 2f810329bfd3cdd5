package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ClientConfig configures the HTTP clients of this package.
type ClientConfig struct {
	HTTPClient *http.Client // Optional: defaults to a client with a 10s timeout
	BaseURL    string       // Optional: API endpoint, used for testing
	UserAgent  string       // Optional: defaults to DefaultUserAgent

	// RequestsPerSecond paces requests to the service. Zero disables
	// pacing.
	RequestsPerSecond float64
}

// DefaultUserAgent identifies this program to the public APIs, which
// reject anonymous clients.
const DefaultUserAgent = "scrobblesync/1.0 (https://github.com/jfmyers9/scrobblesync)"

// errNotFound is returned for 400 and 404 responses.
var errNotFound = errors.New("resource not found")

// maxFailures is the number of consecutive failures that opens a
// breaker.
const maxFailures = 5

// httpSource performs paced GET requests to one service behind a
// circuit breaker.
type httpSource struct {
	name      string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

func newHTTPSource(name string, cfg ClientConfig, logger zerolog.Logger) *httpSource {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, errNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &httpSource{
		name:      name,
		client:    client,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
		breaker:   breaker,
	}
}

// get fetches endpoint and returns the body of a 200 response.
func (h *httpSource) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return h.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", h.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s request failed: %w", h.name, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
			return nil, errNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%s returned status %d", h.name, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", h.name, err)
		}
		return body, nil
	})
}

// getJSON fetches endpoint and decodes the body into v.
func (h *httpSource) getJSON(ctx context.Context, endpoint string, v any) error {
	body, err := h.get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", h.name, err)
	}
	return nil
}
