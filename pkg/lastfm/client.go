// Package lastfm provides a read-only client for the Last.fm API 2.0.
//
// It covers the two calls a listening-history sync needs: paging
// through a user's recent tracks and fetching an album's tracklist.
//
// Example usage:
//
//	import "github.com/jfmyers9/scrobblesync/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	page, err := client.User().GetRecentTracks(ctx, lastfm.RecentTracksParams{
//	    User: "rj",
//	    Page: 1,
//	})
package lastfm

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	APIKey     string       // Required: Last.fm API key
	HTTPClient *http.Client // Optional: HTTP client (defaults to a client with a 30s timeout)
	BaseURL    string       // Optional: Base URL for API (defaults to Last.fm API, used for testing)
	UserAgent  string       // Optional: User-Agent header (defaults to "scrobblesync/1.0")
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Last.fm API operations.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     Logger

	// initialBackoff is the first retry delay; it doubles per attempt.
	initialBackoff time.Duration

	user  *UserService
	album *AlbumService
}

const (
	// DefaultBaseURL is the default Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	defaultUserAgent = "scrobblesync/1.0"
)

// NewClient creates a new Last.fm API client.
//
// Returns an error wrapping ErrInvalidConfig if the APIKey is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		apiKey:         cfg.APIKey,
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		logger:         cfg.Logger,
		initialBackoff: time.Second,
	}

	c.user = &UserService{client: c}
	c.album = &AlbumService{client: c}

	return c, nil
}

// User returns the user service.
func (c *Client) User() *UserService {
	return c.user
}

// Album returns the album service.
func (c *Client) Album() *AlbumService {
	return c.album
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
