package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

const (
	defaultWikipediaAPI = "https://{lang}.wikipedia.org/w/api.php"
	wikipediaPageBase   = "https://{lang}.wikipedia.org/wiki/"
	searchLimit         = 10
)

// WikipediaClient queries the MediaWiki search and parse APIs of any
// language edition.
type WikipediaClient struct {
	src    *httpSource
	apiURL string // contains a {lang} placeholder
}

// NewWikipediaClient creates a WikipediaClient. A BaseURL override may
// contain a {lang} placeholder.
func NewWikipediaClient(cfg ClientConfig, logger zerolog.Logger) *WikipediaClient {
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = defaultWikipediaAPI
	}
	return &WikipediaClient{
		src:    newHTTPSource("wikipedia", cfg, logger),
		apiURL: apiURL,
	}
}

func (c *WikipediaClient) endpoint(lang string, params url.Values) string {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	return strings.ReplaceAll(c.apiURL, "{lang}", lang) + "?" + params.Encode()
}

type searchResponse struct {
	Query *struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
	Error *wikiError `json:"error"`
}

type parseResponse struct {
	Parse *struct {
		Title    string `json:"title"`
		Wikitext string `json:"wikitext"`
	} `json:"parse"`
	Error *wikiError `json:"error"`
}

type wikiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// Search runs a full-text search and returns up to ten hits.
func (c *WikipediaClient) Search(ctx context.Context, lang, query string) ([]Candidate, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(searchLimit)},
	}

	var resp searchResponse
	if err := c.src.getJSON(ctx, c.endpoint(lang, params), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("wikipedia search failed: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if resp.Query == nil {
		return nil, fmt.Errorf("malformed wikipedia search response")
	}

	candidates := make([]Candidate, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		candidates = append(candidates, Candidate{Title: hit.Title, Snippet: hit.Snippet})
	}
	return candidates, nil
}

// Wikitext returns the source markup of a page, following redirects.
func (c *WikipediaClient) Wikitext(ctx context.Context, lang, title string) (string, error) {
	params := url.Values{
		"action":    {"parse"},
		"page":      {title},
		"prop":      {"wikitext"},
		"redirects": {"1"},
	}

	var resp parseResponse
	if err := c.src.getJSON(ctx, c.endpoint(lang, params), &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" {
			return "", fmt.Errorf("page %q: %w", title, errNotFound)
		}
		return "", fmt.Errorf("wikipedia parse failed: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if resp.Parse == nil {
		return "", fmt.Errorf("malformed wikipedia parse response")
	}
	return resp.Parse.Wikitext, nil
}

// PageURL returns the article URL for title on the lang edition.
func PageURL(lang, title string) string {
	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	path = strings.ReplaceAll(path, "%2F", "/")
	return strings.ReplaceAll(wikipediaPageBase, "{lang}", lang) + path
}

// ParsePageURL splits an article URL into its language edition and page
// title.
func ParsePageURL(raw string) (lang, title string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	lang, found := strings.CutSuffix(u.Hostname(), ".wikipedia.org")
	if !found || lang == "" {
		return "", "", false
	}
	lang = strings.TrimSuffix(lang, ".m")
	title, found = strings.CutPrefix(u.Path, "/wiki/")
	if !found || title == "" {
		return "", "", false
	}
	return lang, strings.ReplaceAll(title, "_", " "), true
}
