package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize bounds directory responses. OPML listings are small;
// anything larger is a misbehaving endpoint.
const maxResponseSize = 1 << 20

// Options configures the directory client.
type Options struct {
	// BaseURL is the directory root, e.g. https://opml.radiotime.com.
	BaseURL string

	// PartnerID identifies this service to the directory.
	PartnerID string

	// Username and Password are optional account credentials forwarded
	// on tune requests for favourites support.
	Username string
	Password string

	// Formats is the comma-separated audio format list advertised on
	// tune requests.
	Formats string

	// Timeout bounds each lookup. Zero means 10 seconds.
	Timeout time.Duration
}

// Client talks to a TuneIn-style OPML radio directory. Responses are
// returned as raw text; the resolver owns interpretation.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// NewClient creates a directory client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search queries the directory for stations matching the query string.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.get(ctx, "Search.ashx", params)
}

// LookupStation asks the directory to tune a station id, returning the
// raw response that should contain a stream URL.
func (c *Client) LookupStation(ctx context.Context, stationID string) (string, error) {
	params := url.Values{}
	params.Set("id", stationID)
	if c.opts.Formats != "" {
		params.Set("formats", c.opts.Formats)
	}
	if c.opts.Username != "" {
		params.Set("username", c.opts.Username)
		params.Set("partnerId", c.opts.PartnerID)
	}
	return c.get(ctx, "Tune.ashx", params)
}

// Browse fetches a directory category listing. An empty category
// returns the directory root.
func (c *Client) Browse(ctx context.Context, category string) (string, error) {
	params := url.Values{}
	if category != "" {
		params.Set("c", category)
	}
	return c.get(ctx, "Browse.ashx", params)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	requestURL := strings.TrimSuffix(c.opts.BaseURL, "/") + "/" + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrLookupFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response cleanup

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %d", ErrLookupFailed, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrLookupFailed, err)
	}
	return string(body), nil
}
