// Package api provides the HTTP client for the Bandcamp web endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/config"
	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/go-resty/resty/v2"
)

const (
	baseURL        = "https://bandcamp.com"
	requestTimeout = 30 * time.Second

	dialTimeout           = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second

	discoverPagePath = "/discover"
	discoverPath     = "/api/discover/1/discover_web"
	searchPath       = "/api/bcsearch_public_api/1/autocomplete_elastic"
)

// Client is the HTTP client for interacting with Bandcamp.
type Client struct {
	client *resty.Client
	// stream downloads whole tracks and has no overall timeout.
	stream *resty.Client
}

// NewClient creates a new Bandcamp client with sensible defaults.
func NewClient() *Client {
	userAgent := config.AppName + "/" + config.AppVersion
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
		stream: resty.NewWithClient(newStreamHTTPClient()).
			SetHeader("User-Agent", userAgent),
	}
}

func newStreamHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 0, // tracks can take minutes on a slow link; the caller's context cancels
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: dialTimeout,
			}).DialContext,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func checkStatus(resp *resty.Response) error {
	if !resp.IsSuccess() {
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode(), resp.Status())
	}
	return nil
}

// Fetch downloads url and returns the body. It is used for audio streams and
// artwork, so url is absolute.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.stream.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// GetDiscoverIndex reads the genre and subgenre options embedded in the
// discover page.
func (c *Client) GetDiscoverIndex(ctx context.Context) (*DiscoverIndex, error) {
	resp, err := c.client.R().SetContext(ctx).Get(discoverPagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discover page: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	blob, err := findAttr(resp.Body(), "div", "pagedata", "data-blob")
	if err != nil {
		return nil, fmt.Errorf("failed to read discover page: %w", err)
	}

	var page pageBlob
	if err := json.Unmarshal([]byte(blob), &page); err != nil {
		return nil, fmt.Errorf("failed to parse discover index: %w", err)
	}

	return &page.AppData.InitialState, nil
}

// Discover requests one page of results for the browsing context in pd.
func (c *Client) Discover(ctx context.Context, pd track.PostData) (*DiscoverResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(pd).
		Post(discoverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discover results: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var response DiscoverResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse discover response: %w", err)
	}

	return &response, nil
}

// Search runs an autocomplete search and returns the matching page URLs.
func (c *Client) Search(ctx context.Context, text, filter string) ([]string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{SearchText: text, SearchFilter: filter}).
		Post(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", text, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var response SearchResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	urls := make([]string, 0, len(response.Auto.Results))
	for _, item := range response.Auto.Results {
		if item.ItemURLPath != nil && *item.ItemURLPath != "" {
			urls = append(urls, *item.ItemURLPath)
		}
	}
	return urls, nil
}

// GetAlbumPage fetches an album or track page and decodes its data-tralbum payload.
func (c *Client) GetAlbumPage(ctx context.Context, url string) (*AlbumPage, error) {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseAlbumPage(body)
}

// ParseAlbumPage extracts the data-tralbum JSON from an album page.
func ParseAlbumPage(body []byte) (*AlbumPage, error) {
	blob, err := findAttr(body, "script", "", "data-tralbum")
	if err != nil {
		return nil, err
	}

	var page AlbumPage
	if err := json.Unmarshal([]byte(blob), &page); err != nil {
		return nil, fmt.Errorf("failed to parse album page: %w", err)
	}
	return &page, nil
}
