// Package geocoding resolves free-text addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Result is the best match for an address.
type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// Client calls the address lookup service. Calls are serialized: the service's usage
// policy allows one request per Delay, so a call holds the lock until its delay has passed.
type Client struct {
	baseURL    string
	userAgent  string
	delay      time.Duration
	httpClient *http.Client
	log        *zap.Logger

	mu sync.Mutex
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Delay     time.Duration
}

// NewClient constructs a new client.
func NewClient(opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		delay:      opts.Delay,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log.Named("geocoding"),
	}
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode looks up address, optionally restricted to an ISO country code. It never
// returns an error: every failure yields (nil, false).
func (c *Client) Geocode(ctx context.Context, address, countryCode string) (*Result, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, ok := c.lookup(ctx, address, strings.ToLower(strings.TrimSpace(countryCode)))
	if !ok {
		return nil, false
	}

	if c.delay > 0 {
		t := time.NewTimer(c.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	return res, true
}

func (c *Client) lookup(ctx context.Context, address, countryCode string) (*Result, bool) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if countryCode != "" {
		q.Set("countrycodes", countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		c.log.Debug("geocode request build failed", zap.Error(err))
		return nil, false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("geocode request failed", zap.Error(err))
		return nil, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("geocode non-success status", zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil || len(hits) == 0 {
		return nil, false
	}
	lat, errLat := strconv.ParseFloat(hits[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(hits[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return nil, false
	}
	return &Result{Lat: lat, Lng: lng, DisplayName: hits[0].DisplayName}, true
}
