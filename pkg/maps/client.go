package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

const (
	defaultGeocodeURL          = "https://maps.googleapis.com/maps/api/geocode/json"
	errorBodyReadLimit   int64 = 1024
	responseBodyMaxBytes int64 = 1 << 20
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Geocoding API used for reverse lookups.
type Client struct {
	httpClient *http.Client
	geocodeURL string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGeocodeURL overrides the geocode endpoint.
func WithGeocodeURL(endpoint string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			c.geocodeURL = trimmed
		}
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		geocodeURL: defaultGeocodeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ReverseGeocode looks up the addresses at a coordinate and returns the
// provider's JSON document unchanged.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}

	endpoint, err := url.Parse(c.geocodeURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode url")
	}
	q := endpoint.Query()
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyMaxBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read geocode response")
	}
	if !json.Valid(body) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocode response is not json")
	}
	return json.RawMessage(body), nil
}
