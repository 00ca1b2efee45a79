package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when the geolocation provider cannot be
// reached or answers with a server error after the retry.
var ErrUnavailable = errors.New("geo resolver unavailable")

// Location is the metadata the provider returns for an IP address. Field
// names follow the provider's location payload.
type Location struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Localtime string `json:"localtime"`
}

// Resolver maps a client IP to location metadata used to annotate clicks.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// Client is an HTTP Resolver implementation. Lookups are plain GET requests
// of the form {baseURL}?key={apiKey}&q={ip}; a transient failure (network
// error or 5xx) is retried once with a short backoff since the lookup is an
// idempotent read.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

const retryBackoff = 200 * time.Millisecond

// NewClient creates a geolocation client with an explicit request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Resolve looks up the location metadata for the given IP address.
func (c *Client) Resolve(ctx context.Context, ip string) (*Location, error) {
	location, err := c.resolveOnce(ctx, ip)
	if err == nil {
		return location, nil
	}
	if !errors.Is(err, ErrUnavailable) {
		return nil, err
	}

	c.log.Warn("geo lookup failed, retrying once", zap.String("ip", ip), zap.Error(err))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}

	return c.resolveOnce(ctx, ip)
}

func (c *Client) resolveOnce(ctx context.Context, ip string) (*Location, error) {
	reqURL := fmt.Sprintf("%s?key=%s&q=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup for %q failed with status %d", ip, resp.StatusCode)
	}

	var location Location
	if err := json.NewDecoder(resp.Body).Decode(&location); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}

	return &location, nil
}
