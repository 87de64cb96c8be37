package dynatrace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/obsops/fleetbrief/internal/errors"
)

const apiPrefix = "/api/v2"

// Client talks to a monitoring tenant's REST API. All endpoint methods go
// through the single get primitive; new analyses compose it rather than
// duplicating HTTP logic.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	now        func() time.Time
}

type ClientConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tenant base URL is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		cfg.BaseURL = "https://" + cfg.BaseURL
	}
	if strings.HasPrefix(cfg.BaseURL, "http://") {
		log.Warn().Str("url", cfg.BaseURL).Msg("Using HTTP for tenant connection - consider HTTPS")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + apiPrefix,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

// get issues an authorized GET against path and decodes the JSON body into
// out. Non-2xx statuses and undecodable bodies come back as API errors; there
// is no retry at this layer.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.WrapAPIError(op, path, err, 0)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Authorization", "Api-Token "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.WrapAPIError(op, path, fmt.Errorf("%w: %v", pkgerrors.ErrConnectionFailed, err), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return pkgerrors.WrapAPIError(op, path, apiErr, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.WrapAPIError(op, path, fmt.Errorf("%w: %v", pkgerrors.ErrMalformedBody, err), resp.StatusCode)
	}

	return nil
}

// Problems returns open problems from the trailing window.
func (c *Client) Problems(ctx context.Context, window time.Duration) (*ProblemsResponse, error) {
	from := c.now().UTC().Add(-window)
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02T15:04:05Z"))
	params.Set("problemSelector", `status("open")`)

	var resp ProblemsResponse
	if err := c.get(ctx, "fetch_problems", "/problems", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Hosts returns all monitored hosts with their agent version properties.
func (c *Client) Hosts(ctx context.Context) (*EntitiesResponse, error) {
	params := url.Values{}
	params.Set("entitySelector", "type(HOST)")
	params.Set("fields", "+properties.installerVersion,+properties.monitoringMode")

	var resp EntitiesResponse
	if err := c.get(ctx, "fetch_hosts", "/entities", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActiveGates returns connectivity gateways and their connection state.
func (c *Client) ActiveGates(ctx context.Context) (*ActiveGatesResponse, error) {
	var resp ActiveGatesResponse
	if err := c.get(ctx, "fetch_activegates", "/activeGates", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyntheticMonitors returns the configured synthetic checks.
func (c *Client) SyntheticMonitors(ctx context.Context) (*SyntheticMonitorsResponse, error) {
	var resp SyntheticMonitorsResponse
	if err := c.get(ctx, "fetch_synthetic", "/synthetic/monitors", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
