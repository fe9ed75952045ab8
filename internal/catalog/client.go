package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the NHTSA vPIC vehicles API.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

const maxResponseSize = 16 << 20

// ClientConfig configures the vPIC client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
}

// Client is a rate limited client for the NHTSA vPIC API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
	}
}

// VPICMake is one entry of GetAllMakes.
type VPICMake struct {
	ID   int64  `json:"Make_ID"`
	Name string `json:"Make_Name"`
}

// VPICModel is one entry of GetModelsForMakeId.
type VPICModel struct {
	ID   int64  `json:"Model_ID"`
	Name string `json:"Model_Name"`
}

type vpicModelYear struct {
	ModelYear string `json:"ModelYear"`
}

type vpicResponse[T any] struct {
	Count   int `json:"Count"`
	Results []T `json:"Results"`
}

// GetAllMakes lists every make known to vPIC.
func (c *Client) GetAllMakes(ctx context.Context) ([]VPICMake, error) {
	var resp vpicResponse[VPICMake]
	if err := c.get(ctx, "/GetAllMakes", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetModelsForMakeID lists the models of one make.
func (c *Client) GetModelsForMakeID(ctx context.Context, makeID int64) ([]VPICModel, error) {
	var resp vpicResponse[VPICModel]
	if err := c.get(ctx, fmt.Sprintf("/GetModelsForMakeId/%d", makeID), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetModelYearsForMakeID returns the raw model year strings of one make.
func (c *Client) GetModelYearsForMakeID(ctx context.Context, makeID int64) ([]string, error) {
	var resp vpicResponse[vpicModelYear]
	if err := c.get(ctx, fmt.Sprintf("/GetModelYearsForMakeId/%d", makeID), &resp); err != nil {
		return nil, err
	}
	years := make([]string, 0, len(resp.Results))
	for _, y := range resp.Results {
		years = append(years, y.ModelYear)
	}
	return years, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	url := c.baseURL + path + "?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}
