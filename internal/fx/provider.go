// Package fx fetches and caches the daily USD-based exchange-rate table used
// for display-currency conversion.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrProvider wraps any upstream failure: transport errors, non-2xx statuses
// and malformed bodies. Handlers map it to 502.
var ErrProvider = errors.New("fx provider error")

// Snapshot is one complete rate table as fetched from the provider. Rates are
// units per USD.
type Snapshot struct {
	Base          string             `json:"base"`
	Rates         map[string]float64 `json:"rates"`
	FetchedAt     time.Time          `json:"fetched_at"`
	NextUpdateUTC string             `json:"next_update_utc"`
}

// Provider fetches the latest USD-based rate table.
type Provider interface {
	FetchLatest(ctx context.Context) (*Snapshot, error)
}

// Client talks to an open.er-api.com compatible rate endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a provider client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchLatest requests the latest rates with base USD. Any non-success
// result, missing rates map, or transport failure comes back as ErrProvider.
func (c *Client) FetchLatest(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v6/latest/USD", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrProvider, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, string(body))
	}

	var payload struct {
		Result            string             `json:"result"`
		Rates             map[string]float64 `json:"rates"`
		TimeNextUpdateUTC string             `json:"time_next_update_utc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
	}
	if payload.Result != "success" || len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: unexpected response (result=%q, %d rates)", ErrProvider, payload.Result, len(payload.Rates))
	}

	return &Snapshot{
		Base:          "USD",
		Rates:         payload.Rates,
		FetchedAt:     time.Now().UTC(),
		NextUpdateUTC: payload.TimeNextUpdateUTC,
	}, nil
}
