// Package billing integrates with the external payment provider: an HTTP
// client for checkout/portal/customer calls, typed webhook event payloads,
// and signature verification for inbound deliveries.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrBillingAPI wraps any failure talking to the billing provider's API.
var ErrBillingAPI = errors.New("billing provider error")

// CheckoutParams describes a checkout session to create. Mode is
// "subscription" for recurring plans and "payment" for the one-time trial
// charge; AmountPence applies only in payment mode.
type CheckoutParams struct {
	CustomerID  string
	PriceID     string
	Mode        string
	AmountPence int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the provider's hosted checkout page.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession is the provider's hosted billing management page.
type PortalSession struct {
	URL string `json:"url"`
}

// Customer is the provider-side customer record. Metadata round-trips the
// local user id so webhook events can be attributed to an owner.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

// Client is the surface the rest of the app uses to reach the billing
// provider.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*Customer, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
}

type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient builds the HTTP billing client.
func NewClient(baseURL, apiKey string) Client {
	return &httpClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *httpClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	payload := map[string]any{
		"customer":    params.CustomerID,
		"mode":        params.Mode,
		"success_url": params.SuccessURL,
		"cancel_url":  params.CancelURL,
		"metadata":    params.Metadata,
	}
	if params.Mode == "payment" {
		payload["amount_total"] = params.AmountPence
		payload["currency"] = strings.ToLower(params.Currency)
	} else {
		payload["price"] = params.PriceID
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *httpClient) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	payload := map[string]any{
		"customer":   customerID,
		"return_url": returnURL,
	}
	var session PortalSession
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *httpClient) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*Customer, error) {
	payload := map[string]any{
		"email":    email,
		"name":     name,
		"metadata": metadata,
	}
	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customers", payload, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *httpClient) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodGet, "/v1/customers/"+customerID, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrBillingAPI, method, path, resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrBillingAPI, err)
		}
	}
	return nil
}
