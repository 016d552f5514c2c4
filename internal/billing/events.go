package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Webhook event types this system reacts to. Anything else is acknowledged
// and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// MetadataUserIDKey is the metadata key carrying the local owner id on
// customers, checkout sessions and subscriptions.
const MetadataUserIDKey = "user_id"

// Event is the provider's webhook envelope. Data.Object stays raw until the
// dispatcher knows which payload type applies.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook delivery body.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("parse webhook event: missing type")
	}
	return &event, nil
}

// CheckoutSessionObject is the payload of checkout.session.completed.
type CheckoutSessionObject struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	AmountTotal  int64             `json:"amount_total"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// SubscriptionObject is the payload of customer.subscription.* events.
type SubscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the price id of the first subscription item, or empty.
func (s *SubscriptionObject) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// PeriodStart converts the provider's unix timestamp, nil when unset.
func (s *SubscriptionObject) PeriodStart() *time.Time {
	return unixTime(s.CurrentPeriodStart)
}

// PeriodEnd converts the provider's unix timestamp, nil when unset.
func (s *SubscriptionObject) PeriodEnd() *time.Time {
	return unixTime(s.CurrentPeriodEnd)
}

// InvoiceObject is the payload of invoice.payment_* events.
type InvoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
	AmountDue    int64  `json:"amount_due"`
	Currency     string `json:"currency"`
}

// CheckoutSession decodes the event payload as a checkout session.
func (e *Event) CheckoutSession() (*CheckoutSessionObject, error) {
	var obj CheckoutSessionObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("decode checkout session object: %w", err)
	}
	return &obj, nil
}

// Subscription decodes the event payload as a subscription.
func (e *Event) Subscription() (*SubscriptionObject, error) {
	var obj SubscriptionObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("decode subscription object: %w", err)
	}
	return &obj, nil
}

// Invoice decodes the event payload as an invoice.
func (e *Event) Invoice() (*InvoiceObject, error) {
	var obj InvoiceObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("decode invoice object: %w", err)
	}
	return &obj, nil
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
