package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marjanov802/resellingtracker-sub000/internal/billing"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// TrialDuration is the length of the one-time trial.
const TrialDuration = 14 * 24 * time.Hour

// TrialWarningDays is the remaining-days threshold below which the access
// gate surfaces a non-blocking trial-ending warning.
const TrialWarningDays = 3

// Custom Service Errors for subscriptions.
var (
	ErrTrialAlreadyUsed = errors.New("trial already used")
	ErrInvalidPlan      = errors.New("invalid subscription plan")
	ErrNoSubscription   = errors.New("no subscription on file")
)

// SubscriptionConfig carries the provider-side identifiers and redirect URLs
// the service needs.
type SubscriptionConfig struct {
	MonthlyPriceID  string
	YearlyPriceID   string
	TrialPricePence int64
	TrialCurrency   string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// CheckoutRequest selects the plan for a new checkout session.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// SubscriptionStatusResponse is the subscription summary shown to the user.
type SubscriptionStatusResponse struct {
	HasSubscription   bool       `json:"hasSubscription"`
	IsActive          bool       `json:"isActive"`
	CanUseTrial       bool       `json:"canUseTrial"`
	Status            string     `json:"status,omitempty"`
	Plan              string     `json:"plan,omitempty"`
	TrialEndsAt       *time.Time `json:"trialEndsAt,omitempty"`
	PeriodEndsAt      *time.Time `json:"periodEndsAt,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

// AccessDecision is the route guard's verdict for one request. Warning is
// informational only and never blocks access.
type AccessDecision struct {
	Allowed bool
	Reason  string
	Warning string
}

// Access gate redirect reasons.
const (
	ReasonNoSubscription = "no_subscription"
	ReasonCancelled      = "cancelled"
	ReasonPastDue        = "past_due"
	ReasonTrialExpired   = "trial_expired"
	ReasonInactive       = "inactive"

	WarningTrialEnding     = "trial_ending"
	WarningCancelScheduled = "cancel_scheduled"
)

// SubscriptionService owns the webhook-driven subscription state machine and
// the access gate derived from it.
type SubscriptionService interface {
	CreateCheckout(ctx context.Context, userID, email string, req CheckoutRequest) (string, error)
	CreatePortal(ctx context.Context, userID string) (string, error)
	GetStatus(ctx context.Context, userID string) (*SubscriptionStatusResponse, error)
	CheckAccess(ctx context.Context, userID string) (AccessDecision, error)
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
	HandleWebhookEvent(ctx context.Context, event *billing.Event) error
}

type subscriptionService struct {
	subRepo     repositories.SubscriptionRepository
	paymentRepo repositories.PaymentRepository
	billing     billing.Client
	cfg         SubscriptionConfig
	db          *sql.DB
	now         func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	paymentRepo repositories.PaymentRepository,
	billingClient billing.Client,
	cfg SubscriptionConfig,
	db *sql.DB,
) SubscriptionService {
	return &subscriptionService{
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		billing:     billingClient,
		cfg:         cfg,
		db:          db,
		now:         time.Now,
	}
}

// --- Checkout & portal ---

func (s *subscriptionService) CreateCheckout(ctx context.Context, userID, email string, req CheckoutRequest) (string, error) {
	plan := models.SubscriptionPlan(strings.ToUpper(strings.TrimSpace(req.Plan)))

	existing, err := s.subRepo.GetByUserID(userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to load subscription: %w", err)
	}

	// The trial flag is sticky: once used it survives cancellation, so a
	// second trial checkout is rejected outright.
	if plan == models.PlanTrial && existing != nil && existing.TrialUsed {
		return "", ErrTrialAlreadyUsed
	}

	customerID := ""
	if existing != nil {
		customerID = existing.CustomerID
	}
	if customerID == "" {
		customer, err := s.billing.CreateCustomer(ctx, email, "", map[string]string{billing.MetadataUserIDKey: userID})
		if err != nil {
			return "", fmt.Errorf("failed to create billing customer: %w", err)
		}
		customerID = customer.ID
	}

	params := billing.CheckoutParams{
		CustomerID: customerID,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata: map[string]string{
			billing.MetadataUserIDKey: userID,
			"plan":                    string(plan),
		},
	}

	switch plan {
	case models.PlanTrial:
		params.Mode = "payment"
		params.AmountPence = s.cfg.TrialPricePence
		params.Currency = s.cfg.TrialCurrency
	case models.PlanMonthly:
		params.Mode = "subscription"
		params.PriceID = s.cfg.MonthlyPriceID
	case models.PlanYearly:
		params.Mode = "subscription"
		params.PriceID = s.cfg.YearlyPriceID
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, req.Plan)
	}

	session, err := s.billing.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

func (s *subscriptionService) CreatePortal(ctx context.Context, userID string) (string, error) {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrNoSubscription
		}
		return "", fmt.Errorf("failed to load subscription: %w", err)
	}

	session, err := s.billing.CreateBillingPortalSession(ctx, sub.CustomerID, s.cfg.PortalReturnURL)
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return session.URL, nil
}

// --- Status & access gate ---

func (s *subscriptionService) GetStatus(_ context.Context, userID string) (*SubscriptionStatusResponse, error) {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &SubscriptionStatusResponse{CanUseTrial: true}, nil
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	status := sub.Status
	if sub.IsTrialExpiredAt(s.now().UTC()) {
		status = models.SubscriptionTrialExpired
		s.persistTrialExpiry(userID)
	}

	return &SubscriptionStatusResponse{
		HasSubscription:   true,
		IsActive:          status == models.SubscriptionActive || status == models.SubscriptionTrialing,
		CanUseTrial:       !sub.TrialUsed,
		Status:            string(status),
		Plan:              string(sub.Plan),
		TrialEndsAt:       sub.TrialEndDate,
		PeriodEndsAt:      sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

// CheckAccess evaluates the subscription gate for one protected request.
// Trial expiry is detected lazily here rather than by a background job, and
// the TRIAL_EXPIRED transition is persisted idempotently on first
// observation.
func (s *subscriptionService) CheckAccess(_ context.Context, userID string) (AccessDecision, error) {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return AccessDecision{Reason: ReasonNoSubscription}, nil
		}
		return AccessDecision{}, fmt.Errorf("failed to load subscription: %w", err)
	}

	now := s.now().UTC()
	if sub.IsTrialExpiredAt(now) {
		s.persistTrialExpiry(userID)
		return AccessDecision{Reason: ReasonTrialExpired}, nil
	}

	switch sub.Status {
	case models.SubscriptionActive, models.SubscriptionTrialing:
		decision := AccessDecision{Allowed: true}
		if sub.Status == models.SubscriptionTrialing && sub.TrialDaysRemainingAt(now) <= TrialWarningDays {
			decision.Warning = WarningTrialEnding
		}
		if sub.CancelAtPeriodEnd {
			decision.Warning = WarningCancelScheduled
		}
		return decision, nil
	case models.SubscriptionCancelled:
		return AccessDecision{Reason: ReasonCancelled}, nil
	case models.SubscriptionPastDue:
		return AccessDecision{Reason: ReasonPastDue}, nil
	case models.SubscriptionTrialExpired:
		return AccessDecision{Reason: ReasonTrialExpired}, nil
	default:
		return AccessDecision{Reason: ReasonInactive}, nil
	}
}

// persistTrialExpiry writes the observed TRIALING -> TRIAL_EXPIRED
// transition. The write is an absolute status set, so repeating it on every
// check is harmless; a failure only delays persistence since the next check
// re-derives expiry from the trial end date.
func (s *subscriptionService) persistTrialExpiry(userID string) {
	if err := s.subRepo.UpdateStatus(s.db, userID, models.SubscriptionTrialExpired); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		utils.LogError(err, "failed to persist trial expiry for user "+userID)
	}
}

func (s *subscriptionService) ListPayments(_ context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// --- Webhook state machine ---

// HandleWebhookEvent reconciles one provider event into the local
// subscription record. Unrecognized event types are ignored. Every handler
// is idempotent — upserts and absolute status sets — because providers
// redeliver events.
func (s *subscriptionService) HandleWebhookEvent(ctx context.Context, event *billing.Event) error {
	switch event.Type {
	case billing.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(event)
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		return s.handleSubscriptionUpserted(ctx, event)
	case billing.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	case billing.EventInvoicePaid:
		return s.handleInvoicePaid(event)
	case billing.EventInvoiceFailed:
		return s.handleInvoiceFailed(event)
	default:
		utils.LogDebug("ignoring webhook event", map[string]interface{}{"type": event.Type, "id": event.ID})
		return nil
	}
}

// handleCheckoutCompleted starts the one-time paid trial. Subscription-mode
// checkouts are ignored here: the subscription.created event that follows is
// the authoritative signal for those.
func (s *subscriptionService) handleCheckoutCompleted(event *billing.Event) error {
	session, err := event.CheckoutSession()
	if err != nil {
		return err
	}
	if session.Mode != "payment" {
		return nil
	}

	userID := session.Metadata[billing.MetadataUserIDKey]
	if userID == "" {
		utils.LogWarn("dropping checkout event without owner metadata", map[string]interface{}{"event": event.ID})
		return nil
	}

	now := s.now().UTC()
	trialEnd := now.Add(TrialDuration)
	sub := &models.Subscription{
		UserID:         userID,
		CustomerID:     session.Customer,
		Status:         models.SubscriptionTrialing,
		Plan:           models.PlanTrial,
		TrialStartDate: &now,
		TrialEndDate:   &trialEnd,
		TrialUsed:      true,
	}
	if err := s.subRepo.Upsert(s.db, sub); err != nil {
		return err
	}

	return s.recordPayment(userID, session.Customer, session.ID, session.AmountTotal, session.Currency, "trial")
}

// handleSubscriptionUpserted maps a provider subscription onto the local
// record. Owner resolution tries the event metadata first, then the local
// record for the billing customer, then a provider round-trip for the
// customer's metadata; an unresolvable owner drops the event (logged, still
// acknowledged) rather than failing the delivery.
func (s *subscriptionService) handleSubscriptionUpserted(ctx context.Context, event *billing.Event) error {
	providerSub, err := event.Subscription()
	if err != nil {
		return err
	}

	userID := providerSub.Metadata[billing.MetadataUserIDKey]
	if userID == "" {
		if existing, err := s.subRepo.GetByCustomerID(providerSub.Customer); err == nil {
			userID = existing.UserID
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
	}
	if userID == "" {
		customer, err := s.billing.RetrieveCustomer(ctx, providerSub.Customer)
		if err != nil {
			utils.LogError(err, "customer lookup failed while resolving subscription owner")
		} else {
			userID = customer.Metadata[billing.MetadataUserIDKey]
		}
	}
	if userID == "" {
		utils.LogWarn("dropping subscription event: owner unresolved", map[string]interface{}{
			"event":    event.ID,
			"customer": providerSub.Customer,
		})
		return nil
	}

	plan := models.PlanMonthly
	if providerSub.PriceID() != "" && providerSub.PriceID() == s.cfg.YearlyPriceID {
		plan = models.PlanYearly
	}

	subscriptionID := providerSub.ID
	priceID := providerSub.PriceID()
	sub := &models.Subscription{
		UserID:             userID,
		CustomerID:         providerSub.Customer,
		SubscriptionID:     nilIfEmpty(subscriptionID),
		PriceID:            nilIfEmpty(priceID),
		Status:             mapProviderStatus(providerSub.Status),
		Plan:               plan,
		CurrentPeriodStart: providerSub.PeriodStart(),
		CurrentPeriodEnd:   providerSub.PeriodEnd(),
		CancelAtPeriodEnd:  providerSub.CancelAtPeriodEnd,
	}
	return s.subRepo.Upsert(s.db, sub)
}

func (s *subscriptionService) handleSubscriptionDeleted(event *billing.Event) error {
	providerSub, err := event.Subscription()
	if err != nil {
		return err
	}
	if _, err := s.subRepo.GetByCustomerID(providerSub.Customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.subRepo.MarkCancelledByCustomerID(s.db, providerSub.Customer, providerSub.PeriodEnd())
}

func (s *subscriptionService) handleInvoicePaid(event *billing.Event) error {
	invoice, err := event.Invoice()
	if err != nil {
		return err
	}
	// One-off invoices without a subscription are none of our business.
	if invoice.Subscription == "" {
		return nil
	}

	sub, err := s.subRepo.GetByCustomerID(invoice.Customer)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn("invoice paid for unknown customer", map[string]interface{}{"customer": invoice.Customer})
			return nil
		}
		return err
	}

	if err := s.recordPayment(sub.UserID, invoice.Customer, invoice.ID, invoice.AmountPaid, invoice.Currency, "subscription"); err != nil {
		return err
	}

	if sub.Status == models.SubscriptionPastDue {
		return s.subRepo.UpdateStatus(s.db, sub.UserID, models.SubscriptionActive)
	}
	return nil
}

func (s *subscriptionService) handleInvoiceFailed(event *billing.Event) error {
	invoice, err := event.Invoice()
	if err != nil {
		return err
	}
	if invoice.Subscription == "" {
		return nil
	}
	return s.subRepo.UpdateStatusByCustomerID(s.db, invoice.Customer, models.SubscriptionPastDue)
}

func (s *subscriptionService) recordPayment(userID, customerID, providerRef string, amountPence int64, currency, kind string) error {
	payment := &models.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		CustomerID:  customerID,
		ProviderRef: nilIfEmpty(providerRef),
		AmountPence: amountPence,
		Currency:    strings.ToUpper(currency),
		Kind:        kind,
	}
	return s.paymentRepo.Create(s.db, payment)
}

// mapProviderStatus translates the provider's subscription status strings
// into the local enum. Unknown values land on INACTIVE rather than failing.
func mapProviderStatus(providerStatus string) models.SubscriptionStatus {
	switch providerStatus {
	case "active":
		return models.SubscriptionActive
	case "past_due", "unpaid":
		return models.SubscriptionPastDue
	case "canceled":
		return models.SubscriptionCancelled
	case "trialing":
		return models.SubscriptionTrialing
	default:
		return models.SubscriptionInactive
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
