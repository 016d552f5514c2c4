package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marjanov802/resellingtracker-sub000/internal/models"
)

// SubscriptionRepository stores the one-per-user subscription rows driven by
// billing webhooks. All writes are idempotent: the upsert keys on user_id and
// status updates are absolute sets, never increments, so event redelivery is
// harmless.
type SubscriptionRepository interface {
	GetByUserID(userID string) (*models.Subscription, error)
	GetByCustomerID(customerID string) (*models.Subscription, error)
	Upsert(executor SQLExecutor, sub *models.Subscription) error
	UpdateStatus(executor SQLExecutor, userID string, status models.SubscriptionStatus) error
	UpdateStatusByCustomerID(executor SQLExecutor, customerID string, status models.SubscriptionStatus) error
	MarkCancelledByCustomerID(executor SQLExecutor, customerID string, periodEnd *time.Time) error
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

const subscriptionColumns = `user_id, customer_id, subscription_id, price_id, status, plan,
	trial_start_date, trial_end_date, trial_used, current_period_start, current_period_end,
	cancel_at_period_end, created_at, updated_at`

func (r *subscriptionRepository) GetByUserID(userID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	return r.scanOne(r.db.QueryRow(query, userID))
}

func (r *subscriptionRepository) GetByCustomerID(customerID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE customer_id = $1
	          ORDER BY updated_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, customerID))
}

func (r *subscriptionRepository) scanOne(row *sql.Row) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := row.Scan(
		&sub.UserID, &sub.CustomerID, &sub.SubscriptionID, &sub.PriceID, &sub.Status, &sub.Plan,
		&sub.TrialStartDate, &sub.TrialEndDate, &sub.TrialUsed, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting subscription: %v", ErrDatabaseError, err)
	}
	return sub, nil
}

// Upsert creates or replaces the user's subscription row. Sticky fields keep
// their strongest value across events: trial_used only ever flips to true,
// and trial dates and period bounds survive events that omit them.
func (r *subscriptionRepository) Upsert(executor SQLExecutor, sub *models.Subscription) error {
	query := `INSERT INTO subscriptions
	          (user_id, customer_id, subscription_id, price_id, status, plan,
	           trial_start_date, trial_end_date, trial_used, current_period_start, current_period_end,
	           cancel_at_period_end, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	          ON CONFLICT (user_id) DO UPDATE SET
	            customer_id          = EXCLUDED.customer_id,
	            subscription_id      = COALESCE(EXCLUDED.subscription_id, subscriptions.subscription_id),
	            price_id             = COALESCE(EXCLUDED.price_id, subscriptions.price_id),
	            status               = EXCLUDED.status,
	            plan                 = EXCLUDED.plan,
	            trial_start_date     = COALESCE(EXCLUDED.trial_start_date, subscriptions.trial_start_date),
	            trial_end_date       = COALESCE(EXCLUDED.trial_end_date, subscriptions.trial_end_date),
	            trial_used           = subscriptions.trial_used OR EXCLUDED.trial_used,
	            current_period_start = COALESCE(EXCLUDED.current_period_start, subscriptions.current_period_start),
	            current_period_end   = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
	            cancel_at_period_end = EXCLUDED.cancel_at_period_end,
	            updated_at           = EXCLUDED.updated_at
	          RETURNING trial_used, created_at, updated_at`
	err := executor.QueryRow(query,
		sub.UserID, sub.CustomerID, sub.SubscriptionID, sub.PriceID, sub.Status, sub.Plan,
		sub.TrialStartDate, sub.TrialEndDate, sub.TrialUsed, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, time.Now(),
	).Scan(&sub.TrialUsed, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upserting subscription for user %s: %v", ErrDatabaseError, sub.UserID, err)
	}
	return nil
}

func (r *subscriptionRepository) UpdateStatus(executor SQLExecutor, userID string, status models.SubscriptionStatus) error {
	result, err := executor.Exec(
		`UPDATE subscriptions SET status = $1, updated_at = $2 WHERE user_id = $3`,
		status, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating subscription status for user %s: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusByCustomerID sets the status on every row for the billing
// customer. Used by invoice failure handling; a zero match is not an error.
func (r *subscriptionRepository) UpdateStatusByCustomerID(executor SQLExecutor, customerID string, status models.SubscriptionStatus) error {
	_, err := executor.Exec(
		`UPDATE subscriptions SET status = $1, updated_at = $2 WHERE customer_id = $3`,
		status, time.Now(), customerID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating subscription status for customer %s: %v", ErrDatabaseError, customerID, err)
	}
	return nil
}

// MarkCancelledByCustomerID flips the customer's row to CANCELLED and
// records the final period end when the provider supplies one. No-op when no
// row matches.
func (r *subscriptionRepository) MarkCancelledByCustomerID(executor SQLExecutor, customerID string, periodEnd *time.Time) error {
	_, err := executor.Exec(
		`UPDATE subscriptions
		 SET status = $1, current_period_end = COALESCE($2, current_period_end), updated_at = $3
		 WHERE customer_id = $4`,
		models.SubscriptionCancelled, periodEnd, time.Now(), customerID,
	)
	if err != nil {
		return fmt.Errorf("%w: cancelling subscription for customer %s: %v", ErrDatabaseError, customerID, err)
	}
	return nil
}
