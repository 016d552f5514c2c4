package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/marjanov802/resellingtracker-sub000/internal/models"
)

// PaymentRepository is the append-only log of payments observed via billing
// webhooks. Creation is keyed on the provider reference so a redelivered
// event never duplicates a row.
type PaymentRepository interface {
	Create(executor SQLExecutor, payment *models.Payment) error
	ListByUser(userID string) ([]models.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(executor SQLExecutor, payment *models.Payment) error {
	query := `INSERT INTO payments (id, user_id, customer_id, provider_ref, amount_pence, currency, kind, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (provider_ref, kind) WHERE provider_ref IS NOT NULL DO NOTHING
	          RETURNING created_at`
	err := executor.QueryRow(query,
		payment.ID, payment.UserID, payment.CustomerID, payment.ProviderRef,
		payment.AmountPence, payment.Currency, payment.Kind, time.Now(),
	).Scan(&payment.CreatedAt)
	if err != nil {
		// No row back means the conflict target matched: the event was
		// redelivered and the payment is already on file.
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: payment id %s (constraint: %s)", ErrDuplicateKey, payment.ID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating payment: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *paymentRepository) ListByUser(userID string) ([]models.Payment, error) {
	query := `SELECT id, user_id, customer_id, provider_ref, amount_pence, currency, kind, created_at
	          FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.CustomerID, &p.ProviderRef, &p.AmountPence, &p.Currency, &p.Kind, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}
