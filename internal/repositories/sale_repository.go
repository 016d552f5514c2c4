package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/marjanov802/resellingtracker-sub000/internal/models"
)

// SaleRepository persists sale records. Records are append-only: there is no
// update method by design. Bulk deletion supports an id set and/or an
// inclusive sold-at range with intersection semantics.
type SaleRepository interface {
	Create(executor SQLExecutor, sale *models.SaleRecord) error
	GetByID(userID, id string) (*models.SaleRecord, error)
	List(userID string, filters models.SaleFilters) ([]models.SaleRecord, error)
	Delete(executor SQLExecutor, userID, id string) error
	DeleteMany(executor SQLExecutor, userID string, ids []string, from, to *time.Time) (int64, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, user_id, inventory_item_id, item_name, sku, platform, currency, sold_at,
	quantity_sold, sale_price_pence, fees_pence, net_pence, cost_per_unit_pence, cost_total_pence, notes, created_at`

func (r *saleRepository) Create(executor SQLExecutor, sale *models.SaleRecord) error {
	query := `INSERT INTO sale_records
	          (id, user_id, inventory_item_id, item_name, sku, platform, currency, sold_at,
	           quantity_sold, sale_price_pence, fees_pence, net_pence, cost_per_unit_pence, cost_total_pence, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING created_at`
	err := executor.QueryRow(query,
		sale.ID, sale.UserID, sale.InventoryItemID, sale.ItemName, sale.SKU, sale.Platform, sale.Currency, sale.SoldAt,
		sale.QuantitySold, sale.SalePricePence, sale.FeesPence, sale.NetPence, sale.CostPerUnitPence, sale.CostTotalPence, sale.Notes, time.Now(),
	).Scan(&sale.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: sale record id %s (constraint: %s)", ErrDuplicateKey, sale.ID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating sale record: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *saleRepository) GetByID(userID, id string) (*models.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sale_records WHERE id = $1 AND user_id = $2`
	sale := &models.SaleRecord{}
	err := r.db.QueryRow(query, id, userID).Scan(
		&sale.ID, &sale.UserID, &sale.InventoryItemID, &sale.ItemName, &sale.SKU, &sale.Platform, &sale.Currency, &sale.SoldAt,
		&sale.QuantitySold, &sale.SalePricePence, &sale.FeesPence, &sale.NetPence, &sale.CostPerUnitPence, &sale.CostTotalPence, &sale.Notes, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale record %s: %v", ErrDatabaseError, id, err)
	}
	return sale, nil
}

func (r *saleRepository) List(userID string, filters models.SaleFilters) ([]models.SaleRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + saleColumns + ` FROM sale_records WHERE user_id = $1`)
	args := []interface{}{userID}

	if filters.Platform != nil {
		args = append(args, *filters.Platform)
		sb.WriteString(` AND platform = $` + strconv.Itoa(len(args)))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		sb.WriteString(` AND sold_at >= $` + strconv.Itoa(len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		sb.WriteString(` AND sold_at <= $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY sold_at DESC`)

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing sale records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sales := []models.SaleRecord{}
	for rows.Next() {
		var sale models.SaleRecord
		if err := rows.Scan(
			&sale.ID, &sale.UserID, &sale.InventoryItemID, &sale.ItemName, &sale.SKU, &sale.Platform, &sale.Currency, &sale.SoldAt,
			&sale.QuantitySold, &sale.SalePricePence, &sale.FeesPence, &sale.NetPence, &sale.CostPerUnitPence, &sale.CostTotalPence, &sale.Notes, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale record: %v", ErrDatabaseError, err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale records: %v", ErrDatabaseError, err)
	}
	return sales, nil
}

func (r *saleRepository) Delete(executor SQLExecutor, userID, id string) error {
	result, err := executor.Exec(`DELETE FROM sale_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("%w: deleting sale record %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes sales matching every provided filter. At least one of
// the id set or a range bound must be present; the service layer enforces
// that before calling.
func (r *saleRepository) DeleteMany(executor SQLExecutor, userID string, ids []string, from, to *time.Time) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`DELETE FROM sale_records WHERE user_id = $1`)
	args := []interface{}{userID}

	if len(ids) > 0 {
		args = append(args, pq.Array(ids))
		sb.WriteString(` AND id = ANY($` + strconv.Itoa(len(args)) + `)`)
	}
	if from != nil {
		args = append(args, *from)
		sb.WriteString(` AND sold_at >= $` + strconv.Itoa(len(args)))
	}
	if to != nil {
		args = append(args, *to)
		sb.WriteString(` AND sold_at <= $` + strconv.Itoa(len(args)))
	}

	result, err := executor.Exec(sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("%w: bulk deleting sale records: %v", ErrDatabaseError, err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
