package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/marjanov802/resellingtracker-sub000/internal/models"
)

// InventoryRepository is owner-scoped CRUD for inventory items. Every read
// and write filters by user id; a wrong owner looks identical to a missing
// record.
type InventoryRepository interface {
	Create(executor SQLExecutor, item *models.InventoryItem) error
	GetByID(userID, id string) (*models.InventoryItem, error)
	GetForUpdate(executor SQLExecutor, userID, id string) (*models.InventoryItem, error)
	List(userID string) ([]models.InventoryItem, error)
	Update(executor SQLExecutor, item *models.InventoryItem) error
	Delete(executor SQLExecutor, userID, id string) error
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryColumns = `id, user_id, name, sku, quantity, cost_pence, notes, created_at, updated_at`

func (r *inventoryRepository) Create(executor SQLExecutor, item *models.InventoryItem) error {
	query := `INSERT INTO inventory_items (id, user_id, name, sku, quantity, cost_pence, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	          RETURNING created_at, updated_at`
	err := executor.QueryRow(query,
		item.ID, item.UserID, item.Name, item.SKU, item.Quantity, item.CostPence, item.Notes, time.Now(),
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: inventory item id %s (constraint: %s)", ErrDuplicateKey, item.ID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating inventory item: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *inventoryRepository) GetByID(userID, id string) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1 AND user_id = $2`
	return scanInventoryItem(r.db.QueryRow(query, id, userID), id)
}

// GetForUpdate locks the item row for the duration of the surrounding
// transaction. Used by sale recording to decrement quantity safely.
func (r *inventoryRepository) GetForUpdate(executor SQLExecutor, userID, id string) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return scanInventoryItem(executor.QueryRow(query, id, userID), id)
}

func scanInventoryItem(row *sql.Row, id string) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.SKU, &item.Quantity, &item.CostPence, &item.Notes, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item %s: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryRepository) List(userID string) ([]models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.SKU, &item.Quantity, &item.CostPence, &item.Notes, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) Update(executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items
	          SET name = $1, sku = $2, quantity = $3, cost_pence = $4, notes = $5, updated_at = $6
	          WHERE id = $7 AND user_id = $8`
	result, err := executor.Exec(query, item.Name, item.SKU, item.Quantity, item.CostPence, item.Notes, time.Now(), item.ID, item.UserID)
	if err != nil {
		return fmt.Errorf("%w: updating inventory item %s: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) Delete(executor SQLExecutor, userID, id string) error {
	result, err := executor.Exec(`DELETE FROM inventory_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("%w: deleting inventory item %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
