package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marjanov802/resellingtracker-sub000/internal/finance"
	"github.com/marjanov802/resellingtracker-sub000/internal/metadata"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// ErrInsufficientStock is returned when a sale asks for more units than the
// inventory item holds. Handlers map it to 409.
var ErrInsufficientStock = errors.New("insufficient stock")

// CreateSaleRequest records one sale. InventoryItemID links the sale to a
// stock item, in which case name, SKU, currency and cost basis are taken from
// the item and its quantity is decremented in the same transaction. Without
// it the sale is standalone and ItemName is required.
type CreateSaleRequest struct {
	InventoryItemID  *string    `json:"inventoryItemId"`
	ItemName         string     `json:"itemName"`
	SKU              *string    `json:"sku"`
	Platform         string     `json:"platform"`
	Currency         string     `json:"currency"`
	SoldAt           *time.Time `json:"soldAt"`
	QuantitySold     int        `json:"quantitySold"`
	SalePricePence   int64      `json:"salePricePence"`
	FeesPence        int64      `json:"feesPence"`
	NetPence         *int64     `json:"netPence"`
	CostPerUnitPence *int64     `json:"costPerUnitPence"`
	Notes            *string    `json:"notes"`
}

// DeleteSalesRequest selects sales for bulk deletion. At least one selector
// must be present; when several are, only sales matching all of them go.
type DeleteSalesRequest struct {
	IDs  []string   `json:"ids"`
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// SaleView is the API shape of a sale record with derived figures attached.
type SaleView struct {
	models.SaleRecord
	Financials finance.SaleFinancials  `json:"financials"`
	Display    *finance.SaleFinancials `json:"display,omitempty"`
}

// SaleService records and queries sales.
type SaleService interface {
	RecordSale(ctx context.Context, userID string, req CreateSaleRequest) (*SaleView, error)
	ListSales(ctx context.Context, userID string, filters models.SaleFilters, displayCurrency string) ([]SaleView, error)
	DeleteSale(ctx context.Context, userID, id string) error
	DeleteSales(ctx context.Context, userID string, req DeleteSalesRequest) (int64, error)
}

type saleService struct {
	saleRepo      repositories.SaleRepository
	inventoryRepo repositories.InventoryRepository
	rates         RateSource
	db            *sql.DB
	now           func() time.Time
}

// NewSaleService creates a new SaleService.
func NewSaleService(
	saleRepo repositories.SaleRepository,
	inventoryRepo repositories.InventoryRepository,
	rates RateSource,
	db *sql.DB,
) SaleService {
	return &saleService{
		saleRepo:      saleRepo,
		inventoryRepo: inventoryRepo,
		rates:         rates,
		db:            db,
		now:           time.Now,
	}
}

// RecordSale validates, derives figures and persists the sale. When the sale
// draws from an inventory item, the row lock, quantity decrement and sale
// insert all happen inside one transaction so a concurrent sale cannot
// oversell the item.
func (s *saleService) RecordSale(_ context.Context, userID string, req CreateSaleRequest) (*SaleView, error) {
	if req.QuantitySold < 1 {
		return nil, fmt.Errorf("%w: quantitySold must be at least 1", ErrValidation)
	}
	if req.SalePricePence <= 0 {
		return nil, fmt.Errorf("%w: salePricePence must be positive", ErrValidation)
	}
	if req.FeesPence < 0 {
		return nil, fmt.Errorf("%w: feesPence must not be negative", ErrValidation)
	}
	if req.InventoryItemID == nil && utils.IsEmpty(req.ItemName) {
		return nil, fmt.Errorf("%w: itemName is required for a standalone sale", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sale := &models.SaleRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		InventoryItemID:  req.InventoryItemID,
		ItemName:         strings.TrimSpace(req.ItemName),
		SKU:              req.SKU,
		Platform:         metadata.NormalizePlatform(req.Platform),
		Currency:         strings.ToUpper(strings.TrimSpace(req.Currency)),
		SoldAt:           s.now().UTC(),
		QuantitySold:     req.QuantitySold,
		SalePricePence:   req.SalePricePence,
		FeesPence:        req.FeesPence,
		CostPerUnitPence: req.CostPerUnitPence,
		Notes:            req.Notes,
	}
	if req.SoldAt != nil {
		sale.SoldAt = req.SoldAt.UTC()
	}

	if req.InventoryItemID != nil {
		if err := s.drawFromInventory(tx, userID, *req.InventoryItemID, sale); err != nil {
			return nil, err
		}
	}
	if sale.Currency == "" {
		sale.Currency = "GBP"
	}

	derived := finance.DeriveSale(finance.SaleInput{
		Currency:         sale.Currency,
		Quantity:         sale.QuantitySold,
		SalePricePence:   sale.SalePricePence,
		FeesPence:        sale.FeesPence,
		NetPence:         req.NetPence,
		CostPerUnitPence: sale.CostPerUnitPence,
		CostTotalPence:   sale.CostTotalPence,
	})
	sale.NetPence = derived.NetPence

	if err := s.saleRepo.Create(tx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	return &SaleView{SaleRecord: *sale, Financials: derived}, nil
}

// drawFromInventory locks the item, fills denormalized sale fields from it
// and decrements its stock. An item that hits zero quantity is removed: sold
// out means gone from the active inventory, while the sale record keeps its
// snapshot of the item.
func (s *saleService) drawFromInventory(tx *sql.Tx, userID, itemID string, sale *models.SaleRecord) error {
	item, err := s.inventoryRepo.GetForUpdate(tx, userID, itemID)
	if err != nil {
		return err
	}
	if item.Quantity < sale.QuantitySold {
		return fmt.Errorf("%w: item %s has %d left, sale wants %d", ErrInsufficientStock, item.ID, item.Quantity, sale.QuantitySold)
	}

	_, meta := decodeNotes(item.Notes)
	derived := finance.DeriveItem(*item, meta)

	if sale.ItemName == "" {
		sale.ItemName = item.Name
	}
	if sale.SKU == nil {
		sale.SKU = item.SKU
	}
	if sale.Currency == "" {
		sale.Currency = meta.Currency
	}
	if sale.CostPerUnitPence == nil {
		perUnit := derived.PurchasePerUnitPence
		sale.CostPerUnitPence = &perUnit
	}
	costTotal := *sale.CostPerUnitPence * int64(sale.QuantitySold)
	sale.CostTotalPence = &costTotal

	item.Quantity -= sale.QuantitySold
	if item.Quantity == 0 {
		return s.inventoryRepo.Delete(tx, userID, item.ID)
	}
	return s.inventoryRepo.Update(tx, item)
}

func (s *saleService) ListSales(ctx context.Context, userID string, filters models.SaleFilters, displayCurrency string) ([]SaleView, error) {
	sales, err := s.saleRepo.List(userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	var rates map[string]float64
	displayCurrency = strings.ToUpper(strings.TrimSpace(displayCurrency))
	if displayCurrency != "" {
		snap, _, err := s.rates.GetRates(ctx)
		if err != nil {
			utils.LogWarn("rate lookup failed, listing sales in native currencies", map[string]interface{}{"target": displayCurrency})
		} else {
			rates = snap.Rates
		}
	}

	views := make([]SaleView, 0, len(sales))
	for _, sale := range sales {
		view := SaleView{SaleRecord: sale, Financials: finance.DeriveSaleRecord(sale)}
		if displayCurrency != "" && rates != nil {
			if converted, ok := finance.ConvertSale(view.Financials, displayCurrency, rates); ok {
				view.Display = &converted
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *saleService) DeleteSale(_ context.Context, userID, id string) error {
	return s.saleRepo.Delete(s.db, userID, id)
}

// DeleteSales removes every sale matching all given selectors. Refusing an
// empty request keeps a malformed call from wiping the whole history.
func (s *saleService) DeleteSales(_ context.Context, userID string, req DeleteSalesRequest) (int64, error) {
	if len(req.IDs) == 0 && req.From == nil && req.To == nil {
		return 0, fmt.Errorf("%w: at least one of ids, from or to is required", ErrValidation)
	}
	deleted, err := s.saleRepo.DeleteMany(s.db, userID, req.IDs, req.From, req.To)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete sales: %w", err)
	}
	return deleted, nil
}
