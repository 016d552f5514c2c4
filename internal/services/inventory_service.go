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
	"github.com/marjanov802/resellingtracker-sub000/internal/fx"
	"github.com/marjanov802/resellingtracker-sub000/internal/metadata"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// ErrValidation marks input the caller can fix. Handlers map it to 400 with
// the wrapped detail naming the offending field.
var ErrValidation = errors.New("validation failed")

// RateSource yields the current FX snapshot. Satisfied by *fx.Cache.
type RateSource interface {
	GetRates(ctx context.Context) (*fx.Snapshot, bool, error)
}

// CreateInventoryItemRequest is the payload for creating an item. Meta, when
// present, is normalized and embedded into the stored notes envelope.
type CreateInventoryItemRequest struct {
	Name      string            `json:"name" binding:"required"`
	SKU       *string           `json:"sku"`
	Quantity  int               `json:"quantity"`
	CostPence int64             `json:"costPence"`
	Notes     string            `json:"notes"`
	Meta      *metadata.RawMeta `json:"meta"`
}

// UpdateInventoryItemRequest is a partial patch: nil fields keep their stored
// value. A non-nil Meta replaces the embedded metadata wholesale.
type UpdateInventoryItemRequest struct {
	Name      *string           `json:"name"`
	SKU       *string           `json:"sku"`
	Quantity  *int              `json:"quantity"`
	CostPence *int64            `json:"costPence"`
	Notes     *string           `json:"notes"`
	Meta      *metadata.RawMeta `json:"meta"`
}

// InventoryItemView is the API shape of an item: the stored row with its
// notes envelope decoded and financials derived. Display holds the figures
// converted into the requested display currency; it is nil when no
// conversion was requested or the rate table could not cover the item's
// currency.
type InventoryItemView struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	SKU        *string                 `json:"sku,omitempty"`
	Quantity   int                     `json:"quantity"`
	Notes      string                  `json:"notes"`
	Meta       metadata.Meta           `json:"meta"`
	Financials finance.ItemFinancials  `json:"financials"`
	Display    *finance.ItemFinancials `json:"display,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

// InventoryService owns item CRUD plus the derived financial views.
type InventoryService interface {
	CreateItem(ctx context.Context, userID string, req CreateInventoryItemRequest) (*InventoryItemView, error)
	GetItem(ctx context.Context, userID, id string) (*InventoryItemView, error)
	ListItems(ctx context.Context, userID, displayCurrency string) ([]InventoryItemView, error)
	UpdateItem(ctx context.Context, userID, id string, req UpdateInventoryItemRequest) (*InventoryItemView, error)
	DeleteItem(ctx context.Context, userID, id string) error
}

type inventoryService struct {
	repo  repositories.InventoryRepository
	rates RateSource
	db    *sql.DB
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(repo repositories.InventoryRepository, rates RateSource, db *sql.DB) InventoryService {
	return &inventoryService{repo: repo, rates: rates, db: db}
}

func (s *inventoryService) CreateItem(_ context.Context, userID string, req CreateInventoryItemRequest) (*InventoryItemView, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if req.CostPence < 0 {
		return nil, fmt.Errorf("%w: costPence must not be negative", ErrValidation)
	}

	var meta metadata.Meta
	if req.Meta != nil {
		meta = metadata.Normalize(*req.Meta)
	} else {
		meta = metadata.Normalize(metadata.RawMeta{})
	}
	encoded := metadata.Encode(req.Notes, meta)

	item := &models.InventoryItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		CostPence: req.CostPence,
		Notes:     &encoded,
	}
	if err := s.repo.Create(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	view := s.buildView(*item, "", nil)
	return &view, nil
}

func (s *inventoryService) GetItem(_ context.Context, userID, id string) (*InventoryItemView, error) {
	item, err := s.repo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	view := s.buildView(*item, "", nil)
	return &view, nil
}

// ListItems returns all of the user's items, optionally converting each
// item's figures into displayCurrency. A stale or unreachable rate provider
// degrades to native-currency figures instead of failing the listing.
func (s *inventoryService) ListItems(ctx context.Context, userID, displayCurrency string) ([]InventoryItemView, error) {
	items, err := s.repo.List(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}

	var rates map[string]float64
	displayCurrency = strings.ToUpper(strings.TrimSpace(displayCurrency))
	if displayCurrency != "" {
		snap, _, err := s.rates.GetRates(ctx)
		if err != nil {
			utils.LogWarn("rate lookup failed, listing in native currencies", map[string]interface{}{"target": displayCurrency})
		} else {
			rates = snap.Rates
		}
	}

	views := make([]InventoryItemView, 0, len(items))
	for _, item := range items {
		views = append(views, s.buildView(item, displayCurrency, rates))
	}
	return views, nil
}

func (s *inventoryService) UpdateItem(_ context.Context, userID, id string, req UpdateInventoryItemRequest) (*InventoryItemView, error) {
	item, err := s.repo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	plainNotes, meta := decodeNotes(item.Notes)

	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		item.SKU = req.SKU
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
		}
		item.Quantity = *req.Quantity
	}
	if req.CostPence != nil {
		if *req.CostPence < 0 {
			return nil, fmt.Errorf("%w: costPence must not be negative", ErrValidation)
		}
		item.CostPence = *req.CostPence
	}
	if req.Notes != nil {
		plainNotes = *req.Notes
	}
	if req.Meta != nil {
		meta = metadata.Normalize(*req.Meta)
	}

	encoded := metadata.Encode(plainNotes, meta)
	item.Notes = &encoded

	if err := s.repo.Update(s.db, item); err != nil {
		return nil, err
	}

	view := s.buildView(*item, "", nil)
	return &view, nil
}

func (s *inventoryService) DeleteItem(_ context.Context, userID, id string) error {
	return s.repo.Delete(s.db, userID, id)
}

func (s *inventoryService) buildView(item models.InventoryItem, displayCurrency string, rates map[string]float64) InventoryItemView {
	plainNotes, meta := decodeNotes(item.Notes)
	financials := finance.DeriveItem(item, meta)

	view := InventoryItemView{
		ID:         item.ID,
		Name:       item.Name,
		SKU:        item.SKU,
		Quantity:   item.Quantity,
		Notes:      plainNotes,
		Meta:       meta,
		Financials: financials,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}

	if displayCurrency != "" && rates != nil {
		if converted, ok := finance.ConvertItem(financials, displayCurrency, rates); ok {
			view.Display = &converted
		}
	}
	return view
}

func decodeNotes(notes *string) (string, metadata.Meta) {
	raw := ""
	if notes != nil {
		raw = *notes
	}
	return metadata.Decode(raw)
}
