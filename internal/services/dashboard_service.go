package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marjanov802/resellingtracker-sub000/internal/finance"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/pkg/money"
)

// ErrRatesUnavailable is returned when a summary needs currency conversion
// but no usable rate table could be fetched. Handlers map it to 502.
var ErrRatesUnavailable = errors.New("exchange rates unavailable")

// DashboardSummary aggregates the user's inventory and sales into one
// currency. Sums only ever include records that were converted (or already
// in the target currency); everything else is counted in Unconverted rather
// than silently mixed in at a wrong rate.
type DashboardSummary struct {
	Currency string `json:"currency"`

	ItemCount          int    `json:"itemCount"`
	TotalUnits         int    `json:"totalUnits"`
	PurchaseTotalPence int64  `json:"purchaseTotalPence"`
	PotentialSalePence *int64 `json:"potentialSalePence"`
	PotentialProfit    *int64 `json:"potentialProfitPence"`

	SaleCount        int   `json:"saleCount"`
	GrossPence       int64 `json:"grossPence"`
	NetPence         int64 `json:"netPence"`
	CostPence        int64 `json:"costPence"`
	RealizedProfit   int64 `json:"realizedProfitPence"`
	UnitsSold        int   `json:"unitsSold"`

	Unconverted int `json:"unconverted"`

	PurchaseTotalFormatted  string `json:"purchaseTotalFormatted"`
	RealizedProfitFormatted string `json:"realizedProfitFormatted"`
}

// DashboardService renders the cross-entity profit summary.
type DashboardService interface {
	Summary(ctx context.Context, userID, currency string) (*DashboardSummary, error)
}

type dashboardService struct {
	inventoryRepo repositories.InventoryRepository
	saleRepo      repositories.SaleRepository
	rates         RateSource
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	inventoryRepo repositories.InventoryRepository,
	saleRepo repositories.SaleRepository,
	rates RateSource,
) DashboardService {
	return &dashboardService{
		inventoryRepo: inventoryRepo,
		saleRepo:      saleRepo,
		rates:         rates,
	}
}

// Summary converts each record individually into the target currency before
// summing. The rate table is fetched lazily, only once the first record in a
// different currency shows up; a fetch failure at that point fails the whole
// summary, because a partial total would be worse than none.
func (s *dashboardService) Summary(ctx context.Context, userID, currency string) (*DashboardSummary, error) {
	target := strings.ToUpper(strings.TrimSpace(currency))
	if target == "" {
		target = "GBP"
	}

	items, err := s.inventoryRepo.List(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	sales, err := s.saleRepo.List(userID, models.SaleFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	summary := &DashboardSummary{Currency: target}

	var rates map[string]float64
	loadRates := func() (map[string]float64, error) {
		if rates != nil {
			return rates, nil
		}
		snap, _, err := s.rates.GetRates(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
		}
		rates = snap.Rates
		return rates, nil
	}

	var potentialSale, potentialProfit int64
	var havePotential bool

	for _, item := range items {
		_, meta := decodeNotes(item.Notes)
		f := finance.DeriveItem(item, meta)

		if f.Currency != target {
			table, err := loadRates()
			if err != nil {
				return nil, err
			}
			converted, ok := finance.ConvertItem(f, target, table)
			if !ok {
				summary.Unconverted++
				continue
			}
			f = converted
		}

		summary.ItemCount++
		summary.TotalUnits += item.Quantity
		summary.PurchaseTotalPence += f.PurchaseTotalPence
		if f.SaleTotalPence != nil {
			potentialSale += *f.SaleTotalPence
			havePotential = true
		}
		if f.ProfitTotalPence != nil {
			potentialProfit += *f.ProfitTotalPence
		}
	}

	if havePotential {
		summary.PotentialSalePence = &potentialSale
		summary.PotentialProfit = &potentialProfit
	}

	for _, sale := range sales {
		f := finance.DeriveSaleRecord(sale)

		if f.Currency != target {
			table, err := loadRates()
			if err != nil {
				return nil, err
			}
			converted, ok := finance.ConvertSale(f, target, table)
			if !ok {
				summary.Unconverted++
				continue
			}
			f = converted
		}

		summary.SaleCount++
		summary.UnitsSold += sale.QuantitySold
		summary.GrossPence += f.GrossPence
		summary.NetPence += f.NetPence
		summary.CostPence += f.CostTotalPence
		summary.RealizedProfit += f.ProfitPence
	}

	summary.PurchaseTotalFormatted = money.Format(target, summary.PurchaseTotalPence)
	summary.RealizedProfitFormatted = money.Format(target, summary.RealizedProfit)
	return summary, nil
}
