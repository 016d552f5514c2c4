package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marjanov802/resellingtracker-sub000/internal/metadata"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
)

func TestDashboardService_Summary(t *testing.T) {
	t.Parallel()

	encodedNotes := func(t *testing.T, meta metadata.Meta) *string {
		t.Helper()
		encoded := metadata.Encode("", meta)
		return &encoded
	}
	gbpItem := func(t *testing.T, id string, qty int, costPence int64, estimate *int64) models.InventoryItem {
		t.Helper()
		return models.InventoryItem{
			ID: id, UserID: "user-1", Name: "Item " + id,
			Quantity: qty, CostPence: costPence,
			Notes: encodedNotes(t, metadata.Meta{
				Currency: "GBP", Status: metadata.StatusUnlisted,
				EstimatedSalePence: estimate, Listings: []metadata.Listing{},
			}),
		}
	}
	gbpSale := func(id string, qty int, pricePence, netPence int64, cost *int64) *models.SaleRecord {
		return &models.SaleRecord{
			ID: id, UserID: "user-1", ItemName: "Item " + id,
			Platform: "EBAY", Currency: "GBP", SoldAt: time.Now(),
			QuantitySold: qty, SalePricePence: pricePence, NetPence: netPence,
			CostPerUnitPence: cost,
		}
	}

	t.Run("single currency needs no rates", func(t *testing.T) {
		t.Parallel()
		invRepo := newFakeInventoryRepo()
		estimate := int64(1500)
		item := gbpItem(t, "i1", 2, 500, &estimate)
		invRepo.items["i1"] = &item

		saleRepo := newFakeSaleRepo()
		cost := int64(500)
		saleRepo.sales["s1"] = gbpSale("s1", 1, 2000, 1800, &cost)

		// Rates error on purpose: the summary must not need them.
		svc := NewDashboardService(invRepo, saleRepo, &fakeRateSource{err: errors.New("down")})

		summary, err := svc.Summary(context.Background(), "user-1", "GBP")
		require.NoError(t, err)

		assert.Equal(t, 1, summary.ItemCount)
		assert.Equal(t, 2, summary.TotalUnits)
		assert.Equal(t, int64(1000), summary.PurchaseTotalPence)
		require.NotNil(t, summary.PotentialSalePence)
		assert.Equal(t, int64(3000), *summary.PotentialSalePence)
		require.NotNil(t, summary.PotentialProfit)
		assert.Equal(t, int64(2000), *summary.PotentialProfit)

		assert.Equal(t, 1, summary.SaleCount)
		assert.Equal(t, int64(2000), summary.GrossPence)
		assert.Equal(t, int64(1800), summary.NetPence)
		assert.Equal(t, int64(500), summary.CostPence)
		assert.Equal(t, int64(1300), summary.RealizedProfit)
		assert.Equal(t, 0, summary.Unconverted)
		assert.Equal(t, "£10.00", summary.PurchaseTotalFormatted)
	})

	t.Run("foreign records converted per record", func(t *testing.T) {
		t.Parallel()
		invRepo := newFakeInventoryRepo()
		item := gbpItem(t, "i1", 1, 800, nil)
		invRepo.items["i1"] = &item

		svc := NewDashboardService(invRepo, newFakeSaleRepo(), testRates())

		summary, err := svc.Summary(context.Background(), "user-1", "EUR")
		require.NoError(t, err)
		assert.Equal(t, "EUR", summary.Currency)
		// 800 GBP -> 1000 USD -> 920 EUR
		assert.Equal(t, int64(920), summary.PurchaseTotalPence)
	})

	t.Run("unconvertible currency counted, not mixed", func(t *testing.T) {
		t.Parallel()
		invRepo := newFakeInventoryRepo()
		good := gbpItem(t, "i1", 1, 800, nil)
		invRepo.items["i1"] = &good

		odd := models.InventoryItem{
			ID: "i2", UserID: "user-1", Name: "Item i2", Quantity: 1, CostPence: 9999,
			Notes: encodedNotes(t, metadata.Meta{
				Currency: "ZZZ", Status: metadata.StatusUnlisted, Listings: []metadata.Listing{},
			}),
		}
		invRepo.items["i2"] = &odd

		svc := NewDashboardService(invRepo, newFakeSaleRepo(), testRates())

		summary, err := svc.Summary(context.Background(), "user-1", "GBP")
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ItemCount)
		assert.Equal(t, int64(800), summary.PurchaseTotalPence)
		assert.Equal(t, 1, summary.Unconverted)
	})

	t.Run("rates needed but unavailable fails", func(t *testing.T) {
		t.Parallel()
		invRepo := newFakeInventoryRepo()
		item := gbpItem(t, "i1", 1, 800, nil)
		invRepo.items["i1"] = &item

		svc := NewDashboardService(invRepo, newFakeSaleRepo(), &fakeRateSource{err: errors.New("down")})

		_, err := svc.Summary(context.Background(), "user-1", "EUR")
		assert.ErrorIs(t, err, ErrRatesUnavailable)
	})

	t.Run("empty account", func(t *testing.T) {
		t.Parallel()
		svc := NewDashboardService(newFakeInventoryRepo(), newFakeSaleRepo(), testRates())

		summary, err := svc.Summary(context.Background(), "user-1", "")
		require.NoError(t, err)
		assert.Equal(t, "GBP", summary.Currency)
		assert.Equal(t, 0, summary.ItemCount)
		assert.Nil(t, summary.PotentialSalePence)
		assert.Equal(t, "£0.00", summary.PurchaseTotalFormatted)
	})
}
