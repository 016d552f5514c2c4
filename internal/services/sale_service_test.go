package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
)

// fakeSaleRepo is an in-memory SaleRepository.
type fakeSaleRepo struct {
	sales map[string]*models.SaleRecord
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[string]*models.SaleRecord{}}
}

func (f *fakeSaleRepo) Create(_ repositories.SQLExecutor, sale *models.SaleRecord) error {
	cp := *sale
	f.sales[sale.ID] = &cp
	return nil
}

func (f *fakeSaleRepo) GetByID(userID, id string) (*models.SaleRecord, error) {
	sale, ok := f.sales[id]
	if !ok || sale.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	cp := *sale
	return &cp, nil
}

func (f *fakeSaleRepo) List(userID string, filters models.SaleFilters) ([]models.SaleRecord, error) {
	out := []models.SaleRecord{}
	for _, sale := range f.sales {
		if sale.UserID != userID {
			continue
		}
		if filters.Platform != nil && sale.Platform != *filters.Platform {
			continue
		}
		if filters.From != nil && sale.SoldAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && sale.SoldAt.After(*filters.To) {
			continue
		}
		out = append(out, *sale)
	}
	return out, nil
}

func (f *fakeSaleRepo) Delete(_ repositories.SQLExecutor, userID, id string) error {
	sale, ok := f.sales[id]
	if !ok || sale.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(f.sales, id)
	return nil
}

func (f *fakeSaleRepo) DeleteMany(_ repositories.SQLExecutor, userID string, ids []string, from, to *time.Time) (int64, error) {
	idSet := map[string]bool{}
	for _, id := range ids {
		idSet[id] = true
	}
	var deleted int64
	for id, sale := range f.sales {
		if sale.UserID != userID {
			continue
		}
		if len(ids) > 0 && !idSet[id] {
			continue
		}
		if from != nil && sale.SoldAt.Before(*from) {
			continue
		}
		if to != nil && sale.SoldAt.After(*to) {
			continue
		}
		delete(f.sales, id)
		deleted++
	}
	return deleted, nil
}

func TestSaleService_RecordSaleValidation(t *testing.T) {
	t.Parallel()
	svc := NewSaleService(newFakeSaleRepo(), newFakeInventoryRepo(), testRates(), nil)

	cases := []struct {
		name string
		req  CreateSaleRequest
	}{
		{"zero quantity", CreateSaleRequest{ItemName: "x", QuantitySold: 0, SalePricePence: 100}},
		{"negative quantity", CreateSaleRequest{ItemName: "x", QuantitySold: -2, SalePricePence: 100}},
		{"zero price", CreateSaleRequest{ItemName: "x", QuantitySold: 1, SalePricePence: 0}},
		{"negative fees", CreateSaleRequest{ItemName: "x", QuantitySold: 1, SalePricePence: 100, FeesPence: -1}},
		{"standalone without name", CreateSaleRequest{QuantitySold: 1, SalePricePence: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSale(context.Background(), "user-1", tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSaleService_ListSales(t *testing.T) {
	t.Parallel()

	seedSale := func(repo *fakeSaleRepo, id, platform, currency string, soldAt time.Time) {
		cost := int64(500)
		repo.sales[id] = &models.SaleRecord{
			ID: id, UserID: "user-1", ItemName: "Item " + id,
			Platform: platform, Currency: currency, SoldAt: soldAt,
			QuantitySold: 1, SalePricePence: 1000, FeesPence: 100, NetPence: 900,
			CostPerUnitPence: &cost,
		}
	}

	t.Run("derives figures for each record", func(t *testing.T) {
		t.Parallel()
		repo := newFakeSaleRepo()
		seedSale(repo, "s1", "EBAY", "GBP", time.Now())
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		views, err := svc.ListSales(context.Background(), "user-1", models.SaleFilters{}, "")
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, int64(1000), views[0].Financials.GrossPence)
		assert.Equal(t, int64(900), views[0].Financials.NetPence)
		assert.Equal(t, int64(400), views[0].Financials.ProfitPence)
	})

	t.Run("platform filter", func(t *testing.T) {
		t.Parallel()
		repo := newFakeSaleRepo()
		seedSale(repo, "s1", "EBAY", "GBP", time.Now())
		seedSale(repo, "s2", "VINTED", "GBP", time.Now())
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		platform := "EBAY"
		views, err := svc.ListSales(context.Background(), "user-1", models.SaleFilters{Platform: &platform}, "")
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "EBAY", views[0].Platform)
	})

	t.Run("display conversion", func(t *testing.T) {
		t.Parallel()
		repo := newFakeSaleRepo()
		seedSale(repo, "s1", "EBAY", "GBP", time.Now())
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		views, err := svc.ListSales(context.Background(), "user-1", models.SaleFilters{}, "EUR")
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.NotNil(t, views[0].Display)
		assert.Equal(t, "EUR", views[0].Display.Currency)
		assert.Equal(t, int64(1150), views[0].Display.GrossPence)
	})
}

func TestSaleService_DeleteSales(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC)
	}
	seed := func() *fakeSaleRepo {
		repo := newFakeSaleRepo()
		for i, id := range []string{"s1", "s2", "s3"} {
			repo.sales[id] = &models.SaleRecord{
				ID: id, UserID: "user-1", ItemName: id,
				Platform: "EBAY", Currency: "GBP", SoldAt: day(i + 1),
				QuantitySold: 1, SalePricePence: 100, NetPence: 100,
			}
		}
		return repo
	}

	t.Run("empty request rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewSaleService(seed(), newFakeInventoryRepo(), testRates(), nil)
		_, err := svc.DeleteSales(context.Background(), "user-1", DeleteSalesRequest{})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("delete by ids", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		deleted, err := svc.DeleteSales(context.Background(), "user-1", DeleteSalesRequest{IDs: []string{"s1", "s3"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.Len(t, repo.sales, 1)
	})

	t.Run("ids and range intersect", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		from := day(2)
		deleted, err := svc.DeleteSales(context.Background(), "user-1", DeleteSalesRequest{
			IDs:  []string{"s1", "s2"},
			From: &from,
		})
		require.NoError(t, err)
		// s1 matches the id set but not the range; only s2 matches both.
		assert.Equal(t, int64(1), deleted)
		assert.Contains(t, repo.sales, "s1")
		assert.NotContains(t, repo.sales, "s2")
	})

	t.Run("range only", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := NewSaleService(repo, newFakeInventoryRepo(), testRates(), nil)

		to := day(2)
		deleted, err := svc.DeleteSales(context.Background(), "user-1", DeleteSalesRequest{To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})
}
