// Package finance derives purchase, sale and profit figures from inventory
// items and sale records. Every function here runs on dashboard render paths,
// so nothing returns an error or panics: missing values degrade to 0 or nil
// per the field's meaning, and an unknowable profit stays nil rather than
// becoming a misleading zero.
package finance

import (
	"github.com/marjanov802/resellingtracker-sub000/internal/metadata"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/pkg/money"
)

// ItemFinancials is the derived view of one inventory item. Sale and profit
// fields are nil when the item has no applicable sale price: an item without
// an estimate has no derivable profit, not a zero profit.
type ItemFinancials struct {
	Currency             string `json:"currency"`
	PurchasePerUnitPence int64  `json:"purchase_per_unit_pence"`
	PurchaseTotalPence   int64  `json:"purchase_total_pence"`
	SalePerUnitPence     *int64 `json:"sale_per_unit_pence"`
	SaleTotalPence       *int64 `json:"sale_total_pence"`
	ProfitPerUnitPence   *int64 `json:"profit_per_unit_pence"`
	ProfitTotalPence     *int64 `json:"profit_total_pence"`
}

// SaleFinancials is the derived view of one sale record.
type SaleFinancials struct {
	Currency       string `json:"currency"`
	GrossPence     int64  `json:"gross_pence"`
	NetPence       int64  `json:"net_pence"`
	CostTotalPence int64  `json:"cost_total_pence"`
	ProfitPence    int64  `json:"profit_pence"`
}

// DeriveItem computes purchase totals and the status-dependent sale price for
// an inventory item with already-decoded metadata.
//
// The price selection branch: LISTED and SOLD items take the first listing's
// price (nil when no listing carries one); UNLISTED items take the estimated
// sale price. The envelope's purchase cost wins over the legacy per-unit cost
// field only when set.
func DeriveItem(item models.InventoryItem, meta metadata.Meta) ItemFinancials {
	perUnit := meta.PurchaseTotalPence
	if perUnit <= 0 {
		perUnit = item.CostPence
	}
	if perUnit < 0 {
		perUnit = 0
	}

	qty := int64(item.Quantity)
	if qty < 0 {
		qty = 0
	}

	f := ItemFinancials{
		Currency:             meta.Currency,
		PurchasePerUnitPence: perUnit,
		PurchaseTotalPence:   perUnit * qty,
	}

	var salePerUnit *int64
	switch meta.Status {
	case metadata.StatusListed, metadata.StatusSold:
		if len(meta.Listings) > 0 {
			salePerUnit = meta.Listings[0].PricePence
		}
	default:
		salePerUnit = meta.EstimatedSalePence
	}

	if salePerUnit != nil {
		sale := *salePerUnit
		saleTotal := sale * qty
		profitPerUnit := sale - perUnit
		profitTotal := profitPerUnit * qty
		f.SalePerUnitPence = &sale
		f.SaleTotalPence = &saleTotal
		f.ProfitPerUnitPence = &profitPerUnit
		f.ProfitTotalPence = &profitTotal
	}

	return f
}

// SaleInput is the boundary shape for deriving sale figures before a record
// exists. NetPence overrides the derived net when the caller supplies it.
type SaleInput struct {
	Currency         string
	Quantity         int
	SalePricePence   int64
	FeesPence        int64
	NetPence         *int64
	CostPerUnitPence *int64
	CostTotalPence   *int64
}

// DeriveSale computes gross, net, cost basis and profit for a sale. Net is
// the supplied value when present, otherwise max(0, gross - fees). Cost basis
// prefers the explicit total, then per-unit x quantity, then zero.
func DeriveSale(in SaleInput) SaleFinancials {
	qty := int64(in.Quantity)
	if qty < 0 {
		qty = 0
	}
	fees := in.FeesPence
	if fees < 0 {
		fees = 0
	}

	gross := qty * in.SalePricePence
	net := gross - fees
	if net < 0 {
		net = 0
	}
	if in.NetPence != nil {
		net = *in.NetPence
	}

	var cost int64
	switch {
	case in.CostTotalPence != nil:
		cost = *in.CostTotalPence
	case in.CostPerUnitPence != nil:
		cost = *in.CostPerUnitPence * qty
	}

	return SaleFinancials{
		Currency:       in.Currency,
		GrossPence:     gross,
		NetPence:       net,
		CostTotalPence: cost,
		ProfitPence:    net - cost,
	}
}

// DeriveSaleRecord derives figures from a stored sale record, whose net was
// fixed at creation time.
func DeriveSaleRecord(sale models.SaleRecord) SaleFinancials {
	net := sale.NetPence
	return DeriveSale(SaleInput{
		Currency:         sale.Currency,
		Quantity:         sale.QuantitySold,
		SalePricePence:   sale.SalePricePence,
		FeesPence:        sale.FeesPence,
		NetPence:         &net,
		CostPerUnitPence: sale.CostPerUnitPence,
		CostTotalPence:   sale.CostTotalPence,
	})
}

// ConvertItem converts every derived amount into the target display
// currency. When either leg is missing from the rate table the original
// figures come back unchanged with ok=false, mirroring money.Convert.
func ConvertItem(f ItemFinancials, target string, rates map[string]float64) (ItemFinancials, bool) {
	if f.Currency == target {
		return f, true
	}
	out := f
	ok := true

	conv := func(v int64) int64 {
		c, convOK := money.Convert(v, f.Currency, target, rates)
		if !convOK {
			ok = false
		}
		return c
	}
	convPtr := func(v *int64) *int64 {
		if v == nil {
			return nil
		}
		c := conv(*v)
		return &c
	}

	out.PurchasePerUnitPence = conv(f.PurchasePerUnitPence)
	out.PurchaseTotalPence = conv(f.PurchaseTotalPence)
	out.SalePerUnitPence = convPtr(f.SalePerUnitPence)
	out.SaleTotalPence = convPtr(f.SaleTotalPence)
	out.ProfitPerUnitPence = convPtr(f.ProfitPerUnitPence)
	out.ProfitTotalPence = convPtr(f.ProfitTotalPence)

	if !ok {
		return f, false
	}
	out.Currency = target
	return out, true
}

// ConvertSale converts sale figures into the target display currency, with
// the same fail-soft contract as ConvertItem.
func ConvertSale(f SaleFinancials, target string, rates map[string]float64) (SaleFinancials, bool) {
	if f.Currency == target {
		return f, true
	}
	out := f
	ok := true
	conv := func(v int64) int64 {
		c, convOK := money.Convert(v, f.Currency, target, rates)
		if !convOK {
			ok = false
		}
		return c
	}
	out.GrossPence = conv(f.GrossPence)
	out.NetPence = conv(f.NetPence)
	out.CostTotalPence = conv(f.CostTotalPence)
	out.ProfitPence = conv(f.ProfitPence)
	if !ok {
		return f, false
	}
	out.Currency = target
	return out, true
}
