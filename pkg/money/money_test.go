package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marjanov802/resellingtracker-sub000/pkg/money"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		currency   string
		minorUnits int64
		want       string
	}{
		{name: "gbp whole pounds", currency: "GBP", minorUnits: 1000, want: "£10.00"},
		{name: "usd with pence", currency: "USD", minorUnits: 1299, want: "$12.99"},
		{name: "eur", currency: "EUR", minorUnits: 50, want: "€0.50"},
		{name: "negative puts sign before symbol", currency: "GBP", minorUnits: -1250, want: "-£12.50"},
		{name: "zero", currency: "GBP", minorUnits: 0, want: "£0.00"},
		{name: "unknown currency falls back to gbp symbol", currency: "ZZZ", minorUnits: 100, want: "£1.00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, money.Format(tt.currency, tt.minorUnits))
		})
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	rates := map[string]float64{
		"USD": 1,
		"GBP": 0.8,
		"EUR": 0.92,
	}

	t.Run("identity for same currency regardless of table", func(t *testing.T) {
		t.Parallel()
		got, ok := money.Convert(12345, "GBP", "GBP", nil)
		assert.True(t, ok)
		assert.Equal(t, int64(12345), got)
	})

	t.Run("missing target rate returns original amount", func(t *testing.T) {
		t.Parallel()
		got, ok := money.Convert(100, "GBP", "ZZZ", map[string]float64{"GBP": 1, "USD": 1.27})
		assert.False(t, ok)
		assert.Equal(t, int64(100), got)
	})

	t.Run("missing source rate returns original amount", func(t *testing.T) {
		t.Parallel()
		got, ok := money.Convert(100, "ZZZ", "USD", rates)
		assert.False(t, ok)
		assert.Equal(t, int64(100), got)
	})

	t.Run("two-hop conversion via usd", func(t *testing.T) {
		t.Parallel()
		// 800 GBP pence -> 10 USD -> 920 EUR cents.
		got, ok := money.Convert(800, "GBP", "EUR", rates)
		assert.True(t, ok)
		assert.Equal(t, int64(920), got)
	})

	t.Run("rounds half away from zero", func(t *testing.T) {
		t.Parallel()
		// 1 GBP penny -> 0.0125 USD -> 1.25 USD cents, rounds to 1.
		got, ok := money.Convert(1, "GBP", "USD", rates)
		assert.True(t, ok)
		assert.Equal(t, int64(1), got)

		// 2 pence -> 2.5 cents, half rounds up to 3.
		got, ok = money.Convert(2, "GBP", "USD", rates)
		assert.True(t, ok)
		assert.Equal(t, int64(3), got)

		// Negative half rounds away from zero.
		got, ok = money.Convert(-2, "GBP", "USD", rates)
		assert.True(t, ok)
		assert.Equal(t, int64(-3), got)
	})

	t.Run("zero rate treated as missing", func(t *testing.T) {
		t.Parallel()
		got, ok := money.Convert(100, "GBP", "USD", map[string]float64{"GBP": 0, "USD": 1})
		assert.False(t, ok)
		assert.Equal(t, int64(100), got)
	})
}
