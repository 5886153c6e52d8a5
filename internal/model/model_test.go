package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		qty, reorder int
		want         StockStatus
	}{
		{0, 5, StockOut},
		{1, 5, StockLow},
		{5, 5, StockLow},
		{6, 5, StockIn},
		{0, 0, StockOut},
		{1, 0, StockIn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStock(tt.qty, tt.reorder), "qty=%d reorder=%d", tt.qty, tt.reorder)
	}
}

func TestClassifyStockIsExhaustive(t *testing.T) {
	for reorder := 0; reorder <= 10; reorder++ {
		for qty := 0; qty <= 20; qty++ {
			matches := 0
			if qty == 0 {
				matches++
			}
			if qty > 0 && qty <= reorder {
				matches++
			}
			if qty > reorder {
				matches++
			}
			require.Equal(t, 1, matches)
			got := ClassifyStock(qty, reorder)
			switch {
			case qty == 0:
				assert.Equal(t, StockOut, got)
			case qty <= reorder:
				assert.Equal(t, StockLow, got)
			default:
				assert.Equal(t, StockIn, got)
			}
		}
	}
}

func TestUnitCost(t *testing.T) {
	p := Product{CostPrice: ptr(2.5), TotalBulkCost: ptr(100.0), QuantityBought: ptr(10)}
	cost, ok := p.UnitCost()
	assert.True(t, ok)
	assert.Equal(t, 2.5, cost)

	p.CostPrice = nil
	cost, ok = p.UnitCost()
	assert.True(t, ok)
	assert.Equal(t, 10.0, cost)

	p.QuantityBought = ptr(0)
	_, ok = p.UnitCost()
	assert.False(t, ok)
}

func TestClampShelf(t *testing.T) {
	p := Product{QuantityInStock: 3, QuantityOnShelf: 7}
	p.ClampShelf()
	assert.Equal(t, 3, p.QuantityOnShelf)
}

func TestResolvedItemCount(t *testing.T) {
	assert.Equal(t, 4, (&Sale{ItemCount: ptr(4), Items: make([]LineItem, 2)}).ResolvedItemCount())
	assert.Equal(t, 2, (&Sale{Items: make([]LineItem, 2)}).ResolvedItemCount())
	assert.Equal(t, 1, (&Sale{}).ResolvedItemCount())
}

func TestParsePaymentMethod(t *testing.T) {
	for in, want := range map[string]PaymentMethod{
		"Cash":         PaymentCash,
		"mobile-money": PaymentMobileMoney,
		"Mobile Money": PaymentMobileMoney,
		"card":         PaymentCard,
		"other":        PaymentOther,
	} {
		got, ok := ParsePaymentMethod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParsePaymentMethod("cheque")
	assert.False(t, ok)
}

func TestAppStateCloneIsIndependent(t *testing.T) {
	expiry := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	st := NewAppState()
	st.Products = append(st.Products, Product{ID: "p1", QuantityInStock: 5, CostPrice: ptr(1.0), ExpiryDate: &expiry})
	st.Sales = append(st.Sales, Sale{ID: "s1", Items: []LineItem{{ProductID: "p1", Quantity: 1, UnitCost: ptr(1.0)}}, ItemCount: ptr(1)})
	st.Settings["currency"] = "GHS"

	c := st.Clone()
	st.Products[0].QuantityInStock = 0
	*st.Products[0].CostPrice = 9
	*st.Products[0].ExpiryDate = expiry.AddDate(1, 0, 0)
	st.Sales[0].Items[0].Quantity = 99
	*st.Sales[0].Items[0].UnitCost = 9
	*st.Sales[0].ItemCount = 99
	st.Settings["currency"] = "USD"

	assert.Equal(t, 5, c.Products[0].QuantityInStock)
	assert.Equal(t, 1.0, *c.Products[0].CostPrice)
	assert.Equal(t, expiry, *c.Products[0].ExpiryDate)
	assert.Equal(t, 1, c.Sales[0].Items[0].Quantity)
	assert.Equal(t, 1.0, *c.Sales[0].Items[0].UnitCost)
	assert.Equal(t, 1, *c.Sales[0].ItemCount)
	assert.Equal(t, "GHS", c.Settings["currency"])
}
