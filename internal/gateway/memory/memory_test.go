package memory

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seeded() *Store {
	s := New(WithClock(func() time.Time { return day }))
	s.PutProduct(model.Product{ID: "amox", Name: "Amoxicillin", Category: "Antibiotics", QuantityInStock: 10, QuantityOnShelf: 10, IsActive: true})
	s.PutProduct(model.Product{ID: "para", Name: "Paracetamol", Category: "Analgesics", QuantityInStock: 3, QuantityOnShelf: 2, IsActive: true})
	return s
}

func TestCreateSaleDecrementsStockAndClampsShelf(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	sale, err := s.CreateSale(ctx, &gateway.CreateSaleInput{
		Items: []model.LineItem{
			{ProductID: "amox", Quantity: 4, UnitPrice: 2, Subtotal: 8},
			{ProductID: "para", Quantity: 2, UnitPrice: 1, Subtotal: 2},
		},
		PaymentMethod: model.PaymentCash,
		TotalAmount:   10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, "INV-20260310-0001", sale.InvoiceNumber)
	assert.Equal(t, 2, sale.ResolvedItemCount())

	amox, err := s.GetProductByID(ctx, "amox")
	require.NoError(t, err)
	assert.Equal(t, 6, amox.QuantityInStock)
	assert.Equal(t, 6, amox.QuantityOnShelf)

	para, err := s.GetProductByID(ctx, "para")
	require.NoError(t, err)
	assert.Equal(t, 1, para.QuantityInStock)
	assert.Equal(t, 1, para.QuantityOnShelf)

	items, err := s.GetSaleLineItems(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCreateSaleRejectsInsufficientStock(t *testing.T) {
	s := seeded()
	_, err := s.CreateSale(context.Background(), &gateway.CreateSaleInput{
		Items: []model.LineItem{{ProductID: "para", Quantity: 4}},
	})
	assert.ErrorIs(t, err, gateway.ErrInsufficient)

	p, _ := s.GetProductByID(context.Background(), "para")
	assert.Equal(t, 3, p.QuantityInStock)
}

func TestGetSalesInRangeFiltersByDateAndCategory(t *testing.T) {
	s := seeded()
	s.PutSale(model.Sale{ID: "a", CreatedAt: day.Add(-48 * time.Hour), TotalAmount: 5, Items: []model.LineItem{{ProductID: "amox"}}})
	s.PutSale(model.Sale{ID: "b", CreatedAt: day, TotalAmount: 7, Items: []model.LineItem{{ProductID: "para"}}})
	s.PutSale(model.Sale{ID: "c", CreatedAt: day, TotalAmount: 9, Items: []model.LineItem{{ProductID: "amox"}}, IsDeleted: true})

	ctx := context.Background()
	all, err := s.GetSalesInRange(ctx, day.Add(-72*time.Hour), day, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, err := s.GetSalesInRange(ctx, day.Add(-time.Hour), day, "")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].ID)

	antibiotics, err := s.GetSalesInRange(ctx, time.Time{}, day, "antibiotics")
	require.NoError(t, err)
	require.Len(t, antibiotics, 1)
	assert.Equal(t, "a", antibiotics[0].ID)
}

func TestLookupsSurfaceNotFound(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.GetProductByID(ctx, "nope")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	_, err = s.GetSaleLineItems(ctx, "nope")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	st, err := s.GetSetting(ctx, "currency")
	assert.NoError(t, err)
	assert.Nil(t, st)
}

func TestReturnedProductsAreCopies(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	list, _ := s.GetAllProducts(ctx)
	list[0].QuantityInStock = 999

	p, _ := s.GetProductByID(ctx, list[0].ID)
	assert.Equal(t, 10, p.QuantityInStock)
}
