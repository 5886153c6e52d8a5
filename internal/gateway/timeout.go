package gateway

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout bounds every call to next. A non-positive d returns next as is.
func WithTimeout(next Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return next
	}
	return &timeoutGateway{next: next, timeout: d}
}

func (g *timeoutGateway) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, g.timeout)
}

func (g *timeoutGateway) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.GetAllProducts(ctx)
}

func (g *timeoutGateway) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.GetProductByID(ctx, id)
}

func (g *timeoutGateway) UpdateProduct(ctx context.Context, p *model.Product) error {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.UpdateProduct(ctx, p)
}

func (g *timeoutGateway) GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.GetSalesInRange(ctx, start, end, category)
}

func (g *timeoutGateway) GetSaleLineItems(ctx context.Context, saleID string) ([]model.LineItem, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.GetSaleLineItems(ctx, saleID)
}

func (g *timeoutGateway) CreateSale(ctx context.Context, input *CreateSaleInput) (*model.Sale, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.CreateSale(ctx, input)
}

func (g *timeoutGateway) DeleteSale(ctx context.Context, id string) error {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.DeleteSale(ctx, id)
}

func (g *timeoutGateway) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.GetSetting(ctx, key)
}

func (g *timeoutGateway) SaveSetting(ctx context.Context, key, value string) error {
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	return g.next.SaveSetting(ctx, key, value)
}
