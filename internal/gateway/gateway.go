// Package gateway is the persistence boundary of the till. Whatever backs it,
// callers only ever see canonical model types.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInsufficient = errors.New("insufficient stock")
)

type Gateway interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	// GetProductByID returns ErrNotFound when id is unknown.
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error

	// GetSalesInRange returns non-deleted sales with start <= created_at <= end.
	// A non-empty category keeps only sales with at least one line item whose
	// product belongs to it.
	GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error)
	GetSaleLineItems(ctx context.Context, saleID string) ([]model.LineItem, error)
	// CreateSale stores the sale and its items and decrements stock in one step.
	CreateSale(ctx context.Context, input *CreateSaleInput) (*model.Sale, error)
	DeleteSale(ctx context.Context, id string) error

	// GetSetting returns nil, nil when the key was never saved.
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	SaveSetting(ctx context.Context, key, value string) error
}

type CreateSaleInput struct {
	InvoiceNumber string
	Items         []model.LineItem
	PaymentMethod model.PaymentMethod
	CustomerName  string
	CustomerPhone string
	Notes         string
	TotalAmount   float64
	OperatorID    string
	TerminalID    string
}
