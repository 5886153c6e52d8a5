package product

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-pharmacy/internal/catalog"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/product/dto"
)

var (
	ErrInvalidInput      = errors.New("invalid product input")
	ErrShelfExceedsStock = errors.New("quantity on shelf exceeds quantity in stock")
	ErrBusy              = errors.New("product is being updated elsewhere, try again")
)

type UseCase interface {
	// ListProducts queries the in-memory catalog; it never hits the gateway.
	ListProducts(ctx context.Context, filters *dto.ProductFilters) catalog.Page
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Product, error)
	// Refresh reloads the product list from the gateway without recording
	// history.
	Refresh(ctx context.Context) error
}
