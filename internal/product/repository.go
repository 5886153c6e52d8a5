package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

// Repository is the slice of the persistence gateway the product use case
// writes through.
type Repository interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
}

// Locker serializes writers of the same product across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}
