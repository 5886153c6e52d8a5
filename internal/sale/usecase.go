package sale

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/sale/dto"
)

var (
	ErrNoItems         = errors.New("sale has no items")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrPhoneRequired   = errors.New("mobile money payments need a customer phone number")
	ErrUnknownProduct  = errors.New("product is not in the catalog")
	ErrInactiveProduct = errors.New("product is inactive")
)

// Repository is the slice of the persistence gateway sales go through.
type Repository interface {
	CreateSale(ctx context.Context, input *gateway.CreateSaleInput) (*model.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error)
}

// Publisher sends encoded events to other terminals. *broker.KafkaProducer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type UseCase interface {
	CompleteSale(ctx context.Context, input *dto.CompleteSaleInput) (*dto.Receipt, error)
	DeleteSale(ctx context.Context, id string) error
	// ApplyRemoteSale mirrors a sale recorded by another terminal into the
	// live state. It records no history and is idempotent per sale id.
	ApplyRemoteSale(ctx context.Context, s model.Sale) error
	// RefreshSales loads today's sales into the live state.
	RefreshSales(ctx context.Context) error
}
