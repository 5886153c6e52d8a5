// Package memory keeps the whole persistence gateway in process memory. It
// backs offline mode and doubles as the store in tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	products []model.Product
	sales    []model.Sale
	settings map[string]model.Setting
	seq      int
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now for sale timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		settings: map[string]model.Setting{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ gateway.Gateway = (*Store)(nil)

// PutProduct inserts or replaces a product.
func (s *Store) PutProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p.Clone()
			return
		}
	}
	s.products = append(s.products, p.Clone())
}

// PutSale stores a sale as is, items included. Used for seeding history.
func (s *Store) PutSale(sale model.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale.Clone())
}

func (s *Store) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p.Clone()
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]string, len(s.products))
	for _, p := range s.products {
		categories[p.ID] = p.Category
	}

	out := []model.Sale{}
	for _, sale := range s.sales {
		if sale.IsDeleted || sale.CreatedAt.Before(start) || sale.CreatedAt.After(end) {
			continue
		}
		if category != "" && !saleInCategory(sale, categories, category) {
			continue
		}
		out = append(out, sale.Clone())
	}
	return out, nil
}

func saleInCategory(sale model.Sale, categories map[string]string, category string) bool {
	for _, it := range sale.Items {
		if strings.EqualFold(categories[it.ProductID], category) {
			return true
		}
	}
	return false
}

func (s *Store) GetSaleLineItems(ctx context.Context, saleID string) ([]model.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sale := range s.sales {
		if sale.ID == saleID {
			out := make([]model.LineItem, len(sale.Items))
			for i, it := range sale.Items {
				out[i] = it.Clone()
			}
			return out, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (s *Store) CreateSale(ctx context.Context, input *gateway.CreateSaleInput) (*model.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := make(map[string]int, len(s.products))
	for i, p := range s.products {
		idx[p.ID] = i
	}
	for _, it := range input.Items {
		i, ok := idx[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, gateway.ErrNotFound)
		}
		if s.products[i].QuantityInStock < it.Quantity {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, gateway.ErrInsufficient)
		}
	}

	now := s.now()
	s.seq++
	sale := model.Sale{
		ID:            uuid.New().String(),
		InvoiceNumber: input.InvoiceNumber,
		CreatedAt:     now,
		PaymentMethod: input.PaymentMethod,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Notes:         input.Notes,
		TotalAmount:   input.TotalAmount,
		OperatorID:    input.OperatorID,
		TerminalID:    input.TerminalID,
	}
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = fmt.Sprintf("INV-%s-%04d", now.Format("20060102"), s.seq)
	}
	for _, it := range input.Items {
		item := it.Clone()
		item.ID = uuid.New().String()
		item.SaleID = sale.ID
		sale.Items = append(sale.Items, item)

		p := &s.products[idx[it.ProductID]]
		p.QuantityInStock -= it.Quantity
		p.ClampShelf()
		p.UpdatedAt = now
	}
	count := len(sale.Items)
	sale.ItemCount = &count

	s.sales = append(s.sales, sale)
	out := sale.Clone()
	return &out, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sales {
		if s.sales[i].ID == id {
			s.sales[i].IsDeleted = true
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) SaveSetting(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = model.Setting{Key: key, Value: value, UpdatedAt: s.now()}
	return nil
}
