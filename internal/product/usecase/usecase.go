package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/catalog"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/product"
	"github.com/fekuna/omnipos-pharmacy/internal/product/dto"
	"github.com/fekuna/omnipos-pharmacy/internal/state"
	"go.uber.org/zap"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

type productUseCase struct {
	repo   product.Repository
	store  *state.Store
	locker product.Locker
	now    func() time.Time
	logger logger.ZapLogger
}

// NewProductUseCase wires the use case. locker may be nil when running
// without redis; writes are then serialized only by the state store.
func NewProductUseCase(repo product.Repository, store *state.Store, locker product.Locker, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		store:  store,
		locker: locker,
		now:    time.Now,
		logger: log,
	}
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) catalog.Page {
	q := catalog.Query{
		Search:             filters.SearchQuery,
		Category:           filters.Category,
		ActiveOnly:         filters.ActiveOnly,
		ExpiringWithinDays: filters.ExpiringWithinDays,
		SortBy:             catalog.ParseSortField(filters.SortBy),
		Descending:         strings.EqualFold(filters.SortOrder, "desc"),
		Page:               filters.Page,
		PageSize:           filters.PageSize,
	}
	if st, ok := parseStatus(filters.Status); ok {
		q.Status = st
	}

	var page catalog.Page
	uc.store.View(func(st *model.AppState) {
		page = catalog.Apply(st.Products, q, uc.now())
	})
	return page
}

func parseStatus(s string) (model.StockStatus, bool) {
	switch strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))) {
	case "out of stock", "out":
		return model.StockOut, true
	case "low stock", "low":
		return model.StockLow, true
	case "in stock", "in":
		return model.StockIn, true
	}
	return "", false
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.GetProductByID(ctx, id)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, fmt.Errorf("%w: id is required", product.ErrInvalidInput)
	}
	unlock, err := uc.lock(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := uc.repo.GetProductByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	applyUpdate(p, input)
	if err := validate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = uc.now()

	if err := uc.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if err := uc.store.Update(replaceProduct(*p), state.KeyProducts); err != nil {
		return nil, err
	}
	uc.logger.Info("product updated", zap.String("product_id", p.ID), zap.String("operator_id", input.OperatorID))
	return p, nil
}

func (uc *productUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Product, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, fmt.Errorf("%w: product id is required", product.ErrInvalidInput)
	}
	unlock, err := uc.lock(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := uc.repo.GetProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	p.QuantityInStock += input.QuantityChange
	if p.QuantityInStock < 0 {
		return nil, fmt.Errorf("%w: stock would drop to %d", product.ErrInvalidInput, p.QuantityInStock)
	}
	p.QuantityOnShelf += input.ShelfChange
	p.ClampShelf()
	p.UpdatedAt = uc.now()

	if err := uc.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("adjust stock %s: %w", p.ID, err)
	}
	if err := uc.store.Update(replaceProduct(*p), state.KeyProducts); err != nil {
		return nil, err
	}
	uc.logger.Info("stock adjusted",
		zap.String("product_id", p.ID),
		zap.Int("change", input.QuantityChange),
		zap.String("reason", input.Reason),
		zap.String("operator_id", input.OperatorID),
	)
	return p, nil
}

func (uc *productUseCase) Refresh(ctx context.Context) error {
	products, err := uc.repo.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh products: %w", err)
	}
	for i := range products {
		products[i].ClampShelf()
	}
	return uc.store.Apply(func(st *model.AppState) error {
		st.Products = products
		return nil
	}, state.KeyProducts)
}

// lock retries a few times before giving up with ErrBusy. Redis errors
// count as failed attempts.
func (uc *productUseCase) lock(ctx context.Context, id string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}
	key := "product:" + id
	for i := 0; i < lockAttempts; i++ {
		token, err := uc.locker.AcquireLock(ctx, key, lockTTL)
		if err == nil {
			return func() {
				if err := uc.locker.ReleaseLock(context.Background(), key, token); err != nil {
					uc.logger.Warn("failed to release product lock", zap.String("product_id", id), zap.Error(err))
				}
			}, nil
		}
		uc.logger.Debug("product lock attempt failed", zap.String("product_id", id), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	return nil, product.ErrBusy
}

func applyUpdate(p *model.Product, in *dto.UpdateProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.QuantityInStock != nil {
		p.QuantityInStock = *in.QuantityInStock
	}
	if in.QuantityOnShelf != nil {
		p.QuantityOnShelf = *in.QuantityOnShelf
	}
	if in.CostPrice != nil {
		v := *in.CostPrice
		p.CostPrice = &v
	}
	if in.TotalBulkCost != nil {
		v := *in.TotalBulkCost
		p.TotalBulkCost = &v
	}
	if in.QuantityBought != nil {
		v := *in.QuantityBought
		p.QuantityBought = &v
	}
	if in.SellingPrice != nil {
		p.SellingPrice = *in.SellingPrice
	}
	if in.ReorderLevel != nil {
		p.ReorderLevel = *in.ReorderLevel
	}
	if in.ClearExpiry {
		p.ExpiryDate = nil
	} else if in.ExpiryDate != nil {
		v := *in.ExpiryDate
		p.ExpiryDate = &v
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func validate(p *model.Product) error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.QuantityInStock < 0 || p.QuantityOnShelf < 0 || p.ReorderLevel < 0 {
		problems = append(problems, "quantities must not be negative")
	}
	if p.SellingPrice < 0 || (p.CostPrice != nil && *p.CostPrice < 0) || (p.TotalBulkCost != nil && *p.TotalBulkCost < 0) {
		problems = append(problems, "prices must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", product.ErrInvalidInput, strings.Join(problems, "; "))
	}
	if p.QuantityOnShelf > p.QuantityInStock {
		return fmt.Errorf("%w: %d on shelf, %d in stock", product.ErrShelfExceedsStock, p.QuantityOnShelf, p.QuantityInStock)
	}
	return nil
}

// replaceProduct swaps p into the live product list, appending it if the
// list has not seen it yet.
func replaceProduct(p model.Product) func(st *model.AppState) error {
	return func(st *model.AppState) error {
		if i := st.ProductIndex(p.ID); i >= 0 {
			st.Products[i] = p.Clone()
			return nil
		}
		st.Products = append(st.Products, p.Clone())
		return nil
	}
}
