package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"go.uber.org/zap"
)

const productListKey = "products:list:all"

// Cache is the slice of the redis client the cached gateway needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

type cachedGateway struct {
	Gateway
	cache  Cache
	ttl    time.Duration
	logger logger.ZapLogger
}

// WithCache serves GetAllProducts from cache and drops the entry on any write
// that touches stock or product data. Cache failures fall through to next.
func WithCache(next Gateway, cache Cache, ttl time.Duration, log logger.ZapLogger) Gateway {
	if cache == nil {
		return next
	}
	return &cachedGateway{Gateway: next, cache: cache, ttl: ttl, logger: log}
}

func (g *cachedGateway) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	data, hit, err := g.cache.Get(ctx, productListKey)
	if err != nil {
		g.logger.Warn("product cache read failed", zap.Error(err))
	}
	if hit {
		products, rejected, err := DecodeProducts(data)
		if err == nil && len(rejected) == 0 {
			return products, nil
		}
		g.logger.Warn("discarding unreadable product cache entry", zap.Error(err), zap.Int("rejected", len(rejected)))
	}

	products, err := g.Gateway.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := g.cache.Set(ctx, productListKey, data, g.ttl); err != nil {
			g.logger.Warn("product cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

func (g *cachedGateway) UpdateProduct(ctx context.Context, p *model.Product) error {
	if err := g.Gateway.UpdateProduct(ctx, p); err != nil {
		return err
	}
	g.invalidate(ctx)
	return nil
}

func (g *cachedGateway) CreateSale(ctx context.Context, input *CreateSaleInput) (*model.Sale, error) {
	sale, err := g.Gateway.CreateSale(ctx, input)
	if err != nil {
		return nil, err
	}
	g.invalidate(ctx)
	return sale, nil
}

func (g *cachedGateway) invalidate(ctx context.Context) {
	if err := g.cache.DeletePattern(ctx, "products:list:*"); err != nil {
		g.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
