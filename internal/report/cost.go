package report

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

// saleCost is the cost of goods for one sale.
type saleCost struct {
	Cost float64
	// Estimated is set when no item could be costed and Cost is a share of
	// the sale total instead.
	Estimated  bool
	Unresolved int
	// Lines is the number of line items considered, carried or fetched.
	Lines int
	// Err is the line-item lookup failure that forced the estimate, if any.
	Err error
}

func indexProducts(products []model.Product) map[string]*model.Product {
	idx := make(map[string]*model.Product, len(products))
	for i := range products {
		idx[products[i].ID] = &products[i]
	}
	return idx
}

// itemUnitCost prefers the cost recorded on the line at sale time, then the
// product's own cost resolution.
func itemUnitCost(it *model.LineItem, products map[string]*model.Product) (float64, bool) {
	if it.UnitCost != nil && *it.UnitCost >= 0 {
		return *it.UnitCost, true
	}
	if p, ok := products[it.ProductID]; ok {
		return p.UnitCost()
	}
	return 0, false
}

// costOfSale resolves line items for sale and sums quantity x unit cost.
// Items carried on the sale are used as is; otherwise they are fetched.
// When the fetch fails or nothing can be costed, the sale falls back to
// ratio x total. Lookups run sequentially in the order sales are passed.
func (e *Engine) costOfSale(ctx context.Context, sale *model.Sale, products map[string]*model.Product, ratio float64) saleCost {
	items := sale.Items
	if len(items) == 0 {
		fetched, err := e.src.GetSaleLineItems(ctx, sale.ID)
		if err != nil {
			return saleCost{
				Cost:      sale.TotalAmount * ratio,
				Estimated: true,
				Err:       fmt.Errorf("sale %s: line items unavailable: %w", sale.ID, err),
			}
		}
		items = fetched
	}

	c := saleCost{Lines: len(items)}
	resolved := 0
	for i := range items {
		unit, ok := itemUnitCost(&items[i], products)
		if !ok {
			c.Unresolved++
			continue
		}
		c.Cost += float64(items[i].Quantity) * unit
		resolved++
	}
	if resolved == 0 {
		c.Cost = sale.TotalAmount * ratio
		c.Estimated = true
	}
	return c
}
