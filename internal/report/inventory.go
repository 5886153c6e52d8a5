package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

func inventoryRow(p *model.Product) InventoryRow {
	row := InventoryRow{
		ProductID:       p.ID,
		Name:            p.Name,
		Category:        p.Category,
		QuantityInStock: p.QuantityInStock,
		QuantityOnShelf: p.QuantityOnShelf,
		ReorderLevel:    p.ReorderLevel,
		SellingPrice:    p.SellingPrice,
		RetailValue:     float64(p.QuantityInStock) * p.SellingPrice,
		Status:          p.StockStatus(),
	}
	if cost, ok := p.UnitCost(); ok {
		row.UnitCost = ptr(cost)
		row.Value = ptr(float64(p.QuantityInStock) * cost)
	}
	return row
}

func (e *Engine) activeRows(ctx context.Context, category string) ([]InventoryRow, error) {
	products, err := e.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	rows := make([]InventoryRow, 0, len(products))
	for i := range products {
		p := &products[i]
		if !p.IsActive || !matchesCategory(p, category) {
			continue
		}
		rows = append(rows, inventoryRow(p))
	}
	return rows, nil
}

// InventoryReport values every active product. Products without a usable
// unit cost are listed but left out of TotalValue.
func (e *Engine) InventoryReport(ctx context.Context, category string) (rep *InventoryReport, err error) {
	defer e.track(KindInventory)(&err)

	rows, err := e.activeRows(ctx, category)
	if err != nil {
		return nil, err
	}
	rep = &InventoryReport{Meta: e.meta(KindInventory), Rows: rows, ProductCount: len(rows)}
	rep.Category = category
	for _, r := range rows {
		rep.TotalUnits += r.QuantityInStock
		rep.TotalRetailValue += r.RetailValue
		if r.Value != nil {
			rep.TotalValue += *r.Value
		} else {
			rep.Unvalued++
		}
		switch r.Status {
		case model.StockOut:
			rep.OutOfStock++
		case model.StockLow:
			rep.LowStock++
		default:
			rep.InStock++
		}
	}
	return rep, nil
}

// LowStockReport keeps the low and out-of-stock rows, fewest units first.
// Equal quantities keep catalog order.
func (e *Engine) LowStockReport(ctx context.Context, category string) (rep *LowStockReport, err error) {
	defer e.track(KindLowStock)(&err)

	rows, err := e.activeRows(ctx, category)
	if err != nil {
		return nil, err
	}
	rep = &LowStockReport{Meta: e.meta(KindLowStock), Rows: make([]InventoryRow, 0)}
	rep.Category = category
	for _, r := range rows {
		switch r.Status {
		case model.StockOut:
			rep.OutOfStock++
		case model.StockLow:
			rep.LowStock++
		default:
			continue
		}
		rep.Rows = append(rep.Rows, r)
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		return rep.Rows[i].QuantityInStock < rep.Rows[j].QuantityInStock
	})
	return rep, nil
}
