package model

import "time"

type Product struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Category        string     `db:"category" json:"category"`
	QuantityInStock int        `db:"quantity_in_stock" json:"quantity_in_stock"`
	QuantityOnShelf int        `db:"quantity_on_shelf" json:"quantity_on_shelf"`
	CostPrice       *float64   `db:"cost_price" json:"cost_price"`
	TotalBulkCost   *float64   `db:"total_bulk_cost" json:"total_bulk_cost"`
	QuantityBought  *int       `db:"quantity_purchased" json:"quantity_purchased"`
	SellingPrice    float64    `db:"selling_price" json:"selling_price"`
	ReorderLevel    int        `db:"reorder_level" json:"reorder_level"`
	ExpiryDate      *time.Time `db:"expiry_date" json:"expiry_date"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// UnitCost resolves the per-unit cost: explicit cost price first, then the
// bulk purchase cost spread over the purchased quantity. ok is false when
// neither source is usable.
func (p *Product) UnitCost() (cost float64, ok bool) {
	if p.CostPrice != nil && *p.CostPrice >= 0 {
		return *p.CostPrice, true
	}
	if p.TotalBulkCost != nil && p.QuantityBought != nil && *p.QuantityBought > 0 {
		return *p.TotalBulkCost / float64(*p.QuantityBought), true
	}
	return 0, false
}

// StockStatus classifies the product against its reorder level.
func (p *Product) StockStatus() StockStatus {
	return ClassifyStock(p.QuantityInStock, p.ReorderLevel)
}

// ClampShelf keeps the shelf count within [0, stock].
func (p *Product) ClampShelf() {
	if p.QuantityOnShelf > p.QuantityInStock {
		p.QuantityOnShelf = p.QuantityInStock
	}
	if p.QuantityOnShelf < 0 {
		p.QuantityOnShelf = 0
	}
}

func (p Product) Clone() Product {
	c := p
	if p.CostPrice != nil {
		v := *p.CostPrice
		c.CostPrice = &v
	}
	if p.TotalBulkCost != nil {
		v := *p.TotalBulkCost
		c.TotalBulkCost = &v
	}
	if p.QuantityBought != nil {
		v := *p.QuantityBought
		c.QuantityBought = &v
	}
	if p.ExpiryDate != nil {
		v := *p.ExpiryDate
		c.ExpiryDate = &v
	}
	return c
}

type StockStatus string

const (
	StockOut StockStatus = "Out of Stock"
	StockLow StockStatus = "Low Stock"
	StockIn  StockStatus = "In Stock"
)

// ClassifyStock maps a quantity onto exactly one status:
// 0 is out, (0, reorder] is low, anything above is in stock.
func ClassifyStock(qty, reorder int) StockStatus {
	switch {
	case qty <= 0:
		return StockOut
	case qty <= reorder:
		return StockLow
	default:
		return StockIn
	}
}
