package dto

import "time"

// UpdateProductInput carries only the fields being changed; nil means keep.
type UpdateProductInput struct {
	ID              string
	Name            *string
	Category        *string
	QuantityInStock *int
	QuantityOnShelf *int
	CostPrice       *float64
	TotalBulkCost   *float64
	QuantityBought  *int
	SellingPrice    *float64
	ReorderLevel    *int
	ExpiryDate      *time.Time
	ClearExpiry     bool
	IsActive        *bool
	OperatorID      string
}

// AdjustStockInput changes stock by a signed delta. The shelf count moves
// by ShelfChange and is then clamped into [0, stock].
type AdjustStockInput struct {
	ProductID      string
	QuantityChange int
	ShelfChange    int
	Reason         string
	OperatorID     string
}
