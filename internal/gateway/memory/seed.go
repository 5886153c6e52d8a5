package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
)

// SeedResult reports what an export contributed. Rejected indexes refer to
// positions inside the products or sales list respectively.
type SeedResult struct {
	Products         int
	Sales            int
	RejectedProducts []gateway.Rejected
	RejectedSales    []gateway.Rejected
}

// Seed loads an export of the form {"products": [...], "sales": [...]}.
// Either list may be a bare array or wrapped as {"data": [...]}, and may use
// any spelling the normalization layer accepts. Records that fail
// normalization are skipped.
func (s *Store) Seed(data []byte) (SeedResult, error) {
	var doc struct {
		Products json.RawMessage `json:"products"`
		Sales    json.RawMessage `json:"sales"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return SeedResult{}, fmt.Errorf("decode seed: %w", err)
	}

	var res SeedResult
	if len(doc.Products) > 0 {
		products, rejected, err := gateway.DecodeProducts(doc.Products)
		if err != nil {
			return SeedResult{}, fmt.Errorf("seed products: %w", err)
		}
		for _, p := range products {
			s.PutProduct(p)
		}
		res.Products, res.RejectedProducts = len(products), rejected
	}
	if len(doc.Sales) > 0 {
		sales, rejected, err := gateway.DecodeSales(doc.Sales)
		if err != nil {
			return res, fmt.Errorf("seed sales: %w", err)
		}
		for _, sale := range sales {
			s.PutSale(sale)
		}
		res.Sales, res.RejectedSales = len(sales), rejected
	}
	return res, nil
}

func (s *Store) SeedFile(path string) (SeedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedResult{}, fmt.Errorf("read seed: %w", err)
	}
	return s.Seed(data)
}
