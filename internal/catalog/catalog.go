// Package catalog filters, sorts and pages the in-memory product list.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type SortField string

const (
	SortByName     SortField = "name"
	SortByCategory SortField = "category"
	SortByPrice    SortField = "price"
	SortByStock    SortField = "stock"
	SortByExpiry   SortField = "expiry"
)

type Query struct {
	// Search matches name, id or category, case-insensitively.
	Search     string
	Category   string
	Status     model.StockStatus
	ActiveOnly bool
	// ExpiringWithinDays keeps products expiring on or before today+N,
	// already expired ones included. 0 disables the filter.
	ExpiringWithinDays int
	SortBy             SortField
	Descending         bool
	Page               int
	PageSize           int
}

type Page struct {
	Items      []model.Product `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// Apply runs q over products without modifying the input slice.
func Apply(products []model.Product, q Query, now time.Time) Page {
	matched := Filter(products, q, now)
	Sort(matched, q.SortBy, q.Descending)
	return Paginate(matched, q.Page, q.PageSize)
}

func Filter(products []model.Product, q Query, now time.Time) []model.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	var cutoff time.Time
	if q.ExpiringWithinDays > 0 {
		y, m, d := now.Date()
		cutoff = time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, q.ExpiringWithinDays+1)
	}

	out := make([]model.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if q.ActiveOnly && !p.IsActive {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.Status != "" && p.StockStatus() != q.Status {
			continue
		}
		if !cutoff.IsZero() && (p.ExpiryDate == nil || !calendarDay(*p.ExpiryDate, now.Location()).Before(cutoff)) {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// calendarDay reads the stored date of t at midnight in loc without
// converting it, so a UTC-midnight date keeps its day in any zone.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func matches(p *model.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.ID), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}

// Sort orders products in place. The sort is stable so equal keys keep
// their catalog order in both directions. Products without an expiry date
// sort last when ordering by expiry.
func Sort(products []model.Product, by SortField, desc bool) {
	less := lessFunc(by)
	if less == nil {
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		a, b := &products[i], &products[j]
		if by == SortByExpiry && (a.ExpiryDate == nil) != (b.ExpiryDate == nil) {
			return b.ExpiryDate == nil
		}
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
}

func lessFunc(by SortField) func(a, b *model.Product) bool {
	switch by {
	case SortByName:
		return func(a, b *model.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByCategory:
		return func(a, b *model.Product) bool { return strings.ToLower(a.Category) < strings.ToLower(b.Category) }
	case SortByPrice:
		return func(a, b *model.Product) bool { return a.SellingPrice < b.SellingPrice }
	case SortByStock:
		return func(a, b *model.Product) bool { return a.QuantityInStock < b.QuantityInStock }
	case SortByExpiry:
		return func(a, b *model.Product) bool {
			if a.ExpiryDate == nil || b.ExpiryDate == nil {
				return false
			}
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	}
	return nil
}

// ParseSortField accepts a field name; anything unknown leaves the order
// untouched.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByName, SortByCategory, SortByPrice, SortByStock, SortByExpiry:
		return f
	}
	return ""
}

// Paginate returns the 1-based page of products. Out-of-range pages are
// empty rather than an error.
func Paginate(products []model.Product, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(products)
	p := Page{
		Items:      []model.Product{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
	// Compare page numbers before multiplying so a huge page cannot overflow.
	if page-1 >= p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	p.Items = products[start:end]
	return p
}
