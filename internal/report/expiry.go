package report

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ClassifyExpiry maps days until expiry onto a status. Expiry within a week
// is urgent.
func ClassifyExpiry(days int) (status ExpiryStatus, urgent bool) {
	switch {
	case days <= 0:
		return ExpiryExpired, false
	case days <= 7:
		return ExpirySoon, true
	case days <= 30:
		return ExpirySoon, false
	default:
		return ExpiryGood, false
	}
}

// ExpiringReport lists active products with an expiry date no later than
// today+within days, expired ones included, earliest first. within <= 0
// falls back to the engine's window; when that is also <= 0 every dated
// product is listed.
func (e *Engine) ExpiringReport(ctx context.Context, within int) (rep *ExpiryReport, err error) {
	defer e.track(KindExpiring)(&err)

	if within <= 0 {
		within = e.expiryWindow
	}
	products, err := e.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	today := e.startOfDay(e.now())
	rep = &ExpiryReport{Meta: e.meta(KindExpiring), Rows: make([]ExpiryRow, 0)}
	rep.WithinDays = within

	for i := range products {
		p := &products[i]
		if !p.IsActive || p.ExpiryDate == nil {
			continue
		}
		days := daysBetween(today, e.calendarDay(*p.ExpiryDate))
		if within > 0 && days > within {
			continue
		}
		status, urgent := ClassifyExpiry(days)
		row := ExpiryRow{
			ProductID:       p.ID,
			Name:            p.Name,
			Category:        p.Category,
			ExpiryDate:      *p.ExpiryDate,
			DaysUntilExpiry: days,
			Status:          status,
			Urgent:          urgent,
			QuantityInStock: p.QuantityInStock,
		}
		if cost, ok := p.UnitCost(); ok {
			row.ValueAtRisk = ptr(float64(p.QuantityInStock) * cost)
			rep.ValueAtRisk += *row.ValueAtRisk
		}
		switch status {
		case ExpiryExpired:
			rep.Expired++
		case ExpirySoon:
			rep.ExpiringSoon++
		default:
			rep.Good++
		}
		if urgent {
			rep.Urgent++
		}
		rep.Rows = append(rep.Rows, row)
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		return rep.Rows[i].ExpiryDate.Before(rep.Rows[j].ExpiryDate)
	})
	return rep, nil
}

// daysBetween counts calendar days from a to b, both at midnight. Rounding
// absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	h := b.Sub(a).Hours() / 24
	if h < 0 {
		return -int(-h + 0.5)
	}
	return int(h + 0.5)
}
