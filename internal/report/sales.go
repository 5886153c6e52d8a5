package report

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SalesReport lists every non-deleted sale in [start, end], optionally
// restricted to sales containing an item of category. Profit per sale uses
// resolved item costs, or the assumed margin when none resolve.
func (e *Engine) SalesReport(ctx context.Context, start, end time.Time, category string) (rep *SalesReport, err error) {
	defer e.track(KindSales)(&err)

	from, to, err := e.dayRange(start, end)
	if err != nil {
		return nil, err
	}
	sales, err := e.src.GetSalesInRange(ctx, from, to, category)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	products, err := e.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	idx := indexProducts(products)

	rep = &SalesReport{
		Meta:      e.meta(KindSales),
		Rows:      make([]SalesRow, 0, len(sales)),
		ByPayment: map[model.PaymentMethod]float64{},
	}
	rep.StartDate, rep.EndDate, rep.Category = timePtr(from), &to, category

	var warnings error
	for i := range sales {
		s := &sales[i]
		c := e.costOfSale(ctx, s, idx, 1-e.margin)
		if c.Err != nil {
			warnings = multierr.Append(warnings, c.Err)
			metrics.EstimatedFigures.WithLabelValues("lookup_failed").Inc()
		} else if c.Estimated {
			metrics.EstimatedFigures.WithLabelValues("no_cost_data").Inc()
		}

		row := SalesRow{
			SaleID:          s.ID,
			InvoiceNumber:   s.InvoiceNumber,
			Date:            s.CreatedAt,
			Items:           itemCount(s, c),
			PaymentMethod:   s.PaymentMethod,
			Customer:        s.CustomerName,
			Total:           s.TotalAmount,
			Profit:          s.TotalAmount - c.Cost,
			ProfitEstimated: c.Estimated,
			UncostedItems:   c.Unresolved,
		}
		rep.Rows = append(rep.Rows, row)
		rep.SaleCount++
		rep.ItemCount += row.Items
		rep.TotalAmount += row.Total
		rep.Profit += row.Profit
		rep.ProfitEstimated = rep.ProfitEstimated || row.ProfitEstimated
		rep.UncostedItems += row.UncostedItems
		rep.ByPayment[row.PaymentMethod] += row.Total
	}
	if rep.SaleCount > 0 {
		rep.AverageSale = rep.TotalAmount / float64(rep.SaleCount)
	}
	rep.Warnings = warningStrings(warnings)
	if len(rep.Warnings) > 0 {
		e.logger.Warn("sales report used estimated profit", zap.Int("warnings", len(rep.Warnings)))
	}
	return rep, nil
}

// itemCount prefers the sale's explicit count, then the line items that were
// carried or fetched for costing, then 1.
func itemCount(s *model.Sale, c saleCost) int {
	if s.ItemCount == nil && len(s.Items) == 0 && c.Lines > 0 {
		return c.Lines
	}
	return s.ResolvedItemCount()
}

// timePtr returns nil for the zero time, used for an open range start.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func warningStrings(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
