package report

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// IncomeStatement computes revenue and cost of goods for the period. A sale
// whose line items cannot be loaded, or whose items carry no cost data at
// all, is booked at the engine's COGS ratio and the statement is marked
// Estimated. Such sales never abort the statement.
func (e *Engine) IncomeStatement(ctx context.Context, start, end time.Time) (is *IncomeStatement, err error) {
	defer e.track(KindIncome)(&err)
	return e.incomeStatement(ctx, start, end)
}

func (e *Engine) incomeStatement(ctx context.Context, start, end time.Time) (*IncomeStatement, error) {
	from, to, err := e.dayRange(start, end)
	if err != nil {
		return nil, err
	}
	sales, err := e.src.GetSalesInRange(ctx, from, to, "")
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	products, err := e.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	idx := indexProducts(products)

	is := &IncomeStatement{Meta: e.meta(KindIncome)}
	is.StartDate, is.EndDate = timePtr(from), &to

	var warnings error
	for i := range sales {
		s := &sales[i]
		c := e.costOfSale(ctx, s, idx, e.cogsRatio)
		is.Revenue += s.TotalAmount
		is.COGS += c.Cost
		is.UncostedItems += c.Unresolved
		is.SaleCount++
		if c.Estimated {
			is.EstimatedSales++
			is.EstimatedCOGS += c.Cost
		}
		switch {
		case c.Err != nil:
			warnings = multierr.Append(warnings, c.Err)
			metrics.EstimatedFigures.WithLabelValues("lookup_failed").Inc()
			e.logger.Warn("cogs estimated after line item lookup failed",
				zap.String("sale_id", s.ID), zap.Error(c.Err))
		case c.Estimated:
			metrics.EstimatedFigures.WithLabelValues("no_cost_data").Inc()
		}
	}
	is.Estimated = is.EstimatedSales > 0
	is.GrossProfit = is.Revenue - is.COGS
	is.GrossMarginPct = percentOf(is.GrossProfit, is.Revenue)
	is.NetIncome = is.GrossProfit - is.OperatingExpenses
	is.NetMarginPct = percentOf(is.NetIncome, is.Revenue)
	is.Warnings = warningStrings(warnings)
	return is, nil
}

// BalanceSheet values stock across all products and approximates cash as
// every sale up to the end of asOf. Receivables, fixed assets and
// liabilities have no data source and stay 0.
func (e *Engine) BalanceSheet(ctx context.Context, asOf time.Time) (bs *BalanceSheet, err error) {
	defer e.track(KindBalanceSheet)(&err)

	if asOf.IsZero() {
		asOf = e.now()
	}
	cutoff := e.endOfDay(asOf)

	products, err := e.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	cash, err := e.salesTotal(ctx, time.Time{}, cutoff)
	if err != nil {
		return nil, err
	}

	bs = &BalanceSheet{Meta: e.meta(KindBalanceSheet), Cash: cash, CashApproximated: true}
	bs.AsOf = &cutoff
	for i := range products {
		p := &products[i]
		cost, ok := p.UnitCost()
		if !ok {
			bs.UnvaluedProducts++
			continue
		}
		bs.Inventory += float64(p.QuantityInStock) * cost
	}
	bs.TotalAssets = bs.Cash + bs.AccountsReceivable + bs.Inventory + bs.FixedAssets
	bs.TotalLiabilities = bs.AccountsPayable
	bs.Equity = bs.TotalAssets - bs.TotalLiabilities
	return bs, nil
}

// CashFlowStatement treats every sale in the period as cash received.
// Inventory purchases, investing and financing are not tracked and stay 0.
func (e *Engine) CashFlowStatement(ctx context.Context, start, end time.Time) (cf *CashFlowStatement, err error) {
	defer e.track(KindCashFlow)(&err)

	from, to, err := e.dayRange(start, end)
	if err != nil {
		return nil, err
	}
	inPeriod, err := e.salesTotal(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var opening float64
	if !from.IsZero() {
		if opening, err = e.salesTotal(ctx, time.Time{}, from.Add(-time.Nanosecond)); err != nil {
			return nil, err
		}
	}

	cf = &CashFlowStatement{Meta: e.meta(KindCashFlow), CashFromSales: inPeriod, OpeningCash: opening}
	cf.StartDate, cf.EndDate = timePtr(from), &to
	cf.Operating = cf.CashFromSales - cf.InventoryPurchases
	cf.NetChange = cf.Operating + cf.Investing + cf.Financing
	cf.ClosingCash = cf.OpeningCash + cf.NetChange
	return cf, nil
}

// ProfitAndLoss restates the income statement with each line as a share of
// revenue.
func (e *Engine) ProfitAndLoss(ctx context.Context, start, end time.Time) (pl *ProfitAndLoss, err error) {
	defer e.track(KindProfitAndLoss)(&err)

	is, err := e.incomeStatement(ctx, start, end)
	if err != nil {
		return nil, err
	}
	pl = &ProfitAndLoss{Meta: is.Meta, Estimated: is.Estimated, Warnings: is.Warnings}
	pl.Kind = KindProfitAndLoss
	for _, l := range []struct {
		label  string
		amount float64
	}{
		{"Revenue", is.Revenue},
		{"Cost of Goods Sold", is.COGS},
		{"Gross Profit", is.GrossProfit},
		{"Operating Expenses", is.OperatingExpenses},
		{"Net Income", is.NetIncome},
	} {
		pl.Lines = append(pl.Lines, PLLine{
			Label:            l.label,
			Amount:           l.amount,
			PercentOfRevenue: percentOf(l.amount, is.Revenue),
		})
	}
	return pl, nil
}

func (e *Engine) salesTotal(ctx context.Context, from, to time.Time) (float64, error) {
	sales, err := e.src.GetSalesInRange(ctx, from, to, "")
	if err != nil {
		return 0, fmt.Errorf("load sales: %w", err)
	}
	var total float64
	for i := range sales {
		total += sales[i].TotalAmount
	}
	return total, nil
}
