package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/gateway/memory"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 15, 30, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }
func n(v int) *int { return &v }

func newEngine(src Source, opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return now }), WithLocation(time.UTC)}, opts...)
	return NewEngine(src, logger.NewNop(), opts...)
}

// fakeSource returns sales without nested items so the engine has to look
// them up, and fails lookups for ids in failItems.
type fakeSource struct {
	products  []model.Product
	sales     []model.Sale
	items     map[string][]model.LineItem
	failItems map[string]bool
	lookups   []string
}

func (s *fakeSource) GetAllProducts(context.Context) ([]model.Product, error) {
	return s.products, nil
}

func (s *fakeSource) GetSalesInRange(_ context.Context, start, end time.Time, _ string) ([]model.Sale, error) {
	var out []model.Sale
	for _, sale := range s.sales {
		if !sale.CreatedAt.Before(start) && !sale.CreatedAt.After(end) {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *fakeSource) GetSaleLineItems(_ context.Context, id string) ([]model.LineItem, error) {
	s.lookups = append(s.lookups, id)
	if s.failItems[id] {
		return nil, errors.New("connection reset")
	}
	return s.items[id], nil
}

func TestInventoryReportScenarioAOutOfStock(t *testing.T) {
	src := &fakeSource{products: []model.Product{
		{ID: "a", Name: "Ampicillin", QuantityInStock: 0, ReorderLevel: 5, IsActive: true, CostPrice: f(2)},
		{ID: "b", Name: "Bisoprolol", QuantityInStock: 4, ReorderLevel: 5, IsActive: true, TotalBulkCost: f(30), QuantityBought: n(10)},
		{ID: "c", Name: "Cetirizine", QuantityInStock: 20, ReorderLevel: 5, IsActive: true, SellingPrice: 1.5},
		{ID: "d", Name: "Discontinued", QuantityInStock: 99, IsActive: false, CostPrice: f(100)},
	}}

	rep, err := newEngine(src).InventoryReport(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, rep.Rows, 3, "inactive products are excluded")
	assert.Equal(t, model.StockOut, rep.Rows[0].Status)
	assert.Equal(t, model.StockLow, rep.Rows[1].Status)
	assert.Equal(t, model.StockIn, rep.Rows[2].Status)
	assert.Equal(t, 1, rep.OutOfStock)
	assert.Equal(t, 1, rep.LowStock)
	assert.Equal(t, 1, rep.InStock)

	// 0*2 + 4*(30/10); c has no cost and is excluded from the total.
	assert.InDelta(t, 12.0, rep.TotalValue, 1e-9)
	assert.Equal(t, 1, rep.Unvalued)
	assert.Nil(t, rep.Rows[2].Value)
	assert.InDelta(t, 30.0, rep.TotalRetailValue, 1e-9)
}

func TestLowStockReportIsStableByQuantity(t *testing.T) {
	src := &fakeSource{products: []model.Product{
		{ID: "x", QuantityInStock: 3, ReorderLevel: 5, IsActive: true},
		{ID: "y", QuantityInStock: 0, ReorderLevel: 5, IsActive: true},
		{ID: "z", QuantityInStock: 3, ReorderLevel: 5, IsActive: true},
		{ID: "ok", QuantityInStock: 30, ReorderLevel: 5, IsActive: true},
		{ID: "w", QuantityInStock: 1, ReorderLevel: 5, IsActive: true},
	}}

	rep, err := newEngine(src).LowStockReport(context.Background(), "")
	require.NoError(t, err)

	var ids []string
	for _, r := range rep.Rows {
		ids = append(ids, r.ProductID)
	}
	assert.Equal(t, []string{"y", "w", "x", "z"}, ids)
	assert.Equal(t, 1, rep.OutOfStock)
	assert.Equal(t, 3, rep.LowStock)
}

func TestSalesReportScenarioCTotals(t *testing.T) {
	mem := memory.New()
	mem.PutSale(model.Sale{ID: "s1", CreatedAt: now.Add(-time.Hour), TotalAmount: 50, PaymentMethod: model.PaymentCash,
		Items: []model.LineItem{{ProductID: "p", Quantity: 1}, {ProductID: "q", Quantity: 2}}})
	mem.PutSale(model.Sale{ID: "s2", CreatedAt: now.Add(-2 * time.Hour), TotalAmount: 150, PaymentMethod: model.PaymentCard, ItemCount: n(4)})
	mem.PutSale(model.Sale{ID: "gone", CreatedAt: now, TotalAmount: 999, IsDeleted: true})

	rep, err := newEngine(mem).SalesReport(context.Background(), now, now, "")
	require.NoError(t, err)

	assert.InDelta(t, 200.0, rep.TotalAmount, 1e-9)
	assert.Equal(t, 2, rep.SaleCount)
	assert.Equal(t, 2+4, rep.ItemCount)
	assert.InDelta(t, 100.0, rep.AverageSale, 1e-9)
	assert.InDelta(t, 50.0, rep.ByPayment[model.PaymentCash], 1e-9)
	assert.InDelta(t, 150.0, rep.ByPayment[model.PaymentCard], 1e-9)

	// No cost data anywhere: profit is the assumed 30% margin and flagged.
	assert.True(t, rep.ProfitEstimated)
	assert.InDelta(t, 60.0, rep.Profit, 1e-9)
}

func TestSalesReportCountsFetchedItems(t *testing.T) {
	src := &fakeSource{
		sales: []model.Sale{
			{ID: "legacy", CreatedAt: now, TotalAmount: 30},
			{ID: "explicit", CreatedAt: now, TotalAmount: 10, ItemCount: n(7)},
			{ID: "empty", CreatedAt: now, TotalAmount: 5},
		},
		items: map[string][]model.LineItem{
			"legacy":   {{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}, {ProductID: "c", Quantity: 3}},
			"explicit": {{ProductID: "a", Quantity: 1}},
		},
	}

	rep, err := newEngine(src).SalesReport(context.Background(), now, now, "")
	require.NoError(t, err)

	require.Len(t, rep.Rows, 3)
	assert.Equal(t, 3, rep.Rows[0].Items, "fetched line items count when the sale has no count")
	assert.Equal(t, 7, rep.Rows[1].Items, "an explicit count wins")
	assert.Equal(t, 1, rep.Rows[2].Items, "nothing known defaults to one")
	assert.Equal(t, 11, rep.ItemCount)
}

func TestSalesReportFlagsPartlyCostedSales(t *testing.T) {
	src := &fakeSource{
		products: []model.Product{{ID: "known", CostPrice: f(4)}},
		sales:    []model.Sale{{ID: "mixed", CreatedAt: now, TotalAmount: 20}},
		items: map[string][]model.LineItem{
			"mixed": {{ProductID: "known", Quantity: 2}, {ProductID: "mystery", Quantity: 1}},
		},
	}

	rep, err := newEngine(src).SalesReport(context.Background(), now, now, "")
	require.NoError(t, err)

	require.Len(t, rep.Rows, 1)
	row := rep.Rows[0]
	assert.False(t, row.ProfitEstimated)
	assert.InDelta(t, 12.0, row.Profit, 1e-9)
	assert.Equal(t, 1, row.UncostedItems)
	assert.Equal(t, 1, rep.UncostedItems)
}

func TestConfiguredFallbackRatios(t *testing.T) {
	src := &fakeSource{
		sales: []model.Sale{{ID: "s1", CreatedAt: now, TotalAmount: 100}},
		items: map[string][]model.LineItem{"s1": {{ProductID: "unknown", Quantity: 1}}},
	}
	e := newEngine(src, WithCOGSRatio(0.5), WithAssumedMargin(0.2))

	is, err := e.IncomeStatement(context.Background(), now, now)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, is.COGS, 1e-9)

	rep, err := e.SalesReport(context.Background(), now, now, "")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, rep.Profit, 1e-9)
	assert.True(t, rep.ProfitEstimated)
}

func TestSalesReportRangeIsInclusiveWholeDays(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mem := memory.New()
	mem.PutSale(model.Sale{ID: "first", CreatedAt: day, TotalAmount: 1})
	mem.PutSale(model.Sale{ID: "last", CreatedAt: day.Add(24*time.Hour - time.Second), TotalAmount: 2})
	mem.PutSale(model.Sale{ID: "next", CreatedAt: day.Add(24 * time.Hour), TotalAmount: 4})

	rep, err := newEngine(mem).SalesReport(context.Background(), day, day.Add(9*time.Hour), "")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, rep.TotalAmount, 1e-9)
}

func TestReportRejectsInvertedRange(t *testing.T) {
	e := newEngine(memory.New())
	_, err := e.SalesReport(context.Background(), now, now.AddDate(0, 0, -2), "")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = e.IncomeStatement(context.Background(), now, now.AddDate(0, 0, -2))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestExpiringReportScenarioD(t *testing.T) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		d := today.AddDate(0, 0, days)
		return &d
	}
	src := &fakeSource{products: []model.Product{
		{ID: "good", ExpiryDate: at(40), IsActive: true},
		{ID: "soon", ExpiryDate: at(5), IsActive: true, QuantityInStock: 10, CostPrice: f(1.25)},
		{ID: "expired", ExpiryDate: at(-1), IsActive: true},
		{ID: "undated", IsActive: true},
		{ID: "far", ExpiryDate: at(400), IsActive: true},
	}}

	rep, err := newEngine(src).ExpiringReport(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, rep.Rows, 3, "undated and beyond-window products are left out")
	assert.Equal(t, "expired", rep.Rows[0].ProductID)
	assert.Equal(t, ExpiryExpired, rep.Rows[0].Status)
	assert.Equal(t, "soon", rep.Rows[1].ProductID)
	assert.Equal(t, ExpirySoon, rep.Rows[1].Status)
	assert.True(t, rep.Rows[1].Urgent)
	assert.Equal(t, 5, rep.Rows[1].DaysUntilExpiry)
	assert.Equal(t, "good", rep.Rows[2].ProductID)
	assert.Equal(t, ExpiryGood, rep.Rows[2].Status)
	assert.InDelta(t, 12.5, rep.ValueAtRisk, 1e-9)
	assert.Equal(t, 1, rep.Urgent)
}

func TestExpiringReportDefaultWindow(t *testing.T) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	in120 := today.AddDate(0, 0, 120)
	src := &fakeSource{products: []model.Product{{ID: "p", ExpiryDate: &in120, IsActive: true}}}

	rep, err := newEngine(src).ExpiringReport(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)
	assert.Equal(t, DefaultExpiryWindow, rep.WithinDays)

	rep, err = newEngine(src).ExpiringReport(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)

	rep, err = newEngine(src, WithExpiryWindow(-1)).ExpiringReport(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, rep.Rows, 1)
}

func TestExpiringReportKeepsStoredDateWestOfUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Date-only values are stored and decoded as UTC midnight.
	p, err := gateway.NormalizeProduct(map[string]any{"id": "p", "name": "Insulin", "is_active": true, "expiry_date": "2026-05-21"})
	require.NoError(t, err)
	src := &fakeSource{products: []model.Product{p}}

	clock := time.Date(2026, 5, 20, 12, 0, 0, 0, ny)
	e := NewEngine(src, logger.NewNop(), WithClock(func() time.Time { return clock }), WithLocation(ny))
	rep, err := e.ExpiringReport(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, 1, rep.Rows[0].DaysUntilExpiry)
	assert.Equal(t, ExpirySoon, rep.Rows[0].Status)
	assert.True(t, rep.Rows[0].Urgent)
}

func TestClassifyExpiryThresholds(t *testing.T) {
	cases := []struct {
		days   int
		status ExpiryStatus
		urgent bool
	}{
		{-10, ExpiryExpired, false},
		{0, ExpiryExpired, false},
		{1, ExpirySoon, true},
		{7, ExpirySoon, true},
		{8, ExpirySoon, false},
		{30, ExpirySoon, false},
		{31, ExpiryGood, false},
	}
	for _, c := range cases {
		status, urgent := ClassifyExpiry(c.days)
		assert.Equal(t, c.status, status, "days=%d", c.days)
		assert.Equal(t, c.urgent, urgent, "days=%d", c.days)
	}
}

func TestIncomeStatementScenarioBFallback(t *testing.T) {
	src := &fakeSource{
		sales: []model.Sale{{ID: "s1", CreatedAt: now, TotalAmount: 100}},
		items: map[string][]model.LineItem{"s1": {{ProductID: "unknown", Quantity: 2}}},
	}

	is, err := newEngine(src).IncomeStatement(context.Background(), now, now)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, is.Revenue, 1e-9)
	assert.InDelta(t, 60.0, is.COGS, 1e-9)
	assert.True(t, is.Estimated)
	assert.Equal(t, 1, is.EstimatedSales)
	assert.InDelta(t, 60.0, is.EstimatedCOGS, 1e-9)
	assert.Equal(t, 1, is.UncostedItems)
	assert.InDelta(t, 40.0, is.GrossMarginPct, 1e-9)
}

func TestIncomeStatementLookupFailureFallsBackPerSale(t *testing.T) {
	src := &fakeSource{
		products: []model.Product{{ID: "p", CostPrice: f(3)}, {ID: "q", TotalBulkCost: f(10), QuantityBought: n(4)}},
		sales: []model.Sale{
			{ID: "ok", CreatedAt: now, TotalAmount: 40},
			{ID: "broken", CreatedAt: now, TotalAmount: 50},
			{ID: "recorded", CreatedAt: now, TotalAmount: 20},
		},
		items: map[string][]model.LineItem{
			"ok":       {{ProductID: "p", Quantity: 2}, {ProductID: "q", Quantity: 4}},
			"recorded": {{ProductID: "p", Quantity: 5, UnitCost: f(1)}},
		},
		failItems: map[string]bool{"broken": true},
	}

	is, err := newEngine(src).IncomeStatement(context.Background(), now, now)
	require.NoError(t, err)

	// ok: 2*3 + 4*2.5 = 16; broken: 0.6*50 = 30; recorded: 5*1 = 5.
	assert.InDelta(t, 51.0, is.COGS, 1e-9)
	assert.InDelta(t, 110.0, is.Revenue, 1e-9)
	assert.Equal(t, 1, is.EstimatedSales)
	require.Len(t, is.Warnings, 1)
	assert.Contains(t, is.Warnings[0], "broken")
	assert.Equal(t, []string{"ok", "broken", "recorded"}, src.lookups, "lookups follow sale order")
}

func TestIncomeStatementIdentities(t *testing.T) {
	src := &fakeSource{
		products: []model.Product{{ID: "p", CostPrice: f(0.37)}},
		items:    map[string][]model.LineItem{},
	}
	for i := 0; i < 25; i++ {
		id := string(rune('a' + i))
		src.sales = append(src.sales, model.Sale{ID: id, CreatedAt: now, TotalAmount: 1.1 * float64(i+1)})
		if i%3 != 0 {
			src.items[id] = []model.LineItem{{ProductID: "p", Quantity: i + 1}}
		}
	}

	is, err := newEngine(src).IncomeStatement(context.Background(), now, now)
	require.NoError(t, err)
	assert.InDelta(t, is.GrossProfit, is.Revenue-is.COGS, 1e-6)
	assert.InDelta(t, is.NetIncome, is.GrossProfit-is.OperatingExpenses, 1e-6)
	assert.Zero(t, is.OperatingExpenses)
}

func TestIncomeStatementEmptyPeriod(t *testing.T) {
	is, err := newEngine(&fakeSource{}).IncomeStatement(context.Background(), now, now)
	require.NoError(t, err)
	assert.Zero(t, is.Revenue)
	assert.Zero(t, is.GrossMarginPct)
	assert.False(t, is.Estimated)
}

func TestBalanceSheetBalances(t *testing.T) {
	mem := memory.New()
	mem.PutProduct(model.Product{ID: "p", QuantityInStock: 10, CostPrice: f(2.5), IsActive: true})
	mem.PutProduct(model.Product{ID: "q", QuantityInStock: 4, IsActive: false, TotalBulkCost: f(9), QuantityBought: n(3)})
	mem.PutProduct(model.Product{ID: "r", QuantityInStock: 7})
	mem.PutSale(model.Sale{ID: "old", CreatedAt: now.AddDate(-1, 0, 0), TotalAmount: 120})
	mem.PutSale(model.Sale{ID: "today", CreatedAt: now, TotalAmount: 30})
	mem.PutSale(model.Sale{ID: "later", CreatedAt: now.AddDate(0, 0, 1), TotalAmount: 1000})

	bs, err := newEngine(mem).BalanceSheet(context.Background(), now)
	require.NoError(t, err)

	assert.InDelta(t, 150.0, bs.Cash, 1e-9)
	assert.InDelta(t, 25.0+12.0, bs.Inventory, 1e-9)
	assert.Equal(t, 1, bs.UnvaluedProducts)
	assert.True(t, bs.CashApproximated)
	assert.InDelta(t, bs.TotalAssets, bs.TotalLiabilities+bs.Equity, 1e-9)
}

func TestCashFlowOpeningAndClosing(t *testing.T) {
	mem := memory.New()
	mem.PutSale(model.Sale{ID: "before", CreatedAt: now.AddDate(0, 0, -10), TotalAmount: 70})
	mem.PutSale(model.Sale{ID: "in", CreatedAt: now.AddDate(0, 0, -1), TotalAmount: 30})

	cf, err := newEngine(mem).CashFlowStatement(context.Background(), now.AddDate(0, 0, -2), now)
	require.NoError(t, err)

	assert.InDelta(t, 30.0, cf.CashFromSales, 1e-9)
	assert.InDelta(t, 30.0, cf.Operating, 1e-9)
	assert.InDelta(t, 30.0, cf.NetChange, 1e-9)
	assert.InDelta(t, 70.0, cf.OpeningCash, 1e-9)
	assert.InDelta(t, 100.0, cf.ClosingCash, 1e-9)
}

func TestProfitAndLossPercentages(t *testing.T) {
	src := &fakeSource{
		products: []model.Product{{ID: "p", CostPrice: f(4)}},
		sales:    []model.Sale{{ID: "s", CreatedAt: now, TotalAmount: 40}},
		items:    map[string][]model.LineItem{"s": {{ProductID: "p", Quantity: 3}}},
	}

	pl, err := newEngine(src).ProfitAndLoss(context.Background(), now, now)
	require.NoError(t, err)

	assert.Equal(t, KindProfitAndLoss, pl.Kind)
	require.Len(t, pl.Lines, 5)
	assert.Equal(t, "Revenue", pl.Lines[0].Label)
	assert.InDelta(t, 100.0, pl.Lines[0].PercentOfRevenue, 1e-9)
	assert.InDelta(t, 30.0, pl.Lines[1].PercentOfRevenue, 1e-9)
	assert.InDelta(t, 28.0, pl.Lines[2].Amount, 1e-9)
	assert.False(t, pl.Estimated)
}

func TestGenerateDispatchesByKind(t *testing.T) {
	e := newEngine(memory.New())
	for _, k := range []Kind{KindSales, KindInventory, KindLowStock, KindExpiring, KindIncome, KindBalanceSheet, KindCashFlow, KindProfitAndLoss} {
		out, err := e.Generate(context.Background(), Request{Kind: k})
		require.NoError(t, err, k)
		assert.NotNil(t, out, k)
	}
	_, err := e.Generate(context.Background(), Request{Kind: "payroll"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPresentRoundsOnlyFractions(t *testing.T) {
	out, err := Present(&IncomeStatement{Revenue: 10.005, COGS: 1.0 / 3, SaleCount: 7})
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, 10.01, m["revenue"])
	assert.Equal(t, 0.33, m["cogs"])
	assert.Equal(t, int64(7), m["sale_count"])
	assert.Equal(t, "12.50", FormatMoney(12.5))
	assert.Equal(t, 2.68, Round2(2.675))
}
