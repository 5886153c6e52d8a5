// Package report derives sales, stock and financial reports from gateway
// data. Reports are recomputed on every call and never stored.
//
// Totals are accumulated at full float64 precision; rounding to cents
// happens only in Present.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"go.uber.org/zap"
)

const (
	// DefaultCOGSRatio is the share of a sale's total booked as cost when
	// none of its items has usable cost data. It is a placeholder figure,
	// not an accounting rule.
	DefaultCOGSRatio = 0.60
	// DefaultAssumedMargin is the profit share assumed for a sale with no
	// usable cost data in the sales report. Also a placeholder.
	DefaultAssumedMargin = 0.30
	// DefaultExpiryWindow reaches past the 30-day "expiring soon" band so the
	// default report also shows stock that is still good.
	DefaultExpiryWindow = 90
)

var (
	ErrInvalidRange = errors.New("end date is before start date")
	ErrUnknownKind  = errors.New("unknown report kind")
)

// Source is the read side of the persistence gateway the engine needs.
type Source interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error)
	GetSaleLineItems(ctx context.Context, saleID string) ([]model.LineItem, error)
}

type Engine struct {
	src          Source
	logger       logger.ZapLogger
	now          func() time.Time
	loc          *time.Location
	cogsRatio    float64
	margin       float64
	expiryWindow int
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocation sets the timezone used to turn dates into day boundaries.
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

func WithCOGSRatio(r float64) Option { return func(e *Engine) { e.cogsRatio = r } }

func WithAssumedMargin(m float64) Option { return func(e *Engine) { e.margin = m } }

func WithExpiryWindow(days int) Option { return func(e *Engine) { e.expiryWindow = days } }

func NewEngine(src Source, log logger.ZapLogger, opts ...Option) *Engine {
	e := &Engine{
		src:          src,
		logger:       log,
		now:          time.Now,
		loc:          time.Local,
		cogsRatio:    DefaultCOGSRatio,
		margin:       DefaultAssumedMargin,
		expiryWindow: DefaultExpiryWindow,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Request is the transport-neutral form of a report query.
type Request struct {
	Kind      Kind
	StartDate time.Time
	EndDate   time.Time
	AsOf      time.Time
	Category  string
	Days      int
}

// Generate dispatches req to the matching report.
func (e *Engine) Generate(ctx context.Context, req Request) (any, error) {
	switch req.Kind {
	case KindSales:
		return e.SalesReport(ctx, req.StartDate, req.EndDate, req.Category)
	case KindInventory:
		return e.InventoryReport(ctx, req.Category)
	case KindLowStock:
		return e.LowStockReport(ctx, req.Category)
	case KindExpiring:
		return e.ExpiringReport(ctx, req.Days)
	case KindIncome:
		return e.IncomeStatement(ctx, req.StartDate, req.EndDate)
	case KindBalanceSheet:
		return e.BalanceSheet(ctx, req.AsOf)
	case KindCashFlow:
		return e.CashFlowStatement(ctx, req.StartDate, req.EndDate)
	case KindProfitAndLoss:
		return e.ProfitAndLoss(ctx, req.StartDate, req.EndDate)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
}

func (e *Engine) meta(kind Kind) Meta {
	return Meta{Kind: kind, GeneratedAt: e.now()}
}

// track records duration and outright failures for kind.
func (e *Engine) track(kind Kind) func(err *error) {
	start := time.Now()
	return func(err *error) {
		metrics.ReportDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		if *err != nil {
			metrics.ReportFailures.WithLabelValues(string(kind)).Inc()
			e.logger.Error("report generation failed", zap.String("kind", string(kind)), zap.Error(*err))
		}
	}
}

// dayRange widens [start, end] to whole days. A zero start means the
// beginning of time and a zero end means today.
func (e *Engine) dayRange(start, end time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = e.now()
	}
	to := e.endOfDay(end)
	var from time.Time
	if !start.IsZero() {
		from = e.startOfDay(start)
		if to.Before(from) {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
	}
	return from, to, nil
}

func (e *Engine) startOfDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// calendarDay keeps the stored year, month and day of a date-only value and
// places it at midnight in the engine's location. Dates arrive as UTC
// midnight, so converting them first would shift them a day west of UTC.
func (e *Engine) calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

func (e *Engine) endOfDay(t time.Time) time.Time {
	return e.startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func matchesCategory(p *model.Product, category string) bool {
	return category == "" || strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(category))
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func ptr(v float64) *float64 { return &v }
