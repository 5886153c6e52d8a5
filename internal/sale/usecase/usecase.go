package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/sale"
	"github.com/fekuna/omnipos-pharmacy/internal/sale/dto"
	"github.com/fekuna/omnipos-pharmacy/internal/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type saleUseCase struct {
	repo       sale.Repository
	store      *state.Store
	publisher  sale.Publisher
	terminalID string
	now        func() time.Time
	logger     logger.ZapLogger
}

// NewSaleUseCase wires the sale flow. publisher may be nil when events are
// disabled.
func NewSaleUseCase(repo sale.Repository, store *state.Store, publisher sale.Publisher, terminalID string, log logger.ZapLogger) sale.UseCase {
	return &saleUseCase{
		repo:       repo,
		store:      store,
		publisher:  publisher,
		terminalID: terminalID,
		now:        time.Now,
		logger:     log,
	}
}

func (uc *saleUseCase) CompleteSale(ctx context.Context, input *dto.CompleteSaleInput) (*dto.Receipt, error) {
	payment, err := validate(input)
	if err != nil {
		return nil, err
	}
	items, total, err := uc.price(input.Items)
	if err != nil {
		return nil, err
	}

	terminal := input.TerminalID
	if terminal == "" {
		terminal = uc.terminalID
	}
	s, err := uc.repo.CreateSale(ctx, &gateway.CreateSaleInput{
		Items:         items,
		PaymentMethod: payment,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Notes:         strings.TrimSpace(input.Notes),
		TotalAmount:   total,
		OperatorID:    input.OperatorID,
		TerminalID:    terminal,
	})
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}
	if len(s.Items) == 0 {
		s.Items = items
	}

	// The sale is already durable; a state failure here only leaves the
	// in-memory view stale until the next refresh.
	if err := uc.store.Update(recordSale(*s), state.KeyProducts, state.KeySales); err != nil {
		uc.logger.Error("sale recorded but live state not updated", zap.String("sale_id", s.ID), zap.Error(err))
	}
	metrics.SalesCompleted.WithLabelValues(string(s.PaymentMethod)).Inc()
	uc.publish(s)

	uc.logger.Info("sale completed",
		zap.String("sale_id", s.ID),
		zap.String("invoice", s.InvoiceNumber),
		zap.Float64("total", s.TotalAmount),
		zap.String("payment_method", string(s.PaymentMethod)),
	)
	return buildReceipt(s), nil
}

func validate(input *dto.CompleteSaleInput) (model.PaymentMethod, error) {
	if len(input.Items) == 0 {
		return "", sale.ErrNoItems
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return "", fmt.Errorf("%w: %s has %d", sale.ErrInvalidQuantity, it.ProductID, it.Quantity)
		}
		if it.UnitPrice != nil && *it.UnitPrice < 0 {
			return "", fmt.Errorf("%w: negative price for %s", sale.ErrInvalidQuantity, it.ProductID)
		}
	}
	payment, ok := model.ParsePaymentMethod(input.PaymentMethod)
	if !ok {
		return "", fmt.Errorf("%w: %q", sale.ErrInvalidPayment, input.PaymentMethod)
	}
	if payment == model.PaymentMobileMoney && strings.TrimSpace(input.CustomerPhone) == "" {
		return "", sale.ErrPhoneRequired
	}
	return payment, nil
}

// price resolves every requested item against the live catalog. Quantities
// of the same product are summed for the stock check.
func (uc *saleUseCase) price(in []dto.ItemInput) ([]model.LineItem, float64, error) {
	var (
		items []model.LineItem
		total float64
		err   error
	)
	uc.store.View(func(st *model.AppState) {
		wanted := map[string]int{}
		for _, it := range in {
			i := st.ProductIndex(it.ProductID)
			if i < 0 {
				err = fmt.Errorf("%w: %s", sale.ErrUnknownProduct, it.ProductID)
				return
			}
			p := &st.Products[i]
			if !p.IsActive {
				err = fmt.Errorf("%w: %s", sale.ErrInactiveProduct, p.ID)
				return
			}
			wanted[p.ID] += it.Quantity
			if wanted[p.ID] > p.QuantityInStock {
				err = fmt.Errorf("%s has %d in stock: %w", p.Name, p.QuantityInStock, gateway.ErrInsufficient)
				return
			}

			unit := p.SellingPrice
			if it.UnitPrice != nil {
				unit = *it.UnitPrice
			}
			li := model.LineItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   unit,
				Subtotal:    float64(it.Quantity) * unit,
			}
			if cost, ok := p.UnitCost(); ok {
				li.UnitCost = &cost
			}
			items = append(items, li)
			total += li.Subtotal
		}
	})
	return items, total, err
}

// recordSale decrements stock for every line and appends the sale.
func recordSale(s model.Sale) func(st *model.AppState) error {
	return func(st *model.AppState) error {
		for _, it := range s.Items {
			if i := st.ProductIndex(it.ProductID); i >= 0 {
				p := &st.Products[i]
				p.QuantityInStock -= it.Quantity
				if p.QuantityInStock < 0 {
					p.QuantityInStock = 0
				}
				p.ClampShelf()
			}
		}
		st.Sales = append(st.Sales, s.Clone())
		return nil
	}
}

func (uc *saleUseCase) publish(s *model.Sale) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		uc.logger.Error("failed to encode sale event", zap.String("sale_id", s.ID), zap.Error(err))
		return
	}
	event, err := json.Marshal(sale.Event{
		EventID:    uuid.NewString(),
		EventType:  sale.EventSaleCompleted,
		TerminalID: s.TerminalID,
		Timestamp:  uc.now(),
		Payload:    payload,
	})
	if err != nil {
		uc.logger.Error("failed to encode sale event", zap.String("sale_id", s.ID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(ctx, []byte(s.ID), event); err != nil {
		uc.logger.Warn("sale event not published", zap.String("sale_id", s.ID), zap.Error(err))
	}
}

func (uc *saleUseCase) DeleteSale(ctx context.Context, id string) error {
	if err := uc.repo.DeleteSale(ctx, id); err != nil {
		return err
	}
	return uc.store.Update(func(st *model.AppState) error {
		kept := st.Sales[:0]
		for _, s := range st.Sales {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		st.Sales = kept
		return nil
	}, state.KeySales)
}

func (uc *saleUseCase) ApplyRemoteSale(ctx context.Context, s model.Sale) error {
	if s.IsDeleted {
		return nil
	}
	seen := false
	uc.store.View(func(st *model.AppState) {
		for i := range st.Sales {
			if st.Sales[i].ID == s.ID {
				seen = true
				return
			}
		}
	})
	if seen {
		uc.logger.Debug("remote sale already applied", zap.String("sale_id", s.ID))
		return nil
	}
	return uc.store.Apply(recordSale(s), state.KeyProducts, state.KeySales)
}

func (uc *saleUseCase) RefreshSales(ctx context.Context) error {
	now := uc.now()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	sales, err := uc.repo.GetSalesInRange(ctx, start, start.AddDate(0, 0, 1).Add(-time.Nanosecond), "")
	if err != nil {
		return fmt.Errorf("refresh sales: %w", err)
	}
	return uc.store.Apply(func(st *model.AppState) error {
		st.Sales = sales
		return nil
	}, state.KeySales)
}
