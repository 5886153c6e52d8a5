package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/sale"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is satisfied by *broker.KafkaConsumer.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// SaleListener applies sales completed on other terminals to the local
// state.
type SaleListener struct {
	reader     Reader
	uc         sale.UseCase
	terminalID string
	retryDelay time.Duration
	logger     logger.ZapLogger
}

func NewSaleListener(reader Reader, uc sale.UseCase, terminalID string, logger logger.ZapLogger) *SaleListener {
	return &SaleListener{
		reader:     reader,
		uc:         uc,
		terminalID: terminalID,
		retryDelay: time.Second,
		logger:     logger,
	}
}

// Start blocks until ctx is cancelled.
func (l *SaleListener) Start(ctx context.Context) {
	l.logger.Info("Starting sale listener", zap.String("terminal_id", l.terminalID))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping sale listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retryDelay):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *SaleListener) processMessage(ctx context.Context, value []byte) {
	var event sale.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != sale.EventSaleCompleted {
		return
	}
	if event.TerminalID != "" && event.TerminalID == l.terminalID {
		return
	}

	s, err := gateway.DecodeSale(event.Payload)
	if err != nil {
		l.logger.Error("Failed to decode sale payload", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	if s.TerminalID == "" {
		s.TerminalID = event.TerminalID
	}

	l.logger.Info("Applying remote sale", zap.String("sale_id", s.ID), zap.String("terminal_id", s.TerminalID))
	if err := l.uc.ApplyRemoteSale(ctx, s); err != nil {
		l.logger.Error("Failed to apply remote sale", zap.String("sale_id", s.ID), zap.Error(err))
	}
}
