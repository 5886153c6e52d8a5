package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/sale/dto"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUseCase struct {
	applied []model.Sale
}

func (r *recordingUseCase) CompleteSale(context.Context, *dto.CompleteSaleInput) (*dto.Receipt, error) {
	return nil, errors.New("not used")
}
func (r *recordingUseCase) DeleteSale(context.Context, string) error { return nil }
func (r *recordingUseCase) RefreshSales(context.Context) error { return nil }
func (r *recordingUseCase) ApplyRemoteSale(_ context.Context, s model.Sale) error {
	r.applied = append(r.applied, s)
	return nil
}

// queueReader hands out queued messages, then blocks until ctx ends.
type queueReader struct {
	mu   sync.Mutex
	msgs [][]byte
	errs int
}

func (q *queueReader) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs) == 0 && q.errs == 0
}

func (q *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	q.mu.Lock()
	if q.errs > 0 {
		q.errs--
		q.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(q.msgs) == 0 {
		q.mu.Unlock()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	q.mu.Unlock()
	return kafka.Message{Value: m}, nil
}

func run(t *testing.T, reader *queueReader, uc *recordingUseCase) {
	t.Helper()
	l := NewSaleListener(reader, uc, "till-1", logger.NewNop())
	l.retryDelay = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()
	require.Eventually(t, reader.drained, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done
}

func TestListenerAppliesRemoteSalesOnly(t *testing.T) {
	reader := &queueReader{
		errs: 1,
		msgs: [][]byte{
			[]byte(`{"event_type":"SaleCompleted","terminal_id":"till-2","payload":{"saleId":"s-remote","totalAmount":"12.50","paymentMethod":"MoMo","items":[{"productId":"amox","qty":2}]}}`),
			[]byte(`{"event_type":"SaleCompleted","terminal_id":"till-1","payload":{"id":"s-own"}}`),
			[]byte(`{"event_type":"SaleDeleted","terminal_id":"till-2","payload":{"id":"s-x"}}`),
			[]byte(`not json`),
			[]byte(`{"event_type":"SaleCompleted","terminal_id":"till-3","payload":{"total":5}}`),
		},
	}
	uc := &recordingUseCase{}
	run(t, reader, uc)

	require.Len(t, uc.applied, 1)
	s := uc.applied[0]
	assert.Equal(t, "s-remote", s.ID)
	assert.Equal(t, "till-2", s.TerminalID)
	assert.Equal(t, model.PaymentMobileMoney, s.PaymentMethod)
	assert.InDelta(t, 12.5, s.TotalAmount, 1e-9)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 2, s.Items[0].Quantity)
}
