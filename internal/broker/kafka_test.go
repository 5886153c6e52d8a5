package broker

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestCloseAllClosesEverythingAndCombinesErrors(t *testing.T) {
	a := &closer{err: errors.New("reader")}
	b := &closer{}
	c := &closer{err: errors.New("writer")}

	err := CloseAll(a, b, nil, c)

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.True(t, c.closed)
	assert.Len(t, multierr.Errors(err), 2)
	assert.NoError(t, CloseAll(&closer{}))
}

func TestProducerClosesWithoutConnecting(t *testing.T) {
	cfg := &Config{Brokers: []string{"localhost:9092"}, Topic: "pharmacy.sales.events", GroupID: "test"}
	var _ io.Closer = (*KafkaConsumer)(nil)
	assert.NoError(t, CloseAll(NewProducer(cfg)))
}
