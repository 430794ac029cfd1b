package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "OilPulse/pkg/logger"
)

type stubHandler struct {
	topic string
	fails int
	calls int
	panic bool
}

func (h *stubHandler) Topic() string { return h.topic }

func (h *stubHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.panic {
		panic("boom")
	}
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, retry int) *Consumer {
	t.Helper()
	c, err := NewConsumer(applogger.Nop(),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retry, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(applogger.Nop())
	require.Error(t, err)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestStartWithoutHandlers(t *testing.T) {
	c := newTestConsumer(t, 0)
	require.Error(t, c.Start())
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c := newTestConsumer(t, 0)
	first := &stubHandler{topic: "reload"}
	c.RegisterHandler(first)
	c.RegisterHandler(&stubHandler{topic: "reload"})
	assert.Same(t, first, c.handlers["reload"])
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &stubHandler{topic: "reload", fails: 2}

	attempts, err := c.handle(h, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 2)
	h := &stubHandler{topic: "reload", fails: 10}

	attempts, err := c.handle(h, nil)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleRecoversPanic(t *testing.T) {
	c := newTestConsumer(t, 0)
	_, err := c.handle(&stubHandler{topic: "reload", panic: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 80*time.Millisecond
	for attempt := 1; attempt <= 8; attempt++ {
		exp := min << uint(attempt-1)
		if exp > max {
			exp = max
		}
		for i := 0; i < 20; i++ {
			d := backoffWithJitter(min, max, attempt)
			assert.LessOrEqual(t, d, exp)
			assert.Greater(t, d, exp/2-1)
		}
	}
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]string{"reason": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reason":"x"}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}
