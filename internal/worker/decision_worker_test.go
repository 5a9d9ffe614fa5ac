package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingApplier struct {
	calls   atomic.Int64
	applied int
	err     error
}

func (a *countingApplier) ApplyDecisions(context.Context) (int, error) {
	a.calls.Add(1)
	return a.applied, a.err
}

func newTestWorker(applier *countingApplier, interval time.Duration, maxRetries int) *DecisionWorker {
	logger := zerolog.Nop()
	w := NewDecisionWorker(applier, interval, maxRetries, nil, &logger)
	w.retryDelay = time.Millisecond
	return w
}

func TestDecisionWorker_PumpsOnInterval(t *testing.T) {
	applier := &countingApplier{applied: 1}
	w := newTestWorker(applier, 10*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	assert.GreaterOrEqual(t, applier.calls.Load(), int64(3))
}

func TestDecisionWorker_RetriesOnError(t *testing.T) {
	applier := &countingApplier{err: errors.New("store down")}
	w := newTestWorker(applier, 20*time.Millisecond, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	// One tick is 1 initial attempt + 2 retries.
	assert.GreaterOrEqual(t, applier.calls.Load(), int64(3))
}

func TestDecisionWorker_StopsOnCancel(t *testing.T) {
	applier := &countingApplier{}
	w := newTestWorker(applier, time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestNextDelay_CappedAtInterval(t *testing.T) {
	logger := zerolog.Nop()
	w := NewDecisionWorker(&countingApplier{}, 2*time.Second, 10, nil, &logger)

	assert.Equal(t, 500*time.Millisecond, w.nextDelay(1))
	assert.Equal(t, time.Second, w.nextDelay(2))
	assert.Equal(t, 2*time.Second, w.nextDelay(3))
	assert.Equal(t, 2*time.Second, w.nextDelay(8), "never past the next tick")
}

func TestNewDecisionWorker_Defaults(t *testing.T) {
	logger := zerolog.Nop()
	w := NewDecisionWorker(&countingApplier{}, 0, 0, nil, &logger)

	assert.Equal(t, defaultPumpInterval, w.interval)
	assert.Equal(t, defaultMaxRetries, w.maxRetries)
}
