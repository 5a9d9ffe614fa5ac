// Package worker runs background maintenance for the approval pipeline:
// a periodic pump that applies buffered approver decisions to the
// registry, so statuses advance even when nobody is mid-workflow.
package worker

import (
	"context"
	"time"

	"parkbot/internal/domain"
	"parkbot/internal/metrics"

	"github.com/rs/zerolog"
)

const (
	defaultPumpInterval = 5 * time.Second
	defaultRetryDelay   = 500 * time.Millisecond
	defaultMaxRetries   = 3
)

// DecisionWorker periodically drains the approval channel through the
// registry. A failed drain is retried with doubling delays inside the
// same tick; once the retry budget is spent the decisions stay buffered
// for the next tick.
type DecisionWorker struct {
	registry   domain.DecisionApplier
	interval   time.Duration
	maxRetries int
	retryDelay time.Duration
	metrics    *metrics.Metrics
	logger     *zerolog.Logger
}

func NewDecisionWorker(registry domain.DecisionApplier, interval time.Duration, maxRetries int, m *metrics.Metrics, logger *zerolog.Logger) *DecisionWorker {
	if interval <= 0 {
		interval = defaultPumpInterval
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &DecisionWorker{
		registry:   registry,
		interval:   interval,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		metrics:    m,
		logger:     logger,
	}
}

// Start blocks until ctx is cancelled.
func (w *DecisionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("decision worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("decision worker stopping")
			return
		case <-ticker.C:
			w.pump(ctx)
		}
	}
}

func (w *DecisionWorker) pump(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		applied, err := w.registry.ApplyDecisions(ctx)
		if applied > 0 {
			w.logger.Info().Int("applied", applied).Msg("decisions applied")
			if w.metrics != nil {
				w.metrics.DecisionsApplied.Add(float64(applied))
			}
		}
		if err == nil {
			return
		}

		w.logger.Error().Err(err).Int("attempt", attempt).Msg("decision pump failed")
		if attempt > w.maxRetries {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.nextDelay(attempt)):
		}
	}
}

// nextDelay doubles per failed attempt but never exceeds the pump
// interval: past that point the next tick retries anyway.
func (w *DecisionWorker) nextDelay(attempt int) time.Duration {
	delay := w.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= w.interval {
			break
		}
	}
	if delay > w.interval {
		delay = w.interval
	}
	return delay
}
