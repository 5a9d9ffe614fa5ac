// Package channel implements the approval channel variants: a simulator
// that auto-decides after a delay and a Telegram bridge to a human admin.
// Decision arrival is asynchronous and channel-specific; decision
// processing is synchronous and pulled by the registry via Poll.
package channel

import (
	"context"
	"sync"
	"time"

	"parkbot/internal/models"
)

// SimulatedChannel approves (or rejects) requests after a configurable
// delay, with no external dependencies. Each Send schedules one decision
// task; tasks are cancelled and joined on Close.
type SimulatedChannel struct {
	autoApprove bool
	delay       time.Duration

	mu        sync.Mutex
	decisions []models.ApprovalDecision

	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

func NewSimulatedChannel(autoApprove bool, delay time.Duration) *SimulatedChannel {
	if delay <= 0 {
		delay = time.Duration(models.DefaultSimulatedDelayMillis) * time.Millisecond
	}
	return &SimulatedChannel{
		autoApprove: autoApprove,
		delay:       delay,
		done:        make(chan struct{}),
	}
}

// Send schedules the simulated admin review. Always succeeds.
func (c *SimulatedChannel) Send(ctx context.Context, req *models.ReservationRequest) bool {
	if !c.autoApprove {
		return true
	}

	c.wg.Add(1)
	go func(id string) {
		defer c.wg.Done()
		select {
		case <-c.done:
		case <-time.After(c.delay):
			c.AddDecision(models.ApprovalDecision{
				RequestID: id,
				Approved:  true,
				Reason:    "Auto-approved by simulator",
			})
		}
	}(req.ID)

	return true
}

// AddDecision buffers a decision directly, bypassing the delay. Used by
// tests and manual overrides.
func (c *SimulatedChannel) AddDecision(d models.ApprovalDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = append(c.decisions, d)
}

// Poll drains all buffered decisions.
func (c *SimulatedChannel) Poll() []models.ApprovalDecision {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.decisions
	c.decisions = nil
	return drained
}

// Close cancels pending decision tasks and waits for them to finish.
func (c *SimulatedChannel) Close() error {
	c.closed.Do(func() { close(c.done) })
	c.wg.Wait()
	return nil
}
