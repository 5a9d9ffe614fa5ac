// Package registry owns the reservation request ledger: id generation,
// submission, status lookup and decision application.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parkbot/internal/database"
	"parkbot/internal/domain"
	"parkbot/internal/events"
	"parkbot/internal/models"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get for unknown request ids.
var ErrNotFound = database.ErrNotFound

// Registry is the sole owner of ReservationRequest records. Records are
// never deleted; decisions move them to exactly one terminal status.
type Registry struct {
	store   domain.RequestStore
	channel domain.ApprovalChannel
	bus     domain.EventPublisher
	logger  *zerolog.Logger

	// mu guards the id counter and serializes decision application:
	// ApplyDecisions runs concurrently from the worker, the approval wait
	// loop and status checks, and its read-modify-write on request rows
	// must not interleave.
	mu  sync.Mutex
	seq int
	now func() time.Time
}

func New(store domain.RequestStore, ch domain.ApprovalChannel, bus domain.EventPublisher, logger *zerolog.Logger) *Registry {
	if bus == nil {
		bus = events.NewEventBus()
	}
	return &Registry{
		store:   store,
		channel: ch,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

// nextID returns a fresh request id: REQ-<yyyymmddhhmmss>-<seq>. The
// counter increment and id assignment are one atomic unit so concurrent
// submissions always receive distinct ids. The sequence resets with
// process restart.
func (r *Registry) nextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("%s-%s-%03d", models.RequestIDPrefix, r.now().Format("20060102150405"), r.seq)
}

// Submit persists a new pending request and notifies the approval channel.
// The id is returned even when the notification fails: the request stays
// pending and can be decided later. Only a store failure is an error.
func (r *Registry) Submit(ctx context.Context, details *models.ReservationDetails) (string, error) {
	req := &models.ReservationRequest{
		ID:        r.nextID(),
		Name:      details.Name,
		Surname:   details.Surname,
		VehicleID: details.VehicleID,
		Start:     details.Start,
		End:       details.End,
		Status:    models.StatusPending,
		CreatedAt: r.now(),
	}

	if err := r.store.SaveRequest(ctx, req); err != nil {
		return "", fmt.Errorf("submit request: %w", err)
	}

	if !r.channel.Send(ctx, req) {
		r.logger.Warn().Str("request_id", req.ID).Msg("could not notify approver; request stays pending")
		_ = r.bus.PublishJSON(events.EventNotificationFailure, payloadFor(req, ""))
	}

	_ = r.bus.PublishJSON(events.EventRequestSubmitted, payloadFor(req, ""))
	return req.ID, nil
}

// Get returns the request with the given id, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*models.ReservationRequest, error) {
	return r.store.GetRequest(ctx, id)
}

// List returns requests newest-first, optionally filtered by status.
func (r *Registry) List(ctx context.Context, status string) ([]*models.ReservationRequest, error) {
	return r.store.ListRequests(ctx, status)
}

// ApplyDecisions drains the channel and applies each decision to its
// pending request. Decisions for unknown ids are ignored (they may be
// duplicates or late arrivals for already-processed work), and a terminal
// status never reverts or changes. Returns the number of requests updated.
func (r *Registry) ApplyDecisions(ctx context.Context) (int, error) {
	decisions := r.channel.Poll()
	if len(decisions) == 0 {
		return 0, nil
	}

	// Without this lock two concurrent drains holding contradictory
	// decisions for the same id could both read pending, both pass the
	// Terminal check and overwrite each other's terminal status.
	r.mu.Lock()
	defer r.mu.Unlock()

	processed := 0
	var firstErr error

	for _, d := range decisions {
		req, err := r.store.GetRequest(ctx, d.RequestID)
		if errors.Is(err, ErrNotFound) {
			r.logger.Debug().Str("request_id", d.RequestID).Msg("decision for unknown request ignored")
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if req.Terminal() {
			r.logger.Debug().Str("request_id", req.ID).Str("status", req.Status).Msg("decision for decided request ignored")
			continue
		}

		eventType := events.EventRequestRejected
		req.Status = models.StatusRejected
		if d.Approved {
			req.Status = models.StatusApproved
			eventType = events.EventRequestApproved
		}
		req.AdminNote = d.Reason
		req.DecidedAt = r.now()

		if err := r.store.SaveRequest(ctx, req); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		_ = r.bus.PublishJSON(eventType, payloadFor(req, d.Reason))
		processed++
	}

	return processed, firstErr
}

func payloadFor(req *models.ReservationRequest, reason string) events.RequestEventPayload {
	return events.RequestEventPayload{
		RequestID:   req.ID,
		DisplayName: req.DisplayName(),
		VehicleID:   req.VehicleID,
		Status:      req.Status,
		Reason:      reason,
		PeriodStart: req.Start,
		PeriodEnd:   req.End,
	}
}
