// Package graph implements the workflow state machine tying classification,
// retrieval, reservation collection, approval and storage into one run:
//
//	initialize → router → {rag | collection | status_check} →
//	    [approval → storage?] → response
//
// Every node catches its own failures and encodes them into the workflow
// state; no error escapes a node boundary, and every run reaches the
// response node.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkbot/internal/classifier"
	"parkbot/internal/database"
	"parkbot/internal/domain"
	"parkbot/internal/events"
	"parkbot/internal/models"
	"parkbot/internal/parser"

	"github.com/rs/zerolog"
)

const clarifyFormat = "I couldn't parse the reservation details.\n" +
	"Format: reserve <FirstName> <LastName> <VehicleID> <Dates>\n\n" +
	"Examples:\n" +
	"  English:  reserve John Smith ABC123 from 5 march to 12 march 2026\n" +
	"  Russian:  reserve Иван Петров RS1234 с 5 по 12 июля 2026"

// Config tunes the bounded approval wait loop. The production default is
// short on purpose: a human approver answers via the status-check path.
type Config struct {
	ApprovalWait time.Duration
	PollInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.ApprovalWait <= 0 {
		c.ApprovalWait = models.DefaultApprovalWaitSeconds * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = models.DefaultApprovalPollMillis * time.Millisecond
	}
}

// Graph drives one workflow run at a time; a WorkflowState is owned by
// exactly one run. The registry and stores behind the interfaces are the
// only state shared across runs.
type Graph struct {
	retriever    domain.Retriever
	registry     domain.ApprovalRegistry
	reservations domain.ReservationStore
	bus          domain.EventPublisher
	cfg          Config
	logger       *zerolog.Logger
}

func New(
	retriever domain.Retriever,
	registry domain.ApprovalRegistry,
	reservations domain.ReservationStore,
	bus domain.EventPublisher,
	cfg Config,
	logger *zerolog.Logger,
) *Graph {
	cfg.applyDefaults()
	if bus == nil {
		bus = events.NewEventBus()
	}
	return &Graph{
		retriever:    retriever,
		registry:     registry,
		reservations: reservations,
		bus:          bus,
		cfg:          cfg,
		logger:       logger,
	}
}

// Run executes the full state machine on st and returns it. Exactly one of
// the rag, reservation, status-check or fallback paths executes.
func (g *Graph) Run(ctx context.Context, st *models.WorkflowState) *models.WorkflowState {
	g.nodeInitialize(st)
	g.nodeRouter(st)

	switch st.RequestType {
	case models.TypeInfo:
		g.nodeRAG(ctx, st)
	case models.TypeReservation:
		g.nodeCollection(st)
		if st.Reservation != nil {
			g.nodeApproval(ctx, st)
			if st.ApprovalStatus() == models.StatusApproved {
				g.nodeStorage(ctx, st)
			}
		}
	case models.TypeStatusCheck:
		g.nodeStatusCheck(ctx, st)
	}

	g.nodeResponse(st)
	return st
}

func (g *Graph) nodeInitialize(st *models.WorkflowState) {
	if st.Errors == nil {
		st.Errors = []string{}
	}
	if st.Trace == nil {
		st.Trace = []string{}
	}
	st.Visit(models.NodeInitialize)
}

func (g *Graph) nodeRouter(st *models.WorkflowState) {
	st.Visit(models.NodeRouter)

	result := classifier.Classify(st.Input.Message)
	st.RequestType = result.Type
	st.LookupID = result.RequestID

	// Fallback extraction straight from the raw text, for ids the
	// classifier missed (e.g. lowercase prefix).
	if st.RequestType == models.TypeStatusCheck && st.LookupID == "" {
		st.LookupID = classifier.ExtractRequestIDLoose(st.Input.Message)
	}
}

func (g *Graph) nodeRAG(ctx context.Context, st *models.WorkflowState) {
	st.Visit(models.NodeRAG)

	answer, err := g.retriever.Answer(ctx, st.Input.Message)
	if err != nil {
		st.Fail("rag", err)
		st.Final = "Sorry, I couldn't retrieve information about that. Please try again."
		return
	}

	st.RAG = &models.RAGResponse{Answer: answer, Confidence: 0.8}
	st.Final = "🤖 " + answer
}

func (g *Graph) nodeCollection(st *models.WorkflowState) {
	st.Visit(models.NodeCollection)

	parsed := parser.Parse(st.Input.Message)
	if parsed == nil {
		// Normal outcome, not a failure: ask the user to rephrase and
		// skip straight to response. No approval without structured data.
		st.Final = clarifyFormat
		return
	}

	st.Reservation = &models.ReservationDetails{
		Name:      parsed.Name,
		Surname:   parsed.Surname,
		VehicleID: parsed.VehicleID,
		Start:     parsed.Start,
		End:       parsed.End,
	}
}

func (g *Graph) nodeApproval(ctx context.Context, st *models.WorkflowState) {
	st.Visit(models.NodeApproval)

	requestID, err := g.registry.Submit(ctx, st.Reservation)
	if err != nil {
		st.Fail("approval", err)
		st.Approval = &models.ApprovalResult{
			Status:    models.StatusError,
			AdminNote: err.Error(),
			DecidedAt: time.Now(),
		}
		return
	}

	st.Approval = g.awaitDecision(ctx, requestID)
}

// awaitDecision polls for a decision inside a short bounded window. When
// the window closes the request is simply still pending; the caller is
// told to use the status-check path later.
func (g *Graph) awaitDecision(ctx context.Context, requestID string) *models.ApprovalResult {
	deadline := time.Now().Add(g.cfg.ApprovalWait)

	for {
		if _, err := g.registry.ApplyDecisions(ctx); err != nil {
			g.logger.Warn().Err(err).Msg("decision processing failed during approval wait")
		}

		req, err := g.registry.Get(ctx, requestID)
		if err == nil && req.Terminal() {
			return &models.ApprovalResult{
				RequestID: req.ID,
				Status:    req.Status,
				AdminNote: req.AdminNote,
				DecidedAt: req.DecidedAt,
			}
		}

		if time.Now().After(deadline) || ctx.Err() != nil {
			return &models.ApprovalResult{RequestID: requestID, Status: models.StatusPending}
		}

		select {
		case <-ctx.Done():
		case <-time.After(g.cfg.PollInterval):
		}
	}
}

func (g *Graph) nodeStorage(ctx context.Context, st *models.WorkflowState) {
	st.Visit(models.NodeStorage)

	res := &models.StoredReservation{
		ID:          st.Approval.RequestID,
		DisplayName: st.Reservation.Name + " " + st.Reservation.Surname,
		VehicleID:   st.Reservation.VehicleID,
		StartDate:   st.Reservation.Start.Format("2006-01-02"),
		EndDate:     st.Reservation.End.Format("2006-01-02"),
		DecidedAt:   st.Approval.DecidedAt,
	}

	if err := g.reservations.SaveReservation(ctx, res); err != nil {
		// Storage failure never changes the already-decided approval.
		st.Fail("storage", err)
		st.Storage = models.StorageOutcome{Saved: false, Message: "⚠️ Could not save reservation to the store"}
		return
	}

	st.Storage = models.StorageOutcome{Saved: true, Message: "✅ Reservation saved: " + res.ID}
	_ = g.bus.PublishJSON(events.EventReservationStored, res)
}

func (g *Graph) nodeStatusCheck(ctx context.Context, st *models.WorkflowState) {
	st.Visit(models.NodeStatusCheck)

	// Pull in any decisions that arrived since the last run so the
	// lookup sees the latest status.
	if _, err := g.registry.ApplyDecisions(ctx); err != nil {
		st.Fail("status_check", err)
	}

	if st.LookupID == "" {
		st.Final = "❌ I couldn't find a request ID. " +
			"Please provide one like: 'status REQ-20260225225539-001'"
		return
	}

	req, err := g.registry.Get(ctx, st.LookupID)
	if errors.Is(err, database.ErrNotFound) {
		st.Final = fmt.Sprintf("❌ Request %s not found. Please check the ID and try again.", st.LookupID)
		return
	}
	if err != nil {
		st.Fail("status_check", err)
		st.Final = "Sorry, I couldn't check that request right now. Please try again."
		return
	}

	parts := []string{
		fmt.Sprintf("📋 Request %s", req.ID),
		fmt.Sprintf("Status: %s", strings.ToUpper(req.Status)),
	}
	if req.AdminNote != "" {
		parts = append(parts, "Details: "+req.AdminNote)
	}
	if !req.DecidedAt.IsZero() {
		parts = append(parts, "Decided at: "+req.DecidedAt.Format(time.RFC3339))
	}
	st.Final = strings.Join(parts, "\n")
}

func (g *Graph) nodeResponse(st *models.WorkflowState) {
	st.Visit(models.NodeResponse)

	switch st.RequestType {
	case models.TypeInfo:
		// Already set by the rag node, including its degraded answer.

	case models.TypeReservation:
		if st.Approval == nil {
			// Parse failure: the clarifying message is preserved.
			return
		}
		switch st.Approval.Status {
		case models.StatusApproved:
			st.Final = fmt.Sprintf(
				"✅ Your reservation has been APPROVED!\nRequest ID: %s\n%s\nThank you for using our parking service!",
				st.Approval.RequestID, st.Storage.Message,
			)
		case models.StatusRejected:
			note := st.Approval.AdminNote
			if note == "" {
				note = "No feedback provided"
			}
			st.Final = fmt.Sprintf(
				"❌ Your reservation was REJECTED.\nRequest ID: %s\nFeedback: %s\nPlease try again or contact support.",
				st.Approval.RequestID, note,
			)
		case models.StatusError:
			st.Final = "⚠️ Something went wrong while submitting your reservation. Please try again."
		default:
			st.Final = fmt.Sprintf(
				"⏳ Your reservation is pending review.\nRequest ID: %s\nCheck later with: status %s",
				st.Approval.RequestID, st.Approval.RequestID,
			)
		}

	case models.TypeStatusCheck:
		if st.Final == "" {
			st.Final = "Status check completed."
		}

	default:
		st.Final = "I didn't understand your request. Try:\n" +
			"- 'info' to ask about parking\n" +
			"- 'reserve' to make a reservation\n" +
			"- 'status REQ-...' to check a request"
	}
}
