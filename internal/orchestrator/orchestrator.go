// Package orchestrator is the stateless-per-call driver over the workflow
// graph: it builds the initial state, runs the graph and records history.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"parkbot/internal/graph"
	"parkbot/internal/metrics"
	"parkbot/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is what a caller gets back from one workflow run. The facade
// never returns an error: worst case is an unknown-typed response.
type Result struct {
	FinalResponse  string   `json:"final_response"`
	WorkflowID     string   `json:"workflow_id"`
	RequestID      string   `json:"request_id,omitempty"`
	RequestType    string   `json:"request_type"`
	ApprovalStatus string   `json:"approval_status,omitempty"`
	StorageOK      bool     `json:"storage_ok"`
	StorageMessage string   `json:"storage_message,omitempty"`
	Trace          []string `json:"trace"`
	Errors         []string `json:"errors"`
}

// HistoryEntry records one processed call.
type HistoryEntry struct {
	WorkflowID string    `json:"workflow_id"`
	UserID     string    `json:"user_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Result     *Result   `json:"result"`
}

// Orchestrator drives workflow runs and keeps an append-only in-memory
// history keyed by workflow id.
type Orchestrator struct {
	graph   *graph.Graph
	metrics *metrics.Metrics
	logger  *zerolog.Logger

	mu      sync.RWMutex
	history map[string]*HistoryEntry
	order   []string
}

func New(g *graph.Graph, m *metrics.Metrics, logger *zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		graph:   g,
		metrics: m,
		logger:  logger,
		history: make(map[string]*HistoryEntry),
	}
}

// Process runs one message through the workflow. It is a pure function of
// its inputs plus the shared registry/channel state, and never returns an
// error for well-formed calls.
func (o *Orchestrator) Process(ctx context.Context, message, userID string) *Result {
	start := time.Now()

	st := &models.WorkflowState{
		WorkflowID: newWorkflowID(),
		Input: models.UserInput{
			UserID:    userID,
			Message:   message,
			Timestamp: start,
		},
		RequestType: models.TypeUnknown,
	}

	st = o.graph.Run(ctx, st)

	result := &Result{
		FinalResponse:  st.Final,
		WorkflowID:     st.WorkflowID,
		RequestType:    st.RequestType,
		ApprovalStatus: st.ApprovalStatus(),
		StorageOK:      st.Storage.Saved,
		StorageMessage: st.Storage.Message,
		Trace:          st.Trace,
		Errors:         st.Errors,
	}
	if st.Approval != nil {
		result.RequestID = st.Approval.RequestID
	}

	if o.metrics != nil {
		o.metrics.ObserveWorkflow(st.RequestType, st.ApprovalStatus(), len(st.Errors), time.Since(start))
	}

	o.record(&HistoryEntry{
		WorkflowID: st.WorkflowID,
		UserID:     userID,
		Message:    message,
		Timestamp:  start,
		Result:     result,
	})

	o.logger.Info().
		Str("workflow_id", st.WorkflowID).
		Str("user_id", userID).
		Str("request_type", st.RequestType).
		Str("path", strings.Join(st.Trace, " > ")).
		Int("errors", len(st.Errors)).
		Msg("request processed")

	return result
}

func (o *Orchestrator) record(entry *HistoryEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history[entry.WorkflowID] = entry
	o.order = append(o.order, entry.WorkflowID)
}

// GetHistory returns the record for a workflow id.
func (o *Orchestrator) GetHistory(workflowID string) (*HistoryEntry, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.history[workflowID]
	return entry, ok
}

// ListHistory returns all processed calls in arrival order.
func (o *Orchestrator) ListHistory() []*HistoryEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entries := make([]*HistoryEntry, 0, len(o.order))
	for _, id := range o.order {
		entries = append(entries, o.history[id])
	}
	return entries
}

func newWorkflowID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", models.WorkflowIDPrefix, time.Now().Format("20060102150405"), suffix)
}
