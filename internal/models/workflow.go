package models

import "time"

// UserInput is the raw input driving a workflow run.
type UserInput struct {
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RAGResponse holds the retrieval answer for info requests.
type RAGResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources,omitempty"`
	Confidence float64  `json:"confidence"`
}

// ReservationDetails are the structured fields extracted on the
// reservation branch.
type ReservationDetails struct {
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	VehicleID string    `json:"vehicle_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// ApprovalResult is the outcome of the approval stage.
type ApprovalResult struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	AdminNote string    `json:"admin_note"`
	DecidedAt time.Time `json:"decided_at"`
}

// StorageOutcome records whether the approved reservation reached the store.
type StorageOutcome struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

// WorkflowState is the per-request scratch space threaded through the
// orchestration graph. Exactly one run owns a state; branch fields stay
// nil on the branches that did not execute.
type WorkflowState struct {
	WorkflowID  string              `json:"workflow_id"`
	Input       UserInput           `json:"input"`
	RequestType string              `json:"request_type"`
	LookupID    string              `json:"lookup_id,omitempty"`
	RAG         *RAGResponse        `json:"rag,omitempty"`
	Reservation *ReservationDetails `json:"reservation,omitempty"`
	Approval    *ApprovalResult     `json:"approval,omitempty"`
	Storage     StorageOutcome      `json:"storage"`
	Final       string              `json:"final_response"`
	Trace       []string            `json:"trace"`
	Errors      []string            `json:"errors"`
}

// Visit appends a node name to the trace.
func (s *WorkflowState) Visit(node string) {
	s.Trace = append(s.Trace, node)
}

// Fail records a recoverable error against a stage. Nothing inside the
// graph propagates past the node boundary; failures live here instead.
func (s *WorkflowState) Fail(stage string, err error) {
	s.Errors = append(s.Errors, stage+": "+err.Error())
}

// ApprovalStatus returns the approval outcome or empty when the approval
// stage did not run.
func (s *WorkflowState) ApprovalStatus() string {
	if s.Approval == nil {
		return ""
	}
	return s.Approval.Status
}
