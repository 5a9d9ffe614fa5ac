package models

import (
	"fmt"
	"time"
)

// ReservationRequest is one user's reservation ask as tracked by the
// approval registry. The registry owns the record for its whole lifetime;
// workflow runs keep only the id.
type ReservationRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	VehicleID string    `json:"vehicle_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	AdminNote string    `json:"admin_note"`
	CreatedAt time.Time `json:"created_at"`
	DecidedAt time.Time `json:"decided_at"` // zero until a decision is made
}

// Terminal reports whether the request has reached a final status.
func (r *ReservationRequest) Terminal() bool {
	return r.Status != "" && r.Status != StatusPending
}

// DisplayName is the full name used in notifications and storage rows.
func (r *ReservationRequest) DisplayName() string {
	return r.Name + " " + r.Surname
}

// Period renders the reservation window in the canonical form,
// e.g. "2026-03-05 10:00 - 2026-03-12 12:00".
func (r *ReservationRequest) Period() string {
	return fmt.Sprintf("%s - %s", r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
}

// ApprovalDecision is an external verdict for a request. Decisions are
// ephemeral: produced by a channel, consumed once by the registry.
type ApprovalDecision struct {
	RequestID string `json:"request_id"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason"`
}

// StoredReservation is the row persisted for approved reservations.
type StoredReservation struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	VehicleID   string    `json:"vehicle_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	DecidedAt   time.Time `json:"decided_at"`
	CreatedAt   time.Time `json:"created_at"`
}
