package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkbot/internal/models"
)

// SaveRequest upserts the full request row. Every registry write is a
// full-row upsert; the request_id primary key makes it idempotent.
func (db *DB) SaveRequest(ctx context.Context, req *models.ReservationRequest) error {
	query := `
        INSERT OR REPLACE INTO reservation_requests
        (request_id, name, surname, vehicle_id, period_start, period_end, status, admin_note, created_at, decided_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	var decidedAt interface{}
	if !req.DecidedAt.IsZero() {
		decidedAt = req.DecidedAt
	}

	_, err := db.db.ExecContext(ctx, query,
		req.ID,
		req.Name,
		req.Surname,
		req.VehicleID,
		req.Start,
		req.End,
		req.Status,
		req.AdminNote,
		req.CreatedAt,
		decidedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// GetRequest returns a request by id, or ErrNotFound.
func (db *DB) GetRequest(ctx context.Context, id string) (*models.ReservationRequest, error) {
	query := `
        SELECT request_id, name, surname, vehicle_id, period_start, period_end, status, admin_note, created_at, decided_at
        FROM reservation_requests WHERE request_id = ?
    `

	req, err := scanRequest(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ListRequests returns requests newest-first, optionally filtered by status.
func (db *DB) ListRequests(ctx context.Context, status string) ([]*models.ReservationRequest, error) {
	query := `
        SELECT request_id, name, surname, vehicle_id, period_start, period_end, status, admin_note, created_at, decided_at
        FROM reservation_requests
    `
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ReservationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*models.ReservationRequest, error) {
	var req models.ReservationRequest
	var note sql.NullString
	var decidedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Surname,
		&req.VehicleID,
		&req.Start,
		&req.End,
		&req.Status,
		&note,
		&req.CreatedAt,
		&decidedAt,
	)
	if err != nil {
		return nil, err
	}

	req.AdminNote = note.String
	if decidedAt.Valid {
		req.DecidedAt = decidedAt.Time
	}
	return &req, nil
}
