package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkbot/internal/models"
)

// SaveReservation upserts an approved reservation row.
func (db *DB) SaveReservation(ctx context.Context, res *models.StoredReservation) error {
	query := `
        INSERT OR REPLACE INTO reservations
        (id, display_name, vehicle_id, start_date, end_date, decided_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.db.ExecContext(ctx, query,
		res.ID,
		res.DisplayName,
		res.VehicleID,
		res.StartDate,
		res.EndDate,
		res.DecidedAt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// GetReservation returns a stored reservation by id, or ErrNotFound.
func (db *DB) GetReservation(ctx context.Context, id string) (*models.StoredReservation, error) {
	query := `
        SELECT id, display_name, vehicle_id, start_date, end_date, decided_at, created_at
        FROM reservations WHERE id = ?
    `

	var res models.StoredReservation
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID,
		&res.DisplayName,
		&res.VehicleID,
		&res.StartDate,
		&res.EndDate,
		&res.DecidedAt,
		&res.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

// ListReservations returns stored reservations by insertion recency.
func (db *DB) ListReservations(ctx context.Context) ([]*models.StoredReservation, error) {
	query := `
        SELECT id, display_name, vehicle_id, start_date, end_date, decided_at, created_at
        FROM reservations ORDER BY created_at DESC
    `

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.StoredReservation
	for rows.Next() {
		var res models.StoredReservation
		err := rows.Scan(
			&res.ID,
			&res.DisplayName,
			&res.VehicleID,
			&res.StartDate,
			&res.EndDate,
			&res.DecidedAt,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, &res)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
