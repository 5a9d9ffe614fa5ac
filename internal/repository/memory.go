// Package repository provides in-memory implementations of the persistence
// interfaces, used in tests and as a fallback when no database is wired.
package repository

import (
	"context"
	"sort"
	"sync"

	"parkbot/internal/database"
	"parkbot/internal/models"
)

// MemoryRequestStore keeps reservation requests in memory. Safe for
// concurrent use.
type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]models.ReservationRequest
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[string]models.ReservationRequest)}
}

func (s *MemoryRequestStore) SaveRequest(ctx context.Context, req *models.ReservationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *MemoryRequestStore) GetRequest(ctx context.Context, id string) (*models.ReservationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &req, nil
}

func (s *MemoryRequestStore) ListRequests(ctx context.Context, status string) ([]*models.ReservationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []*models.ReservationRequest
	for id := range s.requests {
		req := s.requests[id]
		if status != "" && req.Status != status {
			continue
		}
		requests = append(requests, &req)
	}

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID > requests[j].ID
		}
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

// MemoryReservationStore keeps approved reservations in memory.
type MemoryReservationStore struct {
	mu    sync.RWMutex
	rows  map[string]models.StoredReservation
	order []string
}

func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{rows: make(map[string]models.StoredReservation)}
}

func (s *MemoryReservationStore) SaveReservation(ctx context.Context, res *models.StoredReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[res.ID]; !exists {
		s.order = append(s.order, res.ID)
	}
	s.rows[res.ID] = *res
	return nil
}

func (s *MemoryReservationStore) GetReservation(ctx context.Context, id string) (*models.StoredReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &res, nil
}

func (s *MemoryReservationStore) ListReservations(ctx context.Context) ([]*models.StoredReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservations := make([]*models.StoredReservation, 0, len(s.order))
	// Insertion recency: newest first.
	for i := len(s.order) - 1; i >= 0; i-- {
		res := s.rows[s.order[i]]
		reservations = append(reservations, &res)
	}
	return reservations, nil
}
