package domain

import (
	"context"

	"parkbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RequestStore persists the approval request ledger.
type RequestStore interface {
	SaveRequest(ctx context.Context, req *models.ReservationRequest) error
	GetRequest(ctx context.Context, id string) (*models.ReservationRequest, error)
	ListRequests(ctx context.Context, status string) ([]*models.ReservationRequest, error)
}

// ReservationStore persists approved reservations.
type ReservationStore interface {
	SaveReservation(ctx context.Context, res *models.StoredReservation) error
	GetReservation(ctx context.Context, id string) (*models.StoredReservation, error)
	ListReservations(ctx context.Context) ([]*models.StoredReservation, error)
}

// ApprovalChannel notifies an approver and buffers their decisions.
// Send is best-effort: false means the notification did not go out but the
// request stays valid and pending. Poll drains buffered decisions and never
// blocks.
type ApprovalChannel interface {
	Send(ctx context.Context, req *models.ReservationRequest) bool
	Poll() []models.ApprovalDecision
	Close() error
}

// ApprovalRegistry is the fixed call surface over the request ledger.
type ApprovalRegistry interface {
	Submit(ctx context.Context, details *models.ReservationDetails) (string, error)
	Get(ctx context.Context, id string) (*models.ReservationRequest, error)
	List(ctx context.Context, status string) ([]*models.ReservationRequest, error)
	ApplyDecisions(ctx context.Context) (int, error)
}

// DecisionApplier is the slice of the registry the background worker needs.
type DecisionApplier interface {
	ApplyDecisions(ctx context.Context) (int, error)
}

// Retriever answers information queries from the document store.
type Retriever interface {
	Answer(ctx context.Context, query string) (string, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TelegramSender is the bot API slice the Telegram channel depends on.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}
