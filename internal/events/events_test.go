package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received RequestEventPayload
	bus.Subscribe(EventRequestApproved, func(ev *Event) error {
		return json.Unmarshal(ev.Payload, &received)
	})

	payload := RequestEventPayload{
		RequestID: "REQ-20260305100000-001",
		Status:    "approved",
		Reason:    "ok",
	}
	require.NoError(t, bus.PublishJSON(EventRequestApproved, payload))

	assert.Equal(t, payload.RequestID, received.RequestID)
	assert.Equal(t, "approved", received.Status)
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventRequestSubmitted, func(*Event) error {
			calls++
			return nil
		})
	}

	bus.Publish(&Event{Type: EventRequestSubmitted})
	assert.Equal(t, 3, calls)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	reached := false
	bus.Subscribe(EventRequestRejected, func(*Event) error { return errors.New("boom") })
	bus.Subscribe(EventRequestRejected, func(*Event) error {
		reached = true
		return nil
	})

	bus.Publish(&Event{Type: EventRequestRejected})
	assert.True(t, reached)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	bus := NewEventBus()
	require.NoError(t, bus.PublishJSON(EventReservationStored, map[string]string{"id": "x"}))
}

func TestEventBus_SetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	var got time.Time
	bus.Subscribe(EventRequestSubmitted, func(ev *Event) error {
		got = ev.CreatedAt
		return nil
	})

	bus.Publish(&Event{Type: EventRequestSubmitted})
	assert.False(t, got.IsZero())
}

func TestEventBus_NilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventRequestSubmitted, "x"))
}
