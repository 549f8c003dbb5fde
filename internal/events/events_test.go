package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventAppointmentCreated, func(e *Event) error {
		received = append(received, e)
		return nil
	})

	payload := AppointmentEventPayload{
		AppointmentID: 7,
		TenantID:      1,
		StylistID:     3,
		StartTime:     time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC),
		Status:        "scheduled",
	}
	require.NoError(t, bus.PublishJSON(EventAppointmentCreated, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventAppointmentCreated, received[0].Type)
	assert.NotEmpty(t, received[0].ID)
	assert.False(t, received[0].CreatedAt.IsZero())

	require.NoError(t, bus.PublishJSON(EventAppointmentCreated, payload))
	require.Len(t, received, 2)
	assert.NotEqual(t, received[0].ID, received[1].ID, "each published event gets its own id")

	var got AppointmentEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, payload.AppointmentID, got.AppointmentID)
	assert.Equal(t, payload.StylistID, got.StylistID)
}

func TestEventBusIgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(EventAppointmentStatusChanged, func(e *Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventAppointmentCreated, AppointmentEventPayload{}))
	assert.Zero(t, calls)
}

func TestEventBusHandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(EventAppointmentCreated, func(e *Event) error {
		return errors.New("delivery failed")
	})

	assert.NoError(t, bus.PublishJSON(EventAppointmentCreated, AppointmentEventPayload{}))
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventAppointmentCreated, AppointmentEventPayload{}))
}
