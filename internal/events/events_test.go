package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventReservationCreated, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := ReservationEventPayload{ReservationID: 20, BookingID: 10, RoomTypeID: 1, RoomsBooked: 2}
	require.NoError(t, bus.PublishJSON(EventReservationCreated, payload))

	require.Len(t, received, 1)
	var got ReservationEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, int64(20), got.ReservationID)
	assert.False(t, received[0].CreatedAt.IsZero())
}

func TestEventBus_OnlyMatchingSubscribers(t *testing.T) {
	bus := NewEventBus()

	created := 0
	cancelled := 0
	bus.Subscribe(EventReservationCreated, func(*Event) error { created++; return nil })
	bus.Subscribe(EventReservationCancelled, func(*Event) error { cancelled++; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationCancelled, ReservationEventPayload{}))
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, cancelled)
}

func TestEventBus_NilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventCapacityChanged, CapacityEventPayload{RoomTypeID: 1}))
}
