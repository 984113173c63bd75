package notify

import (
	"context"

	"github.com/google/uuid"
)

// Event types published on the per-hotel channel. Front-of-house clients
// subscribe to refresh calendars and dashboards without polling.
const (
	EventReservationCreated = "reservation-created"
	EventReservationUpdated = "reservation-updated"
	EventReservationDeleted = "reservation-deleted"
	EventRoomStatusUpdate   = "room-status-update"
	EventAvailabilityRolled = "availability-rolled"
)

// Fanout delivers domain events to whoever is listening on the hotel's
// channel. Publishing is best-effort: a failed publish must never fail the
// business operation that triggered it.
type Fanout interface {
	Publish(ctx context.Context, hotelID uuid.UUID, eventType string, payload interface{}) error
	Close() error
}

// NopFanout discards every event. Used in tests and when no broker is
// configured.
type NopFanout struct{}

func (NopFanout) Publish(context.Context, uuid.UUID, string, interface{}) error { return nil }
func (NopFanout) Close() error { return nil }
