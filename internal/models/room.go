package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a sellable category inside a hotel: a room-type name (e.g.
// "Deluxe") combined with a rate plan (e.g. "CP"). Physical rooms are
// RoomUnits; Room owns the list of unit numbers sold under this plan.
type Room struct {
	ID       uuid.UUID `json:"id"`
	HotelID  uuid.UUID `json:"hotel_id"`
	Name     string    `json:"name"`
	RatePlan string    `json:"rate_plan"`

	MaxGuests   int      `json:"max_guests"`
	RoomNumbers []string `json:"room_numbers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
