package models

import (
	"time"

	"github.com/bradfitz/latlong"
	"github.com/google/uuid"
)

// Hotel is the tenancy root: rooms, units, rates and reservations all hang
// off one hotel. Notification channels are scoped per hotel id.
type Hotel struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	TimeZone  string    `json:"time_zone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location resolves the hotel's IANA timezone, falling back to a coordinate
// lookup when onboarding never set one.
func (h *Hotel) Location() *time.Location {
	tz := h.TimeZone
	if tz == "" {
		tz = latlong.LookupZoneName(h.Latitude, h.Longitude)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
