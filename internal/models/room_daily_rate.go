package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomDailyRate holds one fiscal year of prices for a room-type/rate-plan
// combination, indexed the same way as RoomUnit.DailyStatus: Prices[i] is
// the price for the i-th day after YearStart. A price of 0 means the day is
// not sellable, independent of unit status.
type RoomDailyRate struct {
	ID       uuid.UUID `json:"id"`
	HotelID  uuid.UUID `json:"hotel_id"`
	RoomID   uuid.UUID `json:"room_id"`
	RoomType string    `json:"room_type"`
	RatePlan string    `json:"rate_plan"`

	YearStart time.Time `json:"year_start"`
	Prices    []float64 `json:"prices"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
