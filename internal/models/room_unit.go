package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusBooked      RoomStatus = "BOOKED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

type CleaningStatus string

const (
	CleaningStatusClean         CleaningStatus = "CLEAN"
	CleaningStatusNeedsCleaning CleaningStatus = "NEEDS_CLEANING"
	CleaningStatusInProgress    CleaningStatus = "IN_PROGRESS"
)

// RoomUnit is one physically bookable room. Status is the unit's current
// state; DailyStatus is the fiscal-year day projection used by search and
// calendar views, one entry per day starting at AvailabilityStartDate.
// Invariant: len(DailyStatus) equals the day count from
// AvailabilityStartDate to the next fiscal year boundary (365 or 366).
type RoomUnit struct {
	ID         uuid.UUID `json:"id"`
	HotelID    uuid.UUID `json:"hotel_id"`
	RoomID     uuid.UUID `json:"room_id"`
	RoomNumber string    `json:"room_number"`
	Floor      string    `json:"floor"`

	Status         RoomStatus     `json:"status"`
	CleaningStatus CleaningStatus `json:"cleaning_status"`

	AvailabilityStartDate *time.Time   `json:"availability_start_date,omitempty"`
	DailyStatus           []RoomStatus `json:"daily_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
