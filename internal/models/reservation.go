package models

import (
	"time"

	"github.com/google/uuid"
)

type ReservationState string

const (
	ReservationStateConfirmed ReservationState = "CONFIRMED"
	ReservationStateCheckedIn ReservationState = "CHECKED_IN"
	ReservationStateCancelled ReservationState = "CANCELLED"
	ReservationStateNoShow    ReservationState = "NO_SHOW"
)

// Active reports whether this record still occupies its room unit.
// Cancelled and no-show reservations never count toward conflicts.
func (s ReservationState) Active() bool {
	return s != ReservationStateCancelled && s != ReservationStateNoShow
}

// Reservation is a stay (or a synthetic maintenance block) holding exactly
// one primary room unit for the half-open interval [CheckIn, CheckOut).
// Invariant: CheckOut > CheckIn strictly, Nights >= 1.
type Reservation struct {
	ID      uuid.UUID        `json:"id"`
	HotelID uuid.UUID        `json:"hotel_id"`
	State   ReservationState `json:"state"`

	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Nights   int       `json:"nights"`

	RoomType string `json:"room_type"`
	RatePlan string `json:"rate_plan"`
	Guests   int    `json:"guests"`
	Rooms    int    `json:"rooms"`
	RoomNo   string `json:"room_no"`

	RoomUnitID       *uuid.UUID  `json:"room_unit_id,omitempty"`
	ConnectedRoomIDs []uuid.UUID `json:"connected_room_ids,omitempty"`
	IsMaintenance    bool        `json:"is_maintenance"`

	GuestName      string     `json:"guest_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	DOB            *time.Time `json:"dob,omitempty"`
	Address        string     `json:"address,omitempty"`
	City           string     `json:"city,omitempty"`
	Country        string     `json:"country,omitempty"`
	IDDetail       string     `json:"id_detail,omitempty"`
	SpecialRequest string     `json:"special_request,omitempty"`

	BookedBy        string  `json:"booked_by,omitempty"`
	BusinessSegment string  `json:"business_segment,omitempty"`
	PaymentMode     string  `json:"payment_mode,omitempty"`
	PerDayRate      float64 `json:"per_day_rate"`
	PerDayTax       float64 `json:"per_day_tax"`
	TaxInclusive    bool    `json:"tax_inclusive"`
	TotalAmount     float64 `json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StayNights derives the billed night count, ceiling partial days.
func StayNights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}
