package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/models"
)

// CreateReservationRequest is the booking payload. Dates arrive as RFC 3339
// strings and are parsed strictly; a payload with checkOut <= checkIn is
// rejected before any repository call.
type CreateReservationRequest struct {
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`

	RoomType string   `json:"room_type" validate:"required"`
	RatePlan string   `json:"rate_plan" validate:"required"`
	RoomNo   string   `json:"room_no" validate:"required"`
	RoomNos  []string `json:"room_nos,omitempty"`
	Guests   int      `json:"guests" validate:"required,gt=0"`
	Rooms    int      `json:"rooms" validate:"required,gt=0"`

	GuestName      string `json:"guest_name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"omitempty,e164"`
	DOB            string `json:"dob,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	IDDetail       string `json:"id_detail,omitempty"`
	SpecialRequest string `json:"special_request,omitempty"`

	BookedBy        string  `json:"booked_by,omitempty"`
	BusinessSegment string  `json:"business_segment,omitempty"`
	PaymentMode     string  `json:"payment_mode,omitempty"`
	PerDayRate      float64 `json:"per_day_rate" validate:"gte=0"`
	PerDayTax       float64 `json:"per_day_tax" validate:"gte=0"`
	TaxInclusive    bool    `json:"tax_inclusive"`

	IsMaintenance bool `json:"is_maintenance,omitempty"`
}

// UpdateReservationRequest carries only the fields a booking desk may
// change after creation. Nil pointers mean "leave as is".
type UpdateReservationRequest struct {
	CheckIn  *string `json:"check_in,omitempty"`
	CheckOut *string `json:"check_out,omitempty"`

	State  *string `json:"state,omitempty" validate:"omitempty,oneof=CONFIRMED CHECKED_IN CANCELLED NO_SHOW"`
	RoomNo *string `json:"room_no,omitempty"`
	Guests *int    `json:"guests,omitempty" validate:"omitempty,gt=0"`

	GuestName      *string `json:"guest_name,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,e164"`
	SpecialRequest *string `json:"special_request,omitempty"`

	PaymentMode *string  `json:"payment_mode,omitempty"`
	PerDayRate  *float64 `json:"per_day_rate,omitempty" validate:"omitempty,gte=0"`
	PerDayTax   *float64 `json:"per_day_tax,omitempty" validate:"omitempty,gte=0"`
}

// ReservationResponse mirrors the stored record plus hotel-local stay
// strings derived from the hotel's timezone.
type ReservationResponse struct {
	ID      uuid.UUID `json:"id"`
	HotelID uuid.UUID `json:"hotel_id"`
	State   string    `json:"state"`

	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	CheckInLocal  string    `json:"check_in_local,omitempty"`
	CheckOutLocal string    `json:"check_out_local,omitempty"`
	Nights        int       `json:"nights"`

	RoomType  string      `json:"room_type"`
	RatePlan  string      `json:"rate_plan"`
	RoomNo    string      `json:"room_no"`
	Guests    int         `json:"guests"`
	Rooms     int         `json:"rooms"`
	Connected []uuid.UUID `json:"connected_room_ids,omitempty"`

	GuestName string `json:"guest_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	PerDayRate  float64 `json:"per_day_rate"`
	PerDayTax   float64 `json:"per_day_tax"`
	TotalAmount float64 `json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailableUnitResponse is one candidate unit from either search read model.
type AvailableUnitResponse struct {
	RoomUnitID uuid.UUID `json:"room_unit_id"`
	RoomID     uuid.UUID `json:"room_id"`
	RoomNumber string    `json:"room_number"`
	Floor      string    `json:"floor,omitempty"`
	RoomType   string    `json:"room_type"`
	RatePlan   string    `json:"rate_plan"`
}

// ConflictDetail names the units that blocked a booking so the client can
// offer alternatives.
type ConflictDetail struct {
	RoomNumbers []string `json:"room_numbers"`
	CheckIn     string   `json:"check_in"`
	CheckOut    string   `json:"check_out"`
}

func NewReservationResponse(res *models.Reservation, loc *time.Location) *ReservationResponse {
	out := &ReservationResponse{
		ID:          res.ID,
		HotelID:     res.HotelID,
		State:       string(res.State),
		CheckIn:     res.CheckIn,
		CheckOut:    res.CheckOut,
		Nights:      res.Nights,
		RoomType:    res.RoomType,
		RatePlan:    res.RatePlan,
		RoomNo:      res.RoomNo,
		Guests:      res.Guests,
		Rooms:       res.Rooms,
		Connected:   res.ConnectedRoomIDs,
		GuestName:   res.GuestName,
		Email:       res.Email,
		Phone:       res.Phone,
		PerDayRate:  res.PerDayRate,
		PerDayTax:   res.PerDayTax,
		TotalAmount: res.TotalAmount,
		CreatedAt:   res.CreatedAt,
		UpdatedAt:   res.UpdatedAt,
	}
	if loc != nil {
		out.CheckInLocal = res.CheckIn.In(loc).Format("2006-01-02 15:04")
		out.CheckOutLocal = res.CheckOut.In(loc).Format("2006-01-02 15:04")
	}
	return out
}
