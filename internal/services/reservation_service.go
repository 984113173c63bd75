package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/availability"
	"github.com/stayloop/rooms-service/internal/dtos"
	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/notify"
	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/utils"
)

// ReservationService owns the booking lifecycle: validated creation with
// the conflict guard, updates that re-run the guard, deletion that frees
// the unit, and both availability search read models.
type ReservationService struct {
	reservationRepo repositories.ReservationRepository
	roomRepo        repositories.RoomRepository
	roomUnitRepo    repositories.RoomUnitRepository
	rateRepo        repositories.RoomDailyRateRepository
	hotelRepo       repositories.HotelRepository

	scheduler *CheckoutSchedulerService
	fanout    notify.Fanout
	notifier  GuestNotifier
	validator *validator.Validate
}

func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	roomRepo repositories.RoomRepository,
	roomUnitRepo repositories.RoomUnitRepository,
	rateRepo repositories.RoomDailyRateRepository,
	hotelRepo repositories.HotelRepository,
	scheduler *CheckoutSchedulerService,
	fanout notify.Fanout,
	notifier GuestNotifier,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		roomRepo:        roomRepo,
		roomUnitRepo:    roomUnitRepo,
		rateRepo:        rateRepo,
		hotelRepo:       hotelRepo,
		scheduler:       scheduler,
		fanout:          fanout,
		notifier:        notifier,
		validator:       validator.New(),
	}
}

func parseStayDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err2 := time.Parse("2006-01-02", raw)
	if err2 == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// Create books the requested room numbers for [checkIn, checkOut). The
// conflict check and the insert happen inside one repository transaction,
// so two concurrent calls for the same unit cannot both succeed.
func (s *ReservationService) Create(
	ctx context.Context,
	hotelID uuid.UUID,
	req *dtos.CreateReservationRequest,
) (*dtos.ReservationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, utils.NewValidationError("Invalid reservation payload", err)
	}
	checkIn, err := parseStayDate(req.CheckIn)
	if err != nil {
		return nil, utils.NewValidationError("Invalid check_in date", err)
	}
	checkOut, err := parseStayDate(req.CheckOut)
	if err != nil {
		return nil, utils.NewValidationError("Invalid check_out date", err)
	}
	if !checkOut.After(checkIn) {
		return nil, utils.NewValidationError("check_out must be after check_in", utils.ErrInvalidDateRange)
	}

	roomNumbers := req.RoomNos
	if len(roomNumbers) == 0 {
		roomNumbers = []string{req.RoomNo}
	}
	units, err := s.roomUnitRepo.ListByRoomNumbers(ctx, hotelID, roomNumbers)
	if err != nil {
		return nil, err
	}
	if len(units) != len(roomNumbers) {
		return nil, utils.NewNotFoundError("One or more requested rooms do not exist", utils.ErrRoomUnitNotFound)
	}

	unitIDs := make([]uuid.UUID, len(units))
	for i, u := range units {
		unitIDs[i] = u.ID
	}

	var dob *time.Time
	if req.DOB != "" {
		if d, err := parseStayDate(req.DOB); err == nil {
			dob = &d
		}
	}

	nights := models.StayNights(checkIn, checkOut)
	res := &models.Reservation{
		ID:      uuid.New(),
		HotelID: hotelID,
		State:   models.ReservationStateConfirmed,

		CheckIn:  checkIn,
		CheckOut: checkOut,
		Nights:   nights,

		RoomType: req.RoomType,
		RatePlan: req.RatePlan,
		Guests:   req.Guests,
		Rooms:    req.Rooms,
		RoomNo:   units[0].RoomNumber,

		RoomUnitID:    &units[0].ID,
		IsMaintenance: req.IsMaintenance,

		GuestName:      req.GuestName,
		Email:          req.Email,
		Phone:          req.Phone,
		DOB:            dob,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		IDDetail:       req.IDDetail,
		SpecialRequest: req.SpecialRequest,

		BookedBy:        req.BookedBy,
		BusinessSegment: req.BusinessSegment,
		PaymentMode:     req.PaymentMode,
		PerDayRate:      req.PerDayRate,
		PerDayTax:       req.PerDayTax,
		TaxInclusive:    req.TaxInclusive,
		TotalAmount:     float64(nights) * (req.PerDayRate + req.PerDayTax),
	}
	if len(units) > 1 {
		res.ConnectedRoomIDs = unitIDs[1:]
	}

	if err := s.reservationRepo.CreateAtomic(ctx, res, unitIDs); err != nil {
		if errors.Is(err, utils.ErrReservationConflict) {
			return nil, utils.NewConflictError(
				"One or more rooms are already booked for part of the requested range",
				s.conflictDetails(ctx, unitIDs, checkIn, checkOut, roomNumbers),
			)
		}
		if errors.Is(err, utils.ErrRoomUnitNotFound) {
			return nil, utils.NewNotFoundError("One or more requested rooms do not exist", err)
		}
		return nil, err
	}

	s.scheduler.Schedule(res)

	hotel, hotelErr := s.hotelRepo.GetByID(ctx, hotelID)
	if hotelErr != nil {
		utils.Logger.WithError(hotelErr).WithField("hotel_id", hotelID).
			Warn("Could not load hotel for reservation response")
	}

	_ = s.fanout.Publish(ctx, hotelID, notify.EventReservationCreated, res)
	if hotel != nil {
		go s.notifier.SendBookingConfirmation(context.Background(), hotel, res)
	}

	utils.Logger.WithField("reservation_id", res.ID).
		WithField("room_no", res.RoomNo).
		Info("Reservation created")

	return s.toResponse(res, hotel), nil
}

// conflictDetails re-reads the overlapping records after the transaction
// rolled back, to name the blocking room numbers. Best-effort: on a read
// failure the detail falls back to the requested numbers.
func (s *ReservationService) conflictDetails(
	ctx context.Context,
	unitIDs []uuid.UUID,
	checkIn, checkOut time.Time,
	requested []string,
) *dtos.ConflictDetail {
	detail := &dtos.ConflictDetail{
		RoomNumbers: requested,
		CheckIn:     checkIn.Format("2006-01-02"),
		CheckOut:    checkOut.Format("2006-01-02"),
	}
	overlapping, err := s.reservationRepo.ListForUnits(ctx, unitIDs, checkIn, checkOut, uuid.Nil)
	if err != nil {
		return detail
	}
	seen := map[string]bool{}
	var numbers []string
	for _, r := range overlapping {
		if !seen[r.RoomNo] {
			seen[r.RoomNo] = true
			numbers = append(numbers, r.RoomNo)
		}
	}
	if len(numbers) > 0 {
		detail.RoomNumbers = numbers
	}
	return detail
}

func (s *ReservationService) GetByID(ctx context.Context, hotelID, id uuid.UUID) (*dtos.ReservationResponse, error) {
	res, err := s.loadOwned(ctx, hotelID, id)
	if err != nil {
		return nil, err
	}
	hotel, _ := s.hotelRepo.GetByID(ctx, hotelID)
	return s.toResponse(res, hotel), nil
}

// Update patches an existing reservation. A date or room change re-runs the
// conflict guard excluding the record itself, so a stay can always shrink,
// extend into free days, or move rooms without colliding with itself.
func (s *ReservationService) Update(
	ctx context.Context,
	hotelID, id uuid.UUID,
	req *dtos.UpdateReservationRequest,
) (*dtos.ReservationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, utils.NewValidationError("Invalid reservation patch", err)
	}
	res, err := s.loadOwned(ctx, hotelID, id)
	if err != nil {
		return nil, err
	}

	prevUnitID := res.RoomUnitID
	prevCheckOut := res.CheckOut

	if req.CheckIn != nil {
		t, err := parseStayDate(*req.CheckIn)
		if err != nil {
			return nil, utils.NewValidationError("Invalid check_in date", err)
		}
		res.CheckIn = t
	}
	if req.CheckOut != nil {
		t, err := parseStayDate(*req.CheckOut)
		if err != nil {
			return nil, utils.NewValidationError("Invalid check_out date", err)
		}
		res.CheckOut = t
	}
	if !res.CheckOut.After(res.CheckIn) {
		return nil, utils.NewValidationError("check_out must be after check_in", utils.ErrInvalidDateRange)
	}
	res.Nights = models.StayNights(res.CheckIn, res.CheckOut)

	if req.State != nil {
		res.State = models.ReservationState(*req.State)
	}
	if req.RoomNo != nil && *req.RoomNo != res.RoomNo {
		units, err := s.roomUnitRepo.ListByRoomNumbers(ctx, hotelID, []string{*req.RoomNo})
		if err != nil {
			return nil, err
		}
		if len(units) == 0 {
			return nil, utils.NewNotFoundError("Requested room does not exist", utils.ErrRoomUnitNotFound)
		}
		res.RoomNo = units[0].RoomNumber
		res.RoomUnitID = &units[0].ID
	}
	if req.Guests != nil {
		res.Guests = *req.Guests
	}
	if req.GuestName != nil {
		res.GuestName = *req.GuestName
	}
	if req.Email != nil {
		res.Email = *req.Email
	}
	if req.Phone != nil {
		res.Phone = *req.Phone
	}
	if req.SpecialRequest != nil {
		res.SpecialRequest = *req.SpecialRequest
	}
	if req.PaymentMode != nil {
		res.PaymentMode = *req.PaymentMode
	}
	if req.PerDayRate != nil {
		res.PerDayRate = *req.PerDayRate
	}
	if req.PerDayTax != nil {
		res.PerDayTax = *req.PerDayTax
	}
	res.TotalAmount = float64(res.Nights) * (res.PerDayRate + res.PerDayTax)

	// A cancelled or no-show record stops holding its unit.
	if !res.State.Active() {
		res.RoomUnitID = nil
	}

	if err := s.reservationRepo.UpdateAtomic(ctx, res, prevUnitID); err != nil {
		if errors.Is(err, utils.ErrReservationConflict) {
			var ids []uuid.UUID
			if res.RoomUnitID != nil {
				ids = []uuid.UUID{*res.RoomUnitID}
			}
			return nil, utils.NewConflictError(
				"The room is already booked for part of the requested range",
				s.conflictDetails(ctx, ids, res.CheckIn, res.CheckOut, []string{res.RoomNo}),
			)
		}
		return nil, err
	}

	if !res.State.Active() {
		s.scheduler.Cancel(res.ID)
	} else if !res.CheckOut.Equal(prevCheckOut) || prevUnitID == nil ||
		res.RoomUnitID == nil || *prevUnitID != *res.RoomUnitID {
		s.scheduler.Schedule(res)
	}

	_ = s.fanout.Publish(ctx, hotelID, notify.EventReservationUpdated, res)

	utils.Logger.WithField("reservation_id", res.ID).Info("Reservation updated")

	hotel, _ := s.hotelRepo.GetByID(ctx, hotelID)
	return s.toResponse(res, hotel), nil
}

// Delete removes the record, cancels the pending checkout job, and frees
// the unit immediately rather than waiting for the stale timer.
func (s *ReservationService) Delete(ctx context.Context, hotelID, id uuid.UUID) error {
	res, err := s.loadOwned(ctx, hotelID, id)
	if err != nil {
		return err
	}

	if err := s.reservationRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.scheduler.Cancel(id)

	if res.RoomUnitID != nil {
		if err := s.roomUnitRepo.UpdateStatus(ctx, *res.RoomUnitID, models.RoomStatusAvailable); err != nil {
			utils.Logger.WithError(err).WithField("room_unit_id", *res.RoomUnitID).
				Error("Failed to release room unit after reservation delete")
		}
	}

	_ = s.fanout.Publish(ctx, hotelID, notify.EventReservationDeleted, map[string]interface{}{
		"reservation_id": id,
	})

	utils.Logger.WithField("reservation_id", id).Info("Reservation deleted")
	return nil
}

// SearchAvailableUnits is the day-array read model: a unit qualifies when
// every night of [from, to) is projected AVAILABLE and carries a nonzero
// price. Fast and calendar-shaped, but never the authority for booking.
func (s *ReservationService) SearchAvailableUnits(
	ctx context.Context,
	hotelID uuid.UUID,
	roomType, ratePlan string,
	from, to time.Time,
) ([]*dtos.AvailableUnitResponse, error) {
	if !to.After(from) {
		return nil, utils.NewValidationError("to must be after from", utils.ErrInvalidDateRange)
	}
	room, err := s.roomRepo.FindByTypeAndRate(ctx, hotelID, roomType, ratePlan)
	if err != nil {
		if errors.Is(err, utils.ErrRoomNotFound) {
			return nil, utils.NewNotFoundError("No such room type and rate plan", err)
		}
		return nil, err
	}

	rate, err := s.rateRepo.GetForYear(ctx, room.ID, fiscal.StartFor(from))
	if err != nil && !errors.Is(err, utils.ErrRateYearNotFound) {
		return nil, err
	}
	var prices []float64
	if rate != nil {
		prices = rate.Prices
	}

	units, err := s.roomUnitRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	var out []*dtos.AvailableUnitResponse
	for _, unit := range units {
		if availability.RangeAvailable(unit, prices, from, to) {
			out = append(out, &dtos.AvailableUnitResponse{
				RoomUnitID: unit.ID,
				RoomID:     room.ID,
				RoomNumber: unit.RoomNumber,
				Floor:      unit.Floor,
				RoomType:   room.Name,
				RatePlan:   room.RatePlan,
			})
		}
	}
	return out, nil
}

// SearchFreeUnitsByInterval is the interval read model: a unit qualifies
// when no active reservation overlaps [from, to). Matches what the conflict
// guard will decide at booking time, ignoring day projections and prices.
func (s *ReservationService) SearchFreeUnitsByInterval(
	ctx context.Context,
	hotelID uuid.UUID,
	roomType, ratePlan string,
	from, to time.Time,
) ([]*dtos.AvailableUnitResponse, error) {
	if !to.After(from) {
		return nil, utils.NewValidationError("to must be after from", utils.ErrInvalidDateRange)
	}
	room, err := s.roomRepo.FindByTypeAndRate(ctx, hotelID, roomType, ratePlan)
	if err != nil {
		if errors.Is(err, utils.ErrRoomNotFound) {
			return nil, utils.NewNotFoundError("No such room type and rate plan", err)
		}
		return nil, err
	}
	units, err := s.roomUnitRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	unitIDs := make([]uuid.UUID, len(units))
	for i, u := range units {
		unitIDs[i] = u.ID
	}
	reservations, err := s.reservationRepo.ListForUnits(ctx, unitIDs, from, to, uuid.Nil)
	if err != nil {
		return nil, err
	}

	var out []*dtos.AvailableUnitResponse
	for _, unit := range units {
		if !availability.HasConflict(reservations, unit.ID, from, to, uuid.Nil) {
			out = append(out, &dtos.AvailableUnitResponse{
				RoomUnitID: unit.ID,
				RoomID:     room.ID,
				RoomNumber: unit.RoomNumber,
				Floor:      unit.Floor,
				RoomType:   room.Name,
				RatePlan:   room.RatePlan,
			})
		}
	}
	return out, nil
}

func (s *ReservationService) loadOwned(ctx context.Context, hotelID, id uuid.UUID) (*models.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrReservationNotFound) {
			return nil, utils.NewNotFoundError("Reservation not found", err)
		}
		return nil, err
	}
	if res.HotelID != hotelID {
		return nil, utils.NewNotFoundError("Reservation not found", utils.ErrReservationNotFound)
	}
	return res, nil
}

func (s *ReservationService) toResponse(res *models.Reservation, hotel *models.Hotel) *dtos.ReservationResponse {
	var loc *time.Location
	if hotel != nil {
		loc = hotel.Location()
	}
	return dtos.NewReservationResponse(res, loc)
}
