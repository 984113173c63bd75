package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/rooms-service/internal/dtos"
	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/notify"
	"github.com/stayloop/rooms-service/internal/utils"
)

type reservationFixture struct {
	svc    *ReservationService
	store  *fakeStore
	clock  *fakeClock
	fanout *fakeFanout

	hotelID uuid.UUID
	room    *models.Room
	units   map[string]*models.RoomUnit
}

func newReservationFixture(t *testing.T, now time.Time) *reservationFixture {
	t.Helper()
	store := newFakeStore()
	clock := newFakeClock(now)
	fanout := &fakeFanout{}

	hotelID := uuid.New()
	store.hotels[hotelID] = &models.Hotel{
		ID:       hotelID,
		Name:     "Harbour View",
		TimeZone: "UTC",
	}

	room := &models.Room{
		ID:          uuid.New(),
		HotelID:     hotelID,
		Name:        "Deluxe",
		RatePlan:    "CP",
		MaxGuests:   3,
		RoomNumbers: []string{"101", "102"},
	}
	store.rooms[room.ID] = room

	units := map[string]*models.RoomUnit{}
	start := fiscal.StartFor(now)
	for _, n := range room.RoomNumbers {
		unit := &models.RoomUnit{
			ID:             uuid.New(),
			HotelID:        hotelID,
			RoomID:         room.ID,
			RoomNumber:     n,
			Status:         models.RoomStatusAvailable,
			CleaningStatus: models.CleaningStatusClean,
		}
		s := start
		unit.AvailabilityStartDate = &s
		unit.DailyStatus = make([]models.RoomStatus, fiscal.YearLength(start))
		for i := range unit.DailyStatus {
			unit.DailyStatus[i] = models.RoomStatusAvailable
		}
		store.units[unit.ID] = unit
		units[n] = unit
	}

	prices := make([]float64, fiscal.YearLength(start))
	for i := range prices {
		prices[i] = 4200
	}
	store.rates[room.ID] = map[time.Time]*models.RoomDailyRate{
		start: {
			ID:        uuid.New(),
			HotelID:   hotelID,
			RoomID:    room.ID,
			RoomType:  room.Name,
			RatePlan:  room.RatePlan,
			YearStart: start,
			Prices:    prices,
		},
	}

	scheduler := NewCheckoutSchedulerService(
		&fakeReservationRepo{store: store},
		&fakeRoomUnitRepo{store: store},
		fanout,
		clock,
	)
	svc := NewReservationService(
		&fakeReservationRepo{store: store},
		&fakeRoomRepo{store: store},
		&fakeRoomUnitRepo{store: store},
		&fakeRateRepo{store: store},
		&fakeHotelRepo{store: store},
		scheduler,
		fanout,
		NopGuestNotifier{},
	)
	return &reservationFixture{
		svc:     svc,
		store:   store,
		clock:   clock,
		fanout:  fanout,
		hotelID: hotelID,
		room:    room,
		units:   units,
	}
}

func createRequest(roomNo, checkIn, checkOut string) *dtos.CreateReservationRequest {
	return &dtos.CreateReservationRequest{
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		RoomType:   "Deluxe",
		RatePlan:   "CP",
		RoomNo:     roomNo,
		Guests:     2,
		Rooms:      1,
		GuestName:  "Asha Rao",
		Email:      "asha@example.com",
		PerDayRate: 4200,
		PerDayTax:  500,
	}
}

func TestCreateReservation(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)

	resp, err := f.svc.Create(context.Background(), f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Nights)
	assert.Equal(t, "101", resp.RoomNo)
	assert.Equal(t, float64(5*(4200+500)), resp.TotalAmount)
	assert.Equal(t, models.RoomStatusBooked, f.store.units[f.units["101"].ID].Status)
	assert.Contains(t, f.fanout.eventTypes(), notify.EventReservationCreated)
}

func TestCreateRejectsOverlapAcceptsBackToBack(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	// June 14-18 overlaps the existing June 10-15 stay.
	_, err = f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-14", "2025-06-18"))
	require.Error(t, err)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.ErrCodeConflict, appErr.Code)
	detail, ok := appErr.Details.(*dtos.ConflictDetail)
	require.True(t, ok)
	assert.Contains(t, detail.RoomNumbers, "101")

	// June 15-18 starts exactly at the earlier checkout: back-to-back, fine.
	_, err = f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-15", "2025-06-18"))
	assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *dtos.CreateReservationRequest
	}{
		{"checkout before checkin", createRequest("101", "2025-06-15", "2025-06-10")},
		{"checkout equals checkin", createRequest("101", "2025-06-10", "2025-06-10")},
		{"garbage date", createRequest("101", "not-a-date", "2025-06-15")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.hotelID, tt.req)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, utils.ErrCodeValidation, appErr.Code)
		})
	}
}

func TestCreateUnknownRoomIsNotFoundNotConflict(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)

	_, err := f.svc.Create(context.Background(), f.hotelID, createRequest("999", "2025-06-10", "2025-06-15"))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}

func TestUpdateExcludesOwnRecordFromConflict(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	// Extending the same stay into free days must not collide with itself.
	updated, err := f.svc.Update(ctx, f.hotelID, resp.ID,
		&dtos.UpdateReservationRequest{CheckOut: utils.Ptr("2025-06-17")})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Nights)
}

func TestUpdateConflictsWithOtherReservation(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-20", "2025-06-25"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.hotelID, first.ID,
		&dtos.UpdateReservationRequest{CheckOut: utils.Ptr("2025-06-22")})
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.ErrCodeConflict, appErr.Code)
}

func TestUpdateReschedulesCheckout(t *testing.T) {
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.hotelID, resp.ID,
		&dtos.UpdateReservationRequest{CheckOut: utils.Ptr("2025-06-17")})
	require.NoError(t, err)

	unitID := f.units["101"].ID
	f.clock.Advance(6 * 24 * time.Hour) // past June 15
	assert.Equal(t, models.RoomStatusBooked, f.store.units[unitID].Status,
		"old checkout timer must not fire")

	f.clock.Advance(2 * 24 * time.Hour) // past June 17
	assert.Equal(t, models.RoomStatusAvailable, f.store.units[unitID].Status)
}

func TestCancelReleasesUnitAndTimer(t *testing.T) {
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.hotelID, resp.ID,
		&dtos.UpdateReservationRequest{State: utils.Ptr(string(models.ReservationStateCancelled))})
	require.NoError(t, err)

	unitID := f.units["101"].ID
	assert.Equal(t, models.RoomStatusAvailable, f.store.units[unitID].Status)

	// A new stay on the freed unit over the same dates must succeed.
	_, err = f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	assert.NoError(t, err)
}

func TestDeleteFreesUnitImmediately(t *testing.T) {
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.hotelID, resp.ID))

	unitID := f.units["101"].ID
	assert.Equal(t, models.RoomStatusAvailable, f.store.units[unitID].Status,
		"unit freed now, not at the stale checkout instant")
	f.clock.Advance(30 * 24 * time.Hour)
	assert.Equal(t, models.RoomStatusAvailable, f.store.units[unitID].Status)
	assert.Contains(t, f.fanout.eventTypes(), notify.EventReservationDeleted)

	err = f.svc.Delete(ctx, f.hotelID, resp.ID)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}

func TestDeleteOtherHotelsReservation(t *testing.T) {
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, uuid.New(), resp.ID)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}

func TestSearchAvailableUnitsZeroPriceDayExcludes(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	units, err := f.svc.SearchAvailableUnits(ctx, f.hotelID, "Deluxe", "CP", from, to)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	// July 2 becomes unsellable; the whole July 1-4 range drops out.
	start := fiscal.StartFor(now)
	idx, ok := fiscal.DayIndex(start, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	f.store.rates[f.room.ID][start].Prices[idx] = 0

	units, err = f.svc.SearchAvailableUnits(ctx, f.hotelID, "Deluxe", "CP", from, to)
	require.NoError(t, err)
	assert.Empty(t, units)

	// A range ending July 2 excludes the checkout day and still sells.
	units, err = f.svc.SearchAvailableUnits(ctx, f.hotelID, "Deluxe", "CP",
		from, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestSearchFreeUnitsByInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newReservationFixture(t, now)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.hotelID, createRequest("101", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	from := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	units, err := f.svc.SearchFreeUnitsByInterval(ctx, f.hotelID, "Deluxe", "CP", from, to)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "102", units[0].RoomNumber)

	// From the checkout instant on, 101 is free again.
	units, err = f.svc.SearchFreeUnitsByInterval(ctx, f.hotelID, "Deluxe", "CP",
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, units, 2)
}
