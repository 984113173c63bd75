package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/utils"
)

/* ------------------------------------------------------------------
   Fake clock
------------------------------------------------------------------ */

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) utils.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires due timers synchronously on the
// calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

/* ------------------------------------------------------------------
   Fake store + repositories
------------------------------------------------------------------ */

type fakeStore struct {
	mu           sync.Mutex
	hotels       map[uuid.UUID]*models.Hotel
	rooms        map[uuid.UUID]*models.Room
	units        map[uuid.UUID]*models.RoomUnit
	reservations map[uuid.UUID]*models.Reservation
	rates        map[uuid.UUID]map[time.Time]*models.RoomDailyRate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hotels:       map[uuid.UUID]*models.Hotel{},
		rooms:        map[uuid.UUID]*models.Room{},
		units:        map[uuid.UUID]*models.RoomUnit{},
		reservations: map[uuid.UUID]*models.Reservation{},
		rates:        map[uuid.UUID]map[time.Time]*models.RoomDailyRate{},
	}
}

type fakeReservationRepo struct{ store *fakeStore }

func (r *fakeReservationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, utils.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *fakeReservationRepo) ListForUnits(
	_ context.Context,
	unitIDs []uuid.UUID,
	from, to time.Time,
	exclude uuid.UUID,
) ([]*models.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ids := map[uuid.UUID]bool{}
	for _, id := range unitIDs {
		ids[id] = true
	}
	var out []*models.Reservation
	for _, res := range r.store.reservations {
		if res.ID == exclude || !res.State.Active() || res.RoomUnitID == nil || !ids[*res.RoomUnitID] {
			continue
		}
		if res.CheckIn.Before(to) && res.CheckOut.After(from) {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListActiveCheckouts(context.Context) ([]*models.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Reservation
	for _, res := range r.store.reservations {
		if res.State.Active() && res.RoomUnitID != nil {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListForUnitWindow(
	ctx context.Context,
	unitID uuid.UUID,
	from, to time.Time,
) ([]*models.Reservation, error) {
	return r.ListForUnits(ctx, []uuid.UUID{unitID}, from, to, uuid.Nil)
}

func (r *fakeReservationRepo) overlapsLocked(unitIDs []uuid.UUID, from, to time.Time, exclude uuid.UUID) bool {
	ids := map[uuid.UUID]bool{}
	for _, id := range unitIDs {
		ids[id] = true
	}
	for _, res := range r.store.reservations {
		if res.ID == exclude || !res.State.Active() || res.RoomUnitID == nil || !ids[*res.RoomUnitID] {
			continue
		}
		if res.CheckIn.Before(to) && res.CheckOut.After(from) {
			return true
		}
	}
	return false
}

func (r *fakeReservationRepo) CreateAtomic(_ context.Context, res *models.Reservation, unitIDs []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range unitIDs {
		if _, ok := r.store.units[id]; !ok {
			return utils.ErrRoomUnitNotFound
		}
	}
	if r.overlapsLocked(unitIDs, res.CheckIn, res.CheckOut, uuid.Nil) {
		return utils.ErrReservationConflict
	}
	cp := *res
	r.store.reservations[res.ID] = &cp
	for _, id := range unitIDs {
		r.store.units[id].Status = models.RoomStatusBooked
	}
	return nil
}

func (r *fakeReservationRepo) UpdateAtomic(_ context.Context, res *models.Reservation, prevUnitID *uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.reservations[res.ID]; !ok {
		return utils.ErrReservationNotFound
	}
	if res.RoomUnitID != nil && r.overlapsLocked([]uuid.UUID{*res.RoomUnitID}, res.CheckIn, res.CheckOut, res.ID) {
		return utils.ErrReservationConflict
	}
	cp := *res
	r.store.reservations[res.ID] = &cp
	if prevUnitID != nil && (res.RoomUnitID == nil || *prevUnitID != *res.RoomUnitID) {
		if u, ok := r.store.units[*prevUnitID]; ok {
			u.Status = models.RoomStatusAvailable
		}
	}
	if res.RoomUnitID != nil {
		if u, ok := r.store.units[*res.RoomUnitID]; ok {
			u.Status = models.RoomStatusBooked
		}
	}
	return nil
}

func (r *fakeReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.reservations[id]; !ok {
		return utils.ErrReservationNotFound
	}
	delete(r.store.reservations, id)
	return nil
}

type fakeRoomUnitRepo struct{ store *fakeStore }

func (r *fakeRoomUnitRepo) GetByID(_ context.Context, id uuid.UUID) (*models.RoomUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.units[id]
	if !ok {
		return nil, utils.ErrRoomUnitNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRoomUnitRepo) ListByHotel(_ context.Context, hotelID uuid.UUID) ([]*models.RoomUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.RoomUnit
	for _, u := range r.store.units {
		if u.HotelID == hotelID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRoomUnitRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*models.RoomUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.RoomUnit
	for _, u := range r.store.units {
		if u.RoomID == roomID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRoomUnitRepo) ListByRoomNumbers(
	_ context.Context,
	hotelID uuid.UUID,
	roomNumbers []string,
) ([]*models.RoomUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	want := map[string]bool{}
	for _, n := range roomNumbers {
		want[n] = true
	}
	var out []*models.RoomUnit
	for _, u := range r.store.units {
		if u.HotelID == hotelID && want[u.RoomNumber] {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRoomUnitRepo) ListAll(context.Context) ([]*models.RoomUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.RoomUnit
	for _, u := range r.store.units {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRoomUnitRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.RoomStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.units[id]
	if !ok {
		return utils.ErrRoomUnitNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeRoomUnitRepo) UpdateCleaningStatus(_ context.Context, id uuid.UUID, status models.CleaningStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.units[id]
	if !ok {
		return utils.ErrRoomUnitNotFound
	}
	u.CleaningStatus = status
	return nil
}

func (r *fakeRoomUnitRepo) ReplaceAvailability(
	_ context.Context,
	id uuid.UUID,
	start time.Time,
	daily []models.RoomStatus,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.units[id]
	if !ok {
		return utils.ErrRoomUnitNotFound
	}
	s := start
	u.AvailabilityStartDate = &s
	u.DailyStatus = daily
	return nil
}

type fakeRoomRepo struct{ store *fakeStore }

func (r *fakeRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	room, ok := r.store.rooms[id]
	if !ok {
		return nil, utils.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *fakeRoomRepo) FindByTypeAndRate(
	_ context.Context,
	hotelID uuid.UUID,
	name, ratePlan string,
) (*models.Room, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, room := range r.store.rooms {
		if room.HotelID == hotelID && room.Name == name && room.RatePlan == ratePlan {
			cp := *room
			return &cp, nil
		}
	}
	return nil, utils.ErrRoomNotFound
}

func (r *fakeRoomRepo) ListByHotel(_ context.Context, hotelID uuid.UUID) ([]*models.Room, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Room
	for _, room := range r.store.rooms {
		if room.HotelID == hotelID {
			cp := *room
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRateRepo struct{ store *fakeStore }

func (r *fakeRateRepo) GetForYear(
	_ context.Context,
	roomID uuid.UUID,
	yearStart time.Time,
) (*models.RoomDailyRate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	years, ok := r.store.rates[roomID]
	if !ok {
		return nil, utils.ErrRateYearNotFound
	}
	rate, ok := years[yearStart]
	if !ok {
		return nil, utils.ErrRateYearNotFound
	}
	cp := *rate
	return &cp, nil
}

func (r *fakeRateRepo) ListByHotelYear(
	_ context.Context,
	hotelID uuid.UUID,
	yearStart time.Time,
) ([]*models.RoomDailyRate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.RoomDailyRate
	for _, years := range r.store.rates {
		if rate, ok := years[yearStart]; ok && rate.HotelID == hotelID {
			cp := *rate
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRateRepo) Upsert(_ context.Context, rate *models.RoomDailyRate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	years, ok := r.store.rates[rate.RoomID]
	if !ok {
		years = map[time.Time]*models.RoomDailyRate{}
		r.store.rates[rate.RoomID] = years
	}
	cp := *rate
	years[rate.YearStart] = &cp
	return nil
}

type fakeHotelRepo struct{ store *fakeStore }

func (r *fakeHotelRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Hotel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.hotels[id]
	if !ok {
		return nil, utils.ErrHotelNotFound
	}
	cp := *h
	return &cp, nil
}

/* ------------------------------------------------------------------
   Fake fanout
------------------------------------------------------------------ */

type publishedEvent struct {
	hotelID   uuid.UUID
	eventType string
	payload   interface{}
}

type fakeFanout struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeFanout) Publish(_ context.Context, hotelID uuid.UUID, eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{hotelID, eventType, payload})
	return nil
}

func (f *fakeFanout) Close() error { return nil }

func (f *fakeFanout) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.eventType
	}
	return out
}
