package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/notify"
	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/utils"
)

// CheckoutSchedulerService frees room units when their reservation's
// checkout instant passes. Timers live in memory only; Rehydrate rebuilds
// them from the ledger after a restart and must finish before the HTTP
// listener starts serving.
type CheckoutSchedulerService struct {
	reservationRepo repositories.ReservationRepository
	roomUnitRepo    repositories.RoomUnitRepository
	fanout          notify.Fanout
	clock           utils.Clock

	mu     sync.Mutex
	timers map[uuid.UUID]utils.Timer
}

func NewCheckoutSchedulerService(
	reservationRepo repositories.ReservationRepository,
	roomUnitRepo repositories.RoomUnitRepository,
	fanout notify.Fanout,
	clock utils.Clock,
) *CheckoutSchedulerService {
	return &CheckoutSchedulerService{
		reservationRepo: reservationRepo,
		roomUnitRepo:    roomUnitRepo,
		fanout:          fanout,
		clock:           clock,
		timers:          map[uuid.UUID]utils.Timer{},
	}
}

// Schedule arms (or re-arms) the checkout timer for one reservation.
// Scheduling is idempotent: an existing timer for the same reservation is
// cancelled first, so the latest checkout instant always wins. Reservations
// without a unit or without a checkout instant are ignored. A checkout
// already in the past fires synchronously before Schedule returns.
func (s *CheckoutSchedulerService) Schedule(res *models.Reservation) {
	if res == nil || res.RoomUnitID == nil || res.CheckOut.IsZero() {
		return
	}
	s.Cancel(res.ID)

	now := s.clock.Now()
	delay := res.CheckOut.Sub(now)
	if delay <= 0 {
		utils.Logger.WithField("reservation_id", res.ID).
			Info("Checkout already due, releasing room now")
		s.fire(res.ID, res.HotelID, *res.RoomUnitID)
		return
	}

	id := res.ID
	hotelID := res.HotelID
	unitID := *res.RoomUnitID
	s.mu.Lock()
	s.timers[id] = s.clock.AfterFunc(delay, func() {
		s.fire(id, hotelID, unitID)
	})
	s.mu.Unlock()

	utils.Logger.WithField("reservation_id", id).
		WithField("checkout", res.CheckOut.Format(time.RFC3339)).
		Debug("Checkout scheduled")
}

// Cancel stops and forgets the timer for a reservation. Safe to call when
// nothing is scheduled.
func (s *CheckoutSchedulerService) Cancel(reservationID uuid.UUID) {
	s.mu.Lock()
	t, ok := s.timers[reservationID]
	if ok {
		delete(s.timers, reservationID)
	}
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Rehydrate rebuilds timers for every active reservation still holding a
// unit. Past-due checkouts fire immediately inside this call.
func (s *CheckoutSchedulerService) Rehydrate(ctx context.Context) error {
	reservations, err := s.reservationRepo.ListActiveCheckouts(ctx)
	if err != nil {
		return err
	}
	for _, res := range reservations {
		s.Schedule(res)
	}
	utils.Logger.Infof("Rehydrated %d checkout timers", len(reservations))
	return nil
}

// ScheduledCount reports how many timers are currently armed.
func (s *CheckoutSchedulerService) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire releases the unit and marks it for cleaning. Persistence failures
// are logged, never propagated: this runs on a timer goroutine with no
// caller to return to. The timer entry is removed unconditionally.
func (s *CheckoutSchedulerService) fire(reservationID, hotelID, unitID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.WithField("reservation_id", reservationID).
				Errorf("Panic while releasing room on checkout: %v", r)
		}
	}()

	s.mu.Lock()
	delete(s.timers, reservationID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.roomUnitRepo.UpdateStatus(ctx, unitID, models.RoomStatusAvailable); err != nil {
		utils.Logger.WithError(err).WithField("room_unit_id", unitID).
			Error("Failed to release room unit on checkout")
		return
	}
	if err := s.roomUnitRepo.UpdateCleaningStatus(ctx, unitID, models.CleaningStatusNeedsCleaning); err != nil {
		utils.Logger.WithError(err).WithField("room_unit_id", unitID).
			Error("Failed to flag room unit for cleaning on checkout")
	}

	_ = s.fanout.Publish(ctx, hotelID, notify.EventRoomStatusUpdate, map[string]interface{}{
		"reservation_id":  reservationID,
		"room_unit_id":    unitID,
		"status":          models.RoomStatusAvailable,
		"cleaning_status": models.CleaningStatusNeedsCleaning,
	})

	utils.Logger.WithField("reservation_id", reservationID).
		WithField("room_unit_id", unitID).
		Info("Room released on checkout")
}
