package services

import (
	"context"
	"time"

	"github.com/stayloop/rooms-service/internal/availability"
	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/notify"
	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/utils"
)

// RolloverService provisions next fiscal year's availability arrays ahead
// of April 1. The cron trigger fires January 1, leaving a full quarter for
// forward bookings into the new year.
type RolloverService struct {
	roomUnitRepo    repositories.RoomUnitRepository
	reservationRepo repositories.ReservationRepository
	fanout          notify.Fanout
}

func NewRolloverService(
	roomUnitRepo repositories.RoomUnitRepository,
	reservationRepo repositories.ReservationRepository,
	fanout notify.Fanout,
) *RolloverService {
	return &RolloverService{
		roomUnitRepo:    roomUnitRepo,
		reservationRepo: reservationRepo,
		fanout:          fanout,
	}
}

// Run writes a fresh all-AVAILABLE day array for the fiscal year after the
// one containing now, for every unit not already rolled. Idempotent: a unit
// whose window already starts at the target date is skipped, so a crashed
// run can be re-triggered safely. Per-unit failures are logged and skipped.
func (s *RolloverService) Run(ctx context.Context, now time.Time) error {
	start, length := fiscal.NextWindow(now)

	units, err := s.roomUnitRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	rolled, skipped, failed := 0, 0, 0
	for _, unit := range units {
		if unit.AvailabilityStartDate != nil && unit.AvailabilityStartDate.Equal(start) {
			skipped++
			continue
		}
		daily := make([]models.RoomStatus, length)
		for i := range daily {
			daily[i] = models.RoomStatusAvailable
		}
		if err := s.roomUnitRepo.ReplaceAvailability(ctx, unit.ID, start, daily); err != nil {
			failed++
			utils.Logger.WithError(err).WithField("room_unit_id", unit.ID).
				Error("Fiscal rollover failed for room unit")
			continue
		}
		rolled++
		_ = s.fanout.Publish(ctx, unit.HotelID, notify.EventAvailabilityRolled, map[string]interface{}{
			"room_unit_id": unit.ID,
			"year_start":   start.Format("2006-01-02"),
			"days":         length,
		})
	}

	utils.Logger.Infof("Fiscal rollover to %s: %d rolled, %d already current, %d failed",
		start.Format("2006-01-02"), rolled, skipped, failed)
	return nil
}

// RebuildAllProjections regenerates every materialized unit's day array
// from its interval records. Runs nightly so projection drift never
// survives a day. Best-effort like Run.
func (s *RolloverService) RebuildAllProjections(ctx context.Context) error {
	units, err := s.roomUnitRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, unit := range units {
		if unit.AvailabilityStartDate == nil {
			continue
		}
		if err := s.rebuildUnit(ctx, unit); err != nil {
			utils.Logger.WithError(err).WithField("room_unit_id", unit.ID).
				Error("Day projection rebuild failed for room unit")
		}
	}
	return nil
}

func (s *RolloverService) rebuildUnit(ctx context.Context, unit *models.RoomUnit) error {
	start := *unit.AvailabilityStartDate
	length := fiscal.YearLength(start)
	end := fiscal.DateAt(start, length-1).AddDate(0, 0, 1)

	reservations, err := s.reservationRepo.ListForUnitWindow(ctx, unit.ID, start, end)
	if err != nil {
		return err
	}
	daily := availability.ProjectStatuses(start, length, reservations)
	return s.roomUnitRepo.ReplaceAvailability(ctx, unit.ID, start, daily)
}
