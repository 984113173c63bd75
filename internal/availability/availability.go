// Package availability holds the two read models for room-unit occupancy:
// the authoritative interval-overlap test used when booking a specific unit,
// and the day-array range check used when searching candidate units. The two
// are deliberately separate; see DESIGN.md.
package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
)

// Overlaps reports whether the half-open intervals [aFrom, aTo) and
// [bFrom, bTo) share at least one instant. Back-to-back stays (one checkout
// equal to the next check-in) do not overlap.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return aFrom.Before(bTo) && aTo.After(bFrom)
}

// HasConflict is the authoritative double-booking test for one unit: true
// when any active reservation on unitID overlaps [from, to). Records whose
// id equals exclude are skipped so updates don't conflict with themselves.
// The day-array projection must never be trusted over this test when
// committing a booking.
func HasConflict(reservations []*models.Reservation, unitID uuid.UUID, from, to time.Time, exclude uuid.UUID) bool {
	for _, r := range reservations {
		if r.ID == exclude {
			continue
		}
		if !r.State.Active() {
			continue
		}
		if r.RoomUnitID == nil || *r.RoomUnitID != unitID {
			continue
		}
		if Overlaps(r.CheckIn, r.CheckOut, from, to) {
			return true
		}
	}
	return false
}

// RangeAvailable reports whether unit can be sold for every night of
// [from, toExcl). The checkout day itself is excluded: the guest vacates
// that morning. A day fails when its index cannot be resolved against the
// unit's materialized window, when the day projection is not AVAILABLE, or
// when the price array has a 0 (not sellable) entry. Pure read, no side
// effects.
func RangeAvailable(unit *models.RoomUnit, prices []float64, from, toExcl time.Time) bool {
	if unit.AvailabilityStartDate == nil {
		return false
	}
	start := *unit.AvailabilityStartDate
	for d := fiscal.Midnight(from); d.Before(fiscal.Midnight(toExcl)); d = d.AddDate(0, 0, 1) {
		idx, ok := fiscal.DayIndex(start, d)
		if !ok {
			return false
		}
		if idx >= len(unit.DailyStatus) || unit.DailyStatus[idx] != models.RoomStatusAvailable {
			return false
		}
		if idx >= len(prices) || prices[idx] == 0 {
			return false
		}
	}
	return true
}

// ProjectStatuses regenerates a unit's day array from its interval records.
// Every day starts AVAILABLE; each active reservation paints its half-open
// stay range BOOKED, or MAINTENANCE for synthetic maintenance blocks.
func ProjectStatuses(start time.Time, length int, reservations []*models.Reservation) []models.RoomStatus {
	statuses := make([]models.RoomStatus, length)
	for i := range statuses {
		statuses[i] = models.RoomStatusAvailable
	}
	for _, r := range reservations {
		if !r.State.Active() {
			continue
		}
		mark := models.RoomStatusBooked
		if r.IsMaintenance {
			mark = models.RoomStatusMaintenance
		}
		for d := fiscal.Midnight(r.CheckIn); d.Before(fiscal.Midnight(r.CheckOut)); d = d.AddDate(0, 0, 1) {
			if idx, ok := fiscal.DayIndex(start, d); ok && idx < length {
				statuses[idx] = mark
			}
		}
	}
	return statuses
}
