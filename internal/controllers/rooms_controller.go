package controllers

import (
	"net/http"
	"time"

	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/services"
	"github.com/stayloop/rooms-service/internal/utils"
)

type RoomsController struct {
	reservationService *services.ReservationService
	roomUnitRepo       repositories.RoomUnitRepository
}

func NewRoomsController(s *services.ReservationService, roomUnitRepo repositories.RoomUnitRepository) *RoomsController {
	return &RoomsController{reservationService: s, roomUnitRepo: roomUnitRepo}
}

func parseSearchQuery(r *http.Request) (roomType, ratePlan string, from, to time.Time, err error) {
	q := r.URL.Query()
	roomType = q.Get("room_type")
	ratePlan = q.Get("rate_plan")
	if roomType == "" || ratePlan == "" {
		err = utils.NewValidationError("room_type and rate_plan query params are required", nil)
		return
	}
	from, err = time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		err = utils.NewValidationError("Invalid from date, want YYYY-MM-DD", err)
		return
	}
	to, err = time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		err = utils.NewValidationError("Invalid to date, want YYYY-MM-DD", err)
		return
	}
	return
}

// GET /api/v1/rooms/available
// Day-projection search: fast calendar answer, prices included in the check.
func (c *RoomsController) SearchAvailableHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomType, ratePlan, from, to, err := parseSearchQuery(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	units, err := c.reservationService.SearchAvailableUnits(r.Context(), hotelID, roomType, ratePlan, from, to)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/v1/rooms/free
// Interval search: mirrors the booking-time conflict decision exactly.
func (c *RoomsController) SearchFreeHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomType, ratePlan, from, to, err := parseSearchQuery(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	units, err := c.reservationService.SearchFreeUnitsByInterval(r.Context(), hotelID, roomType, ratePlan, from, to)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/v1/rooms/units
func (c *RoomsController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	units, err := c.roomUnitRepo.ListByHotel(r.Context(), hotelID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}
