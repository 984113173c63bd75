package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stayloop/rooms-service/internal/dtos"
	"github.com/stayloop/rooms-service/internal/middleware"
	"github.com/stayloop/rooms-service/internal/services"
	"github.com/stayloop/rooms-service/internal/utils"
)

type ReservationsController struct {
	reservationService *services.ReservationService
}

func NewReservationsController(s *services.ReservationService) *ReservationsController {
	return &ReservationsController{reservationService: s}
}

func hotelIDFromRequest(r *http.Request) (uuid.UUID, error) {
	hotelID, ok := middleware.HotelIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, &utils.AppError{
			StatusCode: http.StatusUnauthorized,
			Code:       utils.ErrCodeUnauthorized,
			Message:    "Missing hotel id in context",
		}
	}
	return hotelID, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    "Invalid id in path",
			Err:        err,
		}
	}
	return id, nil
}

// POST /api/v1/reservations
func (c *ReservationsController) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "CreateReservationHandler")
	logger.Info("Request received")

	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	var req dtos.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}

	resp, err := c.reservationService.Create(r.Context(), hotelID, &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/reservations/{id}
func (c *ReservationsController) GetReservationHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	resp, err := c.reservationService.GetByID(r.Context(), hotelID, id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// PATCH /api/v1/reservations/{id}
func (c *ReservationsController) UpdateReservationHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "UpdateReservationHandler")
	logger.Info("Request received")

	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	var req dtos.UpdateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}

	resp, err := c.reservationService.Update(r.Context(), hotelID, id, &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// DELETE /api/v1/reservations/{id}
func (c *ReservationsController) DeleteReservationHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "DeleteReservationHandler")
	logger.Info("Request received")

	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	if err := c.reservationService.Delete(r.Context(), hotelID, id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
