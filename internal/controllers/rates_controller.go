package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stayloop/rooms-service/internal/services"
	"github.com/stayloop/rooms-service/internal/utils"
)

type RatesController struct {
	rateSheetService *services.RateSheetService
}

func NewRatesController(s *services.RateSheetService) *RatesController {
	return &RatesController{rateSheetService: s}
}

func parseYearQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("for_date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, utils.NewValidationError("Invalid for_date, want YYYY-MM-DD", err)
	}
	return t, nil
}

// GET /api/v1/rates/sheet
// Streams the fiscal-year rate workbook for the year containing for_date.
func (c *RatesController) DownloadRateSheetHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "DownloadRateSheetHandler")
	logger.Info("Request received")

	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	forDate, err := parseYearQuery(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	sheet, err := c.rateSheetService.GenerateTemplate(r.Context(), hotelID, forDate)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rates-%s.xlsx", forDate.Format("2006")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sheet)
}

// POST /api/v1/rates/sheet
// Accepts the filled workbook as multipart field "sheet".
func (c *RatesController) UploadRateSheetHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "UploadRateSheetHandler")
	logger.Info("Request received")

	hotelID, err := hotelIDFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	forDate, err := parseYearQuery(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	file, _, err := r.FormFile("sheet")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing sheet file", nil, err)
		return
	}
	defer file.Close()

	if err := c.rateSheetService.ParseAndStore(r.Context(), hotelID, forDate, file); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}
