package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/xuri/excelize/v2"

	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/utils"
)

const rateSheetName = "Rates"

// RateSheetService generates the fiscal-year rate workbook hotels fill in
// and parses it back into per-room price vectors. One row per day, April 1
// through March 31; public holidays are premarked so revenue managers can
// spot premium dates. An empty or non-numeric cell parses as 0, which means
// the day is not sellable.
type RateSheetService struct {
	roomRepo repositories.RoomRepository
	rateRepo repositories.RoomDailyRateRepository

	holidays *cal.BusinessCalendar
}

func NewRateSheetService(roomRepo repositories.RoomRepository, rateRepo repositories.RoomDailyRateRepository) *RateSheetService {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
	return &RateSheetService{roomRepo: roomRepo, rateRepo: rateRepo, holidays: c}
}

func roomColumnHeader(room *models.Room) string {
	return fmt.Sprintf("%s (%s)", room.Name, room.RatePlan)
}

// GenerateTemplate builds the workbook for the fiscal year containing
// forDate, pre-filled with any rates already stored.
func (s *RateSheetService) GenerateTemplate(ctx context.Context, hotelID uuid.UUID, forDate time.Time) ([]byte, error) {
	start := fiscal.StartFor(forDate)
	length := fiscal.YearLength(start)

	rooms, err := s.roomRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, utils.NewNotFoundError("Hotel has no rooms to price", utils.ErrRoomNotFound)
	}

	existing := map[uuid.UUID][]float64{}
	for _, room := range rooms {
		rate, err := s.rateRepo.GetForYear(ctx, room.ID, start)
		if err == nil {
			existing[room.ID] = rate.Prices
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	index, err := f.NewSheet(rateSheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []interface{}{"Date", "Day", "Holiday"}
	for _, room := range rooms {
		headers = append(headers, roomColumnHeader(room))
	}
	if err := f.SetSheetRow(rateSheetName, "A1", &headers); err != nil {
		return nil, err
	}

	for i := 0; i < length; i++ {
		day := fiscal.DateAt(start, i)
		holiday := ""
		if ok, _, _ := s.holidays.IsHoliday(day); ok {
			holiday = "Holiday"
		}
		row := []interface{}{
			day.Format("2006-01-02"),
			day.Format("Mon"),
			holiday,
		}
		for _, room := range rooms {
			var cell interface{}
			if prices, ok := existing[room.ID]; ok && i < len(prices) && prices[i] != 0 {
				cell = prices[i]
			} else {
				cell = ""
			}
			row = append(row, cell)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(rateSheetName, addr, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseAndStore reads an uploaded workbook and upserts one price vector per
// room column. Rows are matched by date, not position, so a sheet with
// reordered or missing rows still lands on the right day indices.
func (s *RateSheetService) ParseAndStore(ctx context.Context, hotelID uuid.UUID, forDate time.Time, r io.Reader) error {
	start := fiscal.StartFor(forDate)
	length := fiscal.YearLength(start)

	rooms, err := s.roomRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return err
	}
	byHeader := map[string]*models.Room{}
	for _, room := range rooms {
		byHeader[roomColumnHeader(room)] = room
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return utils.NewValidationError("Could not read rate sheet", err)
	}
	defer f.Close()

	rows, err := f.GetRows(rateSheetName)
	if err != nil || len(rows) < 2 {
		return utils.NewValidationError("Rate sheet has no rate rows", err)
	}

	header := rows[0]
	type column struct {
		idx  int
		room *models.Room
	}
	var columns []column
	for i, h := range header {
		if room, ok := byHeader[strings.TrimSpace(h)]; ok {
			columns = append(columns, column{idx: i, room: room})
		}
	}
	if len(columns) == 0 {
		return utils.NewValidationError("Rate sheet has no recognizable room columns", nil)
	}

	vectors := map[uuid.UUID][]float64{}
	for _, c := range columns {
		vectors[c.room.ID] = make([]float64, length)
	}

	for _, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		idx, ok := fiscal.DayIndex(start, day)
		if !ok {
			continue
		}
		for _, c := range columns {
			if c.idx >= len(row) {
				continue
			}
			price, err := strconv.ParseFloat(strings.TrimSpace(row[c.idx]), 64)
			if err != nil || price < 0 {
				price = 0
			}
			vectors[c.room.ID][idx] = price
		}
	}

	for _, c := range columns {
		rate := &models.RoomDailyRate{
			ID:        uuid.New(),
			HotelID:   hotelID,
			RoomID:    c.room.ID,
			RoomType:  c.room.Name,
			RatePlan:  c.room.RatePlan,
			YearStart: start,
			Prices:    vectors[c.room.ID],
		}
		if err := s.rateRepo.Upsert(ctx, rate); err != nil {
			return err
		}
	}

	utils.Logger.Infof("Stored rates for %d room columns, fiscal year %s",
		len(columns), start.Format("2006-01-02"))
	return nil
}
