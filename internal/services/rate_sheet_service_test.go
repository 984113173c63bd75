package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stayloop/rooms-service/internal/fiscal"
	"github.com/stayloop/rooms-service/internal/models"
)

func newRateSheetFixture(t *testing.T) (*RateSheetService, *fakeStore, uuid.UUID, *models.Room) {
	t.Helper()
	store := newFakeStore()
	hotelID := uuid.New()
	room := &models.Room{
		ID:       uuid.New(),
		HotelID:  hotelID,
		Name:     "Deluxe",
		RatePlan: "CP",
	}
	store.rooms[room.ID] = room
	svc := NewRateSheetService(&fakeRoomRepo{store: store}, &fakeRateRepo{store: store})
	return svc, store, hotelID, room
}

func TestGenerateTemplateCoversFiscalYear(t *testing.T) {
	svc, _, hotelID, _ := newRateSheetFixture(t)

	forDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sheet, err := svc.GenerateTemplate(context.Background(), hotelID, forDate)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(sheet))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rateSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 366, "header plus 365 day rows")
	assert.Equal(t, []string{"Date", "Day", "Holiday", "Deluxe (CP)"}, rows[0][:4])
	assert.Equal(t, "2025-04-01", rows[1][0])
	assert.Equal(t, "2026-03-31", rows[365][0])
}

func TestParseAndStoreRoundTrip(t *testing.T) {
	svc, store, hotelID, room := newRateSheetFixture(t)
	ctx := context.Background()

	forDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sheet, err := svc.GenerateTemplate(ctx, hotelID, forDate)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(sheet))
	require.NoError(t, err)

	// Price the first two days of the year; leave the rest blank.
	require.NoError(t, f.SetCellValue(rateSheetName, "D2", 4200))
	require.NoError(t, f.SetCellValue(rateSheetName, "D3", "4500.50"))
	// A non-numeric cell parses as 0 (not sellable).
	require.NoError(t, f.SetCellValue(rateSheetName, "D4", "call manager"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, svc.ParseAndStore(ctx, hotelID, forDate, bytes.NewReader(buf.Bytes())))

	start := fiscal.StartFor(forDate)
	rate := store.rates[room.ID][start]
	require.NotNil(t, rate)
	require.Len(t, rate.Prices, 365)
	assert.Equal(t, 4200.0, rate.Prices[0])
	assert.Equal(t, 4500.5, rate.Prices[1])
	assert.Equal(t, 0.0, rate.Prices[2])
	assert.Equal(t, 0.0, rate.Prices[100])
}
