package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/utils"
)

type RoomDailyRateRepository interface {
	// GetForYear returns the price vector for the room whose fiscal year
	// starts at yearStart. Missing year means the calendar was never
	// materialized and every day is unsellable.
	GetForYear(ctx context.Context, roomID uuid.UUID, yearStart time.Time) (*models.RoomDailyRate, error)

	ListByHotelYear(ctx context.Context, hotelID uuid.UUID, yearStart time.Time) ([]*models.RoomDailyRate, error)

	// Upsert inserts or replaces the full price vector for one room-year.
	Upsert(ctx context.Context, rate *models.RoomDailyRate) error
}

type roomDailyRateRepo struct {
	db DB
}

func NewRoomDailyRateRepository(db DB) RoomDailyRateRepository {
	return &roomDailyRateRepo{db: db}
}

func baseSelectRoomDailyRate() string {
	return `
        SELECT id, hotel_id, room_id, room_type, rate_plan,
               year_start, prices, created_at, updated_at
        FROM room_daily_rates
    `
}

func scanRoomDailyRate(row pgx.Row) (*models.RoomDailyRate, error) {
	var rate models.RoomDailyRate
	err := row.Scan(
		&rate.ID,
		&rate.HotelID,
		&rate.RoomID,
		&rate.RoomType,
		&rate.RatePlan,
		&rate.YearStart,
		&rate.Prices,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *roomDailyRateRepo) GetForYear(
	ctx context.Context,
	roomID uuid.UUID,
	yearStart time.Time,
) (*models.RoomDailyRate, error) {
	row := r.db.QueryRow(ctx, baseSelectRoomDailyRate()+`
        WHERE room_id=$1 AND year_start=$2
    `, roomID, yearStart)
	rate, err := scanRoomDailyRate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrRateYearNotFound
	}
	return rate, err
}

func (r *roomDailyRateRepo) ListByHotelYear(
	ctx context.Context,
	hotelID uuid.UUID,
	yearStart time.Time,
) ([]*models.RoomDailyRate, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomDailyRate()+`
        WHERE hotel_id=$1 AND year_start=$2
        ORDER BY room_type, rate_plan
    `, hotelID, yearStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.RoomDailyRate
	for rows.Next() {
		rate, err := scanRoomDailyRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}

func (r *roomDailyRateRepo) Upsert(ctx context.Context, rate *models.RoomDailyRate) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO room_daily_rates (
            id, hotel_id, room_id, room_type, rate_plan,
            year_start, prices, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
        ON CONFLICT (room_id, year_start) DO UPDATE SET
            room_type=EXCLUDED.room_type,
            rate_plan=EXCLUDED.rate_plan,
            prices=EXCLUDED.prices,
            updated_at=NOW()
    `,
		rate.ID, rate.HotelID, rate.RoomID, rate.RoomType, rate.RatePlan,
		rate.YearStart, rate.Prices,
	)
	return err
}
