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

type RoomUnitRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.RoomUnit, error)
	ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]*models.RoomUnit, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.RoomUnit, error)
	ListByRoomNumbers(ctx context.Context, hotelID uuid.UUID, roomNumbers []string) ([]*models.RoomUnit, error)
	ListAll(ctx context.Context) ([]*models.RoomUnit, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RoomStatus) error
	UpdateCleaningStatus(ctx context.Context, id uuid.UUID, status models.CleaningStatus) error

	// ReplaceAvailability overwrites the unit's fiscal window and day
	// projection in one statement. Used by the rollover job and the
	// projection rebuild.
	ReplaceAvailability(ctx context.Context, id uuid.UUID, start time.Time, daily []models.RoomStatus) error
}

type roomUnitRepo struct {
	db DB
}

func NewRoomUnitRepository(db DB) RoomUnitRepository {
	return &roomUnitRepo{db: db}
}

func baseSelectRoomUnit() string {
	return `
        SELECT
            id, hotel_id, room_id, room_number, floor,
            status, cleaning_status,
            availability_start_date, daily_status,
            created_at, updated_at
        FROM room_units
    `
}

func scanRoomUnit(row pgx.Row) (*models.RoomUnit, error) {
	var unit models.RoomUnit
	var daily []string
	err := row.Scan(
		&unit.ID,
		&unit.HotelID,
		&unit.RoomID,
		&unit.RoomNumber,
		&unit.Floor,
		&unit.Status,
		&unit.CleaningStatus,
		&unit.AvailabilityStartDate,
		&daily,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	unit.DailyStatus = statusesFromStrings(daily)
	return &unit, nil
}

func statusesFromStrings(in []string) []models.RoomStatus {
	if in == nil {
		return nil
	}
	out := make([]models.RoomStatus, len(in))
	for i, s := range in {
		out[i] = models.RoomStatus(s)
	}
	return out
}

func statusesToStrings(in []models.RoomStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func collectRoomUnits(rows pgx.Rows) ([]*models.RoomUnit, error) {
	defer rows.Close()
	var out []*models.RoomUnit
	for rows.Next() {
		unit, err := scanRoomUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, unit)
	}
	return out, rows.Err()
}

func (r *roomUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RoomUnit, error) {
	row := r.db.QueryRow(ctx, baseSelectRoomUnit()+" WHERE id=$1", id)
	unit, err := scanRoomUnit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrRoomUnitNotFound
	}
	return unit, err
}

func (r *roomUnitRepo) ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]*models.RoomUnit, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomUnit()+" WHERE hotel_id=$1 ORDER BY room_number", hotelID)
	if err != nil {
		return nil, err
	}
	return collectRoomUnits(rows)
}

func (r *roomUnitRepo) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.RoomUnit, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomUnit()+" WHERE room_id=$1 ORDER BY room_number", roomID)
	if err != nil {
		return nil, err
	}
	return collectRoomUnits(rows)
}

func (r *roomUnitRepo) ListByRoomNumbers(
	ctx context.Context,
	hotelID uuid.UUID,
	roomNumbers []string,
) ([]*models.RoomUnit, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomUnit()+`
        WHERE hotel_id=$1 AND room_number = ANY($2)
        ORDER BY room_number
    `, hotelID, roomNumbers)
	if err != nil {
		return nil, err
	}
	return collectRoomUnits(rows)
}

func (r *roomUnitRepo) ListAll(ctx context.Context) ([]*models.RoomUnit, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomUnit()+" ORDER BY hotel_id, room_number")
	if err != nil {
		return nil, err
	}
	return collectRoomUnits(rows)
}

func (r *roomUnitRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RoomStatus) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE room_units SET status=$2, updated_at=NOW() WHERE id=$1
    `, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrRoomUnitNotFound
	}
	return nil
}

func (r *roomUnitRepo) UpdateCleaningStatus(ctx context.Context, id uuid.UUID, status models.CleaningStatus) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE room_units SET cleaning_status=$2, updated_at=NOW() WHERE id=$1
    `, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrRoomUnitNotFound
	}
	return nil
}

func (r *roomUnitRepo) ReplaceAvailability(
	ctx context.Context,
	id uuid.UUID,
	start time.Time,
	daily []models.RoomStatus,
) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE room_units
        SET availability_start_date=$2, daily_status=$3, updated_at=NOW()
        WHERE id=$1
    `, id, start, statusesToStrings(daily))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrRoomUnitNotFound
	}
	return nil
}
