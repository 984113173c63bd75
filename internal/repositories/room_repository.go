package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/utils"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	FindByTypeAndRate(ctx context.Context, hotelID uuid.UUID, name, ratePlan string) (*models.Room, error)
	ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]*models.Room, error)
}

type roomRepo struct {
	db DB
}

func NewRoomRepository(db DB) RoomRepository {
	return &roomRepo{db: db}
}

func baseSelectRoom() string {
	return `
        SELECT id, hotel_id, name, rate_plan, max_guests, room_numbers,
               created_at, updated_at
        FROM rooms
    `
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.HotelID,
		&room.Name,
		&room.RatePlan,
		&room.MaxGuests,
		&room.RoomNumbers,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := r.db.QueryRow(ctx, baseSelectRoom()+" WHERE id=$1", id)
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrRoomNotFound
	}
	return room, err
}

// FindByTypeAndRate matches case-insensitively on both fields; booking
// payloads carry whatever casing the channel sent.
func (r *roomRepo) FindByTypeAndRate(
	ctx context.Context,
	hotelID uuid.UUID,
	name, ratePlan string,
) (*models.Room, error) {
	row := r.db.QueryRow(ctx, baseSelectRoom()+`
        WHERE hotel_id=$1 AND LOWER(name)=LOWER($2) AND LOWER(rate_plan)=LOWER($3)
    `, hotelID, name, ratePlan)
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrRoomNotFound
	}
	return room, err
}

func (r *roomRepo) ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" WHERE hotel_id=$1 ORDER BY name, rate_plan", hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
