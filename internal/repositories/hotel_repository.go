package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/utils"
)

type HotelRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Hotel, error)
}

type hotelRepo struct {
	db DB
}

func NewHotelRepository(db DB) HotelRepository {
	return &hotelRepo{db: db}
}

func (r *hotelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Hotel, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, name, address, city, state, country,
               latitude, longitude, time_zone, created_at, updated_at
        FROM hotels
        WHERE id=$1
    `, id)
	var h models.Hotel
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Address,
		&h.City,
		&h.State,
		&h.Country,
		&h.Latitude,
		&h.Longitude,
		&h.TimeZone,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrHotelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
