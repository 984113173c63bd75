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

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type ReservationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)

	// ListForUnits returns active reservations on the given units that
	// overlap [from, to), skipping the excluded reservation id.
	ListForUnits(ctx context.Context, unitIDs []uuid.UUID, from, to time.Time, exclude uuid.UUID) ([]*models.Reservation, error)

	// ListActiveCheckouts returns every active reservation holding a room
	// unit, regardless of checkout instant. The scheduler rehydrates from
	// this set and fires past-due transitions immediately.
	ListActiveCheckouts(ctx context.Context) ([]*models.Reservation, error)

	// ListForUnitWindow returns active reservations for one unit whose stay
	// intersects [from, to). Used to rebuild the day projection.
	ListForUnitWindow(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]*models.Reservation, error)

	// CreateAtomic performs the conflict check and the insert inside one
	// transaction, locking the unit rows first. This is the only
	// serialization point guarding against concurrent double-booking.
	// Returns utils.ErrReservationConflict when any unit overlaps.
	CreateAtomic(ctx context.Context, res *models.Reservation, unitIDs []uuid.UUID) error

	// UpdateAtomic re-runs the conflict check excluding the reservation's own
	// record, persists the new fields, and maintains unit statuses when the
	// primary unit changed.
	UpdateAtomic(ctx context.Context, res *models.Reservation, prevUnitID *uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type reservationRepo struct {
	db DB
}

func NewReservationRepository(db DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func baseSelectReservation() string {
	return `
        SELECT
            id, hotel_id, state, check_in, check_out, nights,
            room_type, rate_plan, guests, rooms, room_no,
            room_unit_id, connected_room_ids, is_maintenance,
            guest_name, email, phone, dob, address, city, country,
            id_detail, special_request, booked_by, business_segment,
            payment_mode, per_day_rate, per_day_tax, tax_inclusive,
            total_amount, created_at, updated_at
        FROM reservations
    `
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var res models.Reservation
	var connected []uuid.UUID
	var dob *time.Time
	err := row.Scan(
		&res.ID,
		&res.HotelID,
		&res.State,
		&res.CheckIn,
		&res.CheckOut,
		&res.Nights,
		&res.RoomType,
		&res.RatePlan,
		&res.Guests,
		&res.Rooms,
		&res.RoomNo,
		&res.RoomUnitID,
		&connected,
		&res.IsMaintenance,
		&res.GuestName,
		&res.Email,
		&res.Phone,
		&dob,
		&res.Address,
		&res.City,
		&res.Country,
		&res.IDDetail,
		&res.SpecialRequest,
		&res.BookedBy,
		&res.BusinessSegment,
		&res.PaymentMode,
		&res.PerDayRate,
		&res.PerDayTax,
		&res.TaxInclusive,
		&res.TotalAmount,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.ConnectedRoomIDs = connected
	res.DOB = dob
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]*models.Reservation, error) {
	defer rows.Close()
	var out []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	row := r.db.QueryRow(ctx, baseSelectReservation()+" WHERE id=$1", id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrReservationNotFound
	}
	return res, err
}

func (r *reservationRepo) ListForUnits(
	ctx context.Context,
	unitIDs []uuid.UUID,
	from, to time.Time,
	exclude uuid.UUID,
) ([]*models.Reservation, error) {
	rows, err := r.db.Query(ctx, baseSelectReservation()+`
        WHERE room_unit_id = ANY($1)
          AND id <> $2
          AND state NOT IN ('CANCELLED', 'NO_SHOW')
          AND check_in < $3
          AND check_out > $4
    `, unitIDs, exclude, to, from)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *reservationRepo) ListActiveCheckouts(ctx context.Context) ([]*models.Reservation, error) {
	rows, err := r.db.Query(ctx, baseSelectReservation()+`
        WHERE room_unit_id IS NOT NULL
          AND state NOT IN ('CANCELLED', 'NO_SHOW')
    `)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *reservationRepo) ListForUnitWindow(
	ctx context.Context,
	unitID uuid.UUID,
	from, to time.Time,
) ([]*models.Reservation, error) {
	rows, err := r.db.Query(ctx, baseSelectReservation()+`
        WHERE room_unit_id = $1
          AND state NOT IN ('CANCELLED', 'NO_SHOW')
          AND check_in < $2
          AND check_out > $3
    `, unitID, to, from)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func insertReservation(ctx context.Context, tx pgx.Tx, res *models.Reservation) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO reservations (
            id, hotel_id, state, check_in, check_out, nights,
            room_type, rate_plan, guests, rooms, room_no,
            room_unit_id, connected_room_ids, is_maintenance,
            guest_name, email, phone, dob, address, city, country,
            id_detail, special_request, booked_by, business_segment,
            payment_mode, per_day_rate, per_day_tax, tax_inclusive,
            total_amount, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
            $17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,
            NOW(), NOW()
        )
    `,
		res.ID, res.HotelID, res.State, res.CheckIn, res.CheckOut, res.Nights,
		res.RoomType, res.RatePlan, res.Guests, res.Rooms, res.RoomNo,
		res.RoomUnitID, res.ConnectedRoomIDs, res.IsMaintenance,
		res.GuestName, res.Email, res.Phone, res.DOB, res.Address, res.City, res.Country,
		res.IDDetail, res.SpecialRequest, res.BookedBy, res.BusinessSegment,
		res.PaymentMode, res.PerDayRate, res.PerDayTax, res.TaxInclusive,
		res.TotalAmount,
	)
	return err
}

// lockUnitsAndCheckOverlap takes row locks on the unit rows, then counts
// active overlapping reservations. Both steps run on the caller's tx so two
// concurrent bookings for the same unit serialize on the lock instead of
// both passing the check.
func lockUnitsAndCheckOverlap(
	ctx context.Context,
	tx pgx.Tx,
	unitIDs []uuid.UUID,
	from, to time.Time,
	exclude uuid.UUID,
) error {
	rows, err := tx.Query(ctx, `SELECT id FROM room_units WHERE id = ANY($1) FOR UPDATE`, unitIDs)
	if err != nil {
		return err
	}
	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if locked != len(unitIDs) {
		return utils.ErrRoomUnitNotFound
	}

	var overlapping int
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM reservations
        WHERE room_unit_id = ANY($1)
          AND id <> $2
          AND state NOT IN ('CANCELLED', 'NO_SHOW')
          AND check_in < $3
          AND check_out > $4
    `, unitIDs, exclude, to, from).Scan(&overlapping)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return utils.ErrReservationConflict
	}
	return nil
}

func (r *reservationRepo) CreateAtomic(ctx context.Context, res *models.Reservation, unitIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockUnitsAndCheckOverlap(ctx, tx, unitIDs, res.CheckIn, res.CheckOut, uuid.Nil); err != nil {
		return err
	}
	if err := insertReservation(ctx, tx, res); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
        UPDATE room_units SET status=$1, updated_at=NOW() WHERE id = ANY($2)
    `, models.RoomStatusBooked, unitIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *reservationRepo) UpdateAtomic(ctx context.Context, res *models.Reservation, prevUnitID *uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if res.RoomUnitID != nil {
		err := lockUnitsAndCheckOverlap(ctx, tx, []uuid.UUID{*res.RoomUnitID}, res.CheckIn, res.CheckOut, res.ID)
		if err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
        UPDATE reservations SET
            state=$2, check_in=$3, check_out=$4, nights=$5,
            room_type=$6, rate_plan=$7, guests=$8, rooms=$9, room_no=$10,
            room_unit_id=$11, connected_room_ids=$12,
            guest_name=$13, email=$14, phone=$15, special_request=$16,
            payment_mode=$17, per_day_rate=$18, per_day_tax=$19,
            tax_inclusive=$20, total_amount=$21, updated_at=NOW()
        WHERE id=$1
    `,
		res.ID, res.State, res.CheckIn, res.CheckOut, res.Nights,
		res.RoomType, res.RatePlan, res.Guests, res.Rooms, res.RoomNo,
		res.RoomUnitID, res.ConnectedRoomIDs,
		res.GuestName, res.Email, res.Phone, res.SpecialRequest,
		res.PaymentMode, res.PerDayRate, res.PerDayTax,
		res.TaxInclusive, res.TotalAmount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrReservationNotFound
	}

	// Moving to a different unit frees the old one and claims the new one.
	if prevUnitID != nil && (res.RoomUnitID == nil || *prevUnitID != *res.RoomUnitID) {
		if _, err := tx.Exec(ctx, `
            UPDATE room_units SET status=$1, updated_at=NOW() WHERE id=$2
        `, models.RoomStatusAvailable, *prevUnitID); err != nil {
			return err
		}
	}
	if res.RoomUnitID != nil {
		if _, err := tx.Exec(ctx, `
            UPDATE room_units SET status=$1, updated_at=NOW() WHERE id=$2
        `, models.RoomStatusBooked, *res.RoomUnitID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *reservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrReservationNotFound
	}
	return nil
}
