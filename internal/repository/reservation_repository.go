package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dateConstraint уникальный индекс "одна запись на день"
const dateConstraint = "reservations_booking_date_key"

// ErrDuplicateDay день уже занят другой записью (нарушен уникальный индекс)
var ErrDuplicateDay = errors.New("day already occupied")

// ErrReservationNotFound запись для обновления не найдена
var ErrReservationNotFound = errors.New("reservation not found")

const reservationColumns = `
	id, booking_date, kind, time_slot, school_name, contact_name, email, phone,
	address, city, number_of_talks, include_workshop, block_reason, edit_token,
	created_at, updated_at`

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет новую запись
func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, booking_date, kind, time_slot, school_name, contact_name, email, phone,
			address, city, number_of_talks, include_workshop, block_reason, edit_token
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	d := detailsOf(res)
	err := r.QueryRow(
		ctx, query,
		res.ID,
		res.Date,
		res.Kind,
		d.TimeSlot,
		d.SchoolName,
		d.ContactName,
		d.Email,
		d.Phone,
		d.Address,
		d.City,
		d.NumberOfTalks,
		d.IncludeWorkshop,
		res.BlockReason,
		res.EditToken,
	).Scan(&res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", mapWriteError(err))
	}

	return nil
}

// GetByToken получает бронь по токену редактирования. Блокировки токеном не доступны.
func (r *ReservationRepository) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE edit_token = $1 AND kind = 'booking'
	`

	res, err := scanReservation(r.QueryRow(ctx, query, token))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by token: %w", err)
	}

	return res, nil
}

// FindInRange ищет запись, занимающую день, кроме записи с excludeToken
func (r *ReservationRepository) FindInRange(ctx context.Context, rng dates.Range, excludeToken string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE booking_date BETWEEN $1 AND $2
		  AND ($3::text = '' OR edit_token <> $3::text)
		ORDER BY booking_date
		LIMIT 1
	`

	res, err := scanReservation(r.QueryRow(ctx, query, rng.Start, rng.End, excludeToken))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reservation in range: %w", err)
	}

	return res, nil
}

// ListInRange получает все записи диапазона, кроме записи с excludeToken
func (r *ReservationRepository) ListInRange(ctx context.Context, rng dates.Range, excludeToken string) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE booking_date BETWEEN $1 AND $2
		  AND ($3::text = '' OR edit_token <> $3::text)
		ORDER BY booking_date
	`

	rows, err := r.Query(ctx, query, rng.Start, rng.End, excludeToken)
	if err != nil {
		return nil, fmt.Errorf("list reservations in range: %w", err)
	}

	return collectReservations(rows)
}

// ListAll получает все записи по дате
func (r *ReservationRepository) ListAll(ctx context.Context) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		ORDER BY booking_date
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return collectReservations(rows)
}

// ListBlocked получает все блокировки админа
func (r *ReservationRepository) ListBlocked(ctx context.Context) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE kind = 'block'
		ORDER BY booking_date
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blocked days: %w", err)
	}

	return collectReservations(rows)
}

// Update перезаписывает дату и детали брони. Токен не меняется.
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations
		SET booking_date = $1, time_slot = $2, school_name = $3, contact_name = $4,
		    email = $5, phone = $6, address = $7, city = $8, number_of_talks = $9,
		    include_workshop = $10, updated_at = NOW()
		WHERE id = $11 AND kind = 'booking'
		RETURNING updated_at
	`

	d := detailsOf(res)
	err := r.QueryRow(
		ctx, query,
		res.Date,
		d.TimeSlot,
		d.SchoolName,
		d.ContactName,
		d.Email,
		d.Phone,
		d.Address,
		d.City,
		d.NumberOfTalks,
		d.IncludeWorkshop,
		res.ID,
	).Scan(&res.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("update reservation: %w", mapWriteError(err))
	}

	return nil
}

// DeleteByToken удаляет бронь по токену, возвращает false если её не было
func (r *ReservationRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`DELETE FROM reservations WHERE edit_token = $1 AND kind = 'booking'`, token)
	if err != nil {
		return false, fmt.Errorf("delete reservation: %w", err)
	}

	return affected > 0, nil
}

// DeleteBlock удаляет блокировку в пределах дня
func (r *ReservationRepository) DeleteBlock(ctx context.Context, rng dates.Range) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`DELETE FROM reservations WHERE kind = 'block' AND booking_date BETWEEN $1 AND $2`,
		rng.Start, rng.End)
	if err != nil {
		return false, fmt.Errorf("delete block: %w", err)
	}

	return affected > 0, nil
}

// Ping проверяет соединение с базой
func (r *ReservationRepository) Ping(ctx context.Context) error {
	return r.Pool().Ping(ctx)
}

func mapWriteError(err error) error {
	if name, ok := base.UniqueViolation(err); ok && name == dateConstraint {
		return fmt.Errorf("%w: %v", ErrDuplicateDay, err)
	}
	return err
}

// detailsOf возвращает колонки деталей; для блокировки заглушки
func detailsOf(res *model.Reservation) model.BookingDetails {
	if res.Kind == model.OccupancyBooking && res.Booking != nil {
		return *res.Booking
	}
	return model.BookingDetails{TimeSlot: model.TimeSlotBlocked}
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		res     model.Reservation
		details model.BookingDetails
	)

	err := row.Scan(
		&res.ID,
		&res.Date,
		&res.Kind,
		&details.TimeSlot,
		&details.SchoolName,
		&details.ContactName,
		&details.Email,
		&details.Phone,
		&details.Address,
		&details.City,
		&details.NumberOfTalks,
		&details.IncludeWorkshop,
		&res.BlockReason,
		&res.EditToken,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Date = res.Date.UTC()
	if res.Kind == model.OccupancyBooking {
		res.Booking = &details
	}

	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]*model.Reservation, error) {
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, nil
}
