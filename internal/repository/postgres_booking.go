package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showsewa/seat-inventory/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.ChannelBooking) error {
	query := `
		INSERT INTO channel_bookings (booking_reference, channel, showing_id, seats, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		booking.BookingReference,
		booking.Channel,
		booking.ShowingID,
		booking.Seats,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil && isUniqueViolation(err) {
		return domain.ErrBookingExists
	}

	return err
}

func (p *PostgresBookingRepository) GetByReference(
	ctx context.Context,
	bookingReference string) (*domain.ChannelBooking, error) {

	query := `
		SELECT id, booking_reference, channel, showing_id, seats, status, created_at, updated_at
		FROM channel_bookings
		WHERE booking_reference = $1
	`

	var booking domain.ChannelBooking

	err := p.db.QueryRow(ctx, query, bookingReference).Scan(
		&booking.ID,
		&booking.BookingReference,
		&booking.Channel,
		&booking.ShowingID,
		&booking.Seats,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) ListByShowing(
	ctx context.Context,
	showingID int64,
	statuses ...domain.BookingStatus) ([]domain.ChannelBooking, error) {

	if len(statuses) == 0 {
		statuses = []domain.BookingStatus{domain.BookingConfirmed, domain.BookingPending, domain.BookingCancelled}
	}

	statusNames := make([]string, len(statuses))
	for i, status := range statuses {
		statusNames[i] = string(status)
	}

	query := `
		SELECT id, booking_reference, channel, showing_id, seats, status, created_at, updated_at
		FROM channel_bookings
		WHERE showing_id = $1 AND status = ANY($2)
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, showingID, statusNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.ChannelBooking, 0)

	for rows.Next() {
		var booking domain.ChannelBooking

		err := rows.Scan(
			&booking.ID,
			&booking.BookingReference,
			&booking.Channel,
			&booking.ShowingID,
			&booking.Seats,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresBookingRepository) UpdateStatus(
	ctx context.Context,
	bookingReference string,
	status domain.BookingStatus) error {

	query := `
		UPDATE channel_bookings
		SET status = $1, updated_at = NOW()
		WHERE booking_reference = $2
	`

	tag, err := p.db.Exec(ctx, query, status, bookingReference)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
