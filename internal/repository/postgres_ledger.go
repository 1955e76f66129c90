package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showsewa/seat-inventory/internal/domain"
)

type PostgresLedgerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresLedgerRepository(db *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{
		db: db,
	}
}

const seatColumns = `
	showing_id, seat_id, state, category, price,
	COALESCE(holder_token::text, ''), COALESCE(hold_expires_at, 'epoch'::timestamptz),
	COALESCE(channel, ''), version,
	COALESCE(sold_at, 'epoch'::timestamptz), COALESCE(booking_reference, ''),
	created_at, updated_at
`

func scanSeat(row pgx.Row) (domain.SeatRecord, error) {
	var seat domain.SeatRecord

	err := row.Scan(
		&seat.ShowingID,
		&seat.SeatID,
		&seat.State,
		&seat.Category,
		&seat.Price,
		&seat.HolderToken,
		&seat.HoldExpiresAt,
		&seat.Channel,
		&seat.Version,
		&seat.SoldAt,
		&seat.BookingReference,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	return seat, err
}

func collectSeats(rows pgx.Rows) ([]domain.SeatRecord, error) {
	defer rows.Close()

	seats := make([]domain.SeatRecord, 0)

	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresLedgerRepository) ProvisionShowing(
	ctx context.Context,
	showing domain.Showing,
	layout []domain.SeatLayout) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO showings (id, theater_id, screen, starts_at)
			VALUES ($1, $2, $3, $4)
		`

		_, err := tx.Exec(ctx, query, showing.ID, showing.TheaterID, showing.Screen, showing.StartsAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrShowingExists
			}

			return err
		}

		rows := make([][]any, 0, len(layout))
		for _, seat := range layout {
			rows = append(rows, []any{
				showing.ID,
				seat.SeatID,
				string(domain.SeatAvailable),
				seat.Category,
				seat.Price,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"seat_records"},
			[]string{"showing_id", "seat_id", "state", "category", "price"},
			pgx.CopyFromRows(rows),
		)

		return err
	})
}

func (p *PostgresLedgerRepository) GetShowing(ctx context.Context, showingID int64) (*domain.Showing, error) {
	query := `
		SELECT id, theater_id, screen, starts_at, COALESCE(retired_at, 'epoch'::timestamptz)
		FROM showings
		WHERE id = $1
	`

	var showing domain.Showing

	err := p.db.QueryRow(ctx, query, showingID).Scan(
		&showing.ID,
		&showing.TheaterID,
		&showing.Screen,
		&showing.StartsAt,
		&showing.RetiredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &showing, nil
}

func (p *PostgresLedgerRepository) GetSeats(ctx context.Context, showingID int64) ([]domain.SeatRecord, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE showing_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showingID)
	if err != nil {
		return nil, err
	}

	seats, err := collectSeats(rows)
	if err != nil {
		return nil, err
	}

	if len(seats) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	return seats, nil
}

func (p *PostgresLedgerRepository) GetSeatsByIDs(
	ctx context.Context,
	showingID int64,
	seatIDs []string) ([]domain.SeatRecord, error) {

	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE showing_id = $1 AND seat_id = ANY($2)
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showingID, seatIDs)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (p *PostgresLedgerRepository) GetSeatsByHolder(
	ctx context.Context,
	holderToken string) ([]domain.SeatRecord, error) {

	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE holder_token = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, holderToken)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

// HoldSeats transitions every requested seat from AVAILABLE to HELD in one
// transaction. The rows are locked up front, so the per-row version guard can
// only fail against writers outside this transaction; any failure rolls back
// the whole batch and no partial hold is left behind.
func (p *PostgresLedgerRepository) HoldSeats(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	holderToken string,
	expiresAt time.Time) ([]domain.SeatRecord, error) {

	var held []domain.SeatRecord

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showingID, seatIDs)
		if err != nil {
			return err
		}

		if len(seats) != len(seatIDs) {
			return domain.ErrRecordNotFound
		}

		unavailable := make([]string, 0)
		for _, seat := range seats {
			if seat.State != domain.SeatAvailable {
				unavailable = append(unavailable, seat.SeatID)
			}
		}

		if len(unavailable) > 0 {
			return &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: unavailable}
		}

		query := `
			UPDATE seat_records
			SET state = $1, holder_token = $2, hold_expires_at = $3, channel = $4,
				version = version + 1, updated_at = NOW()
			WHERE showing_id = $5 AND seat_id = $6 AND version = $7 AND state = $8
			RETURNING ` + seatColumns

		held = make([]domain.SeatRecord, 0, len(seats))

		for _, seat := range seats {
			updated, err := scanSeat(tx.QueryRow(
				ctx,
				query,
				domain.SeatHeld,
				holderToken,
				expiresAt,
				channel,
				showingID,
				seat.SeatID,
				seat.Version,
				domain.SeatAvailable,
			))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domain.ErrEditConflict
				}

				return err
			}

			held = append(held, updated)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return held, nil
}

// ExtendHold pushes the deadline of every seat under the token forward. It
// fails with ErrHoldExpired when any seat's deadline has already passed, even
// if the reaper has not gotten to it yet.
func (p *PostgresLedgerRepository) ExtendHold(
	ctx context.Context,
	holderToken string,
	now, expiresAt time.Time) (int, error) {

	extended := 0

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeatsByHolder(ctx, tx, holderToken)
		if err != nil {
			return err
		}

		if len(seats) == 0 {
			return domain.ErrHoldNotFound
		}

		for _, seat := range seats {
			if seat.HoldExpired(now) {
				return domain.ErrHoldExpired
			}
		}

		query := `
			UPDATE seat_records
			SET hold_expires_at = $1, version = version + 1, updated_at = NOW()
			WHERE holder_token = $2 AND state = $3
		`

		tag, err := tx.Exec(ctx, query, expiresAt, holderToken, domain.SeatHeld)
		if err != nil {
			return err
		}

		extended = int(tag.RowsAffected())

		return nil
	})
	if err != nil {
		return 0, err
	}

	return extended, nil
}

// ReleaseHold returns every seat under the token to AVAILABLE. Zero affected
// rows is not an error: releasing an expired or already-released hold is a
// no-op by contract.
func (p *PostgresLedgerRepository) ReleaseHold(ctx context.Context, holderToken string) (int, error) {
	query := `
		UPDATE seat_records
		SET state = $1, holder_token = NULL, hold_expires_at = NULL, channel = NULL,
			version = version + 1, updated_at = NOW()
		WHERE holder_token = $2 AND state = $3
	`

	tag, err := p.db.Exec(ctx, query, domain.SeatAvailable, holderToken, domain.SeatHeld)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

// ReleaseSeat is the reaper's per-seat check-and-set. A reap that loses the
// race against a concurrent confirm or extend observes a stale version and
// fails with ErrEditConflict instead of touching the row.
func (p *PostgresLedgerRepository) ReleaseSeat(
	ctx context.Context,
	showingID int64,
	seatID string,
	version int64) error {

	query := `
		UPDATE seat_records
		SET state = $1, holder_token = NULL, hold_expires_at = NULL, channel = NULL,
			version = version + 1, updated_at = NOW()
		WHERE showing_id = $2 AND seat_id = $3 AND version = $4 AND state = $5
	`

	tag, err := p.db.Exec(ctx, query, domain.SeatAvailable, showingID, seatID, version, domain.SeatHeld)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEditConflict
	}

	return nil
}

// ConfirmHold transitions every seat under the token from HELD to SOLD and
// appends the CONFIRMED audit row in the same transaction. A duplicate
// booking reference surfaces as ErrBookingExists so the caller can return
// the original result idempotently.
func (p *PostgresLedgerRepository) ConfirmHold(
	ctx context.Context,
	holderToken, bookingReference string,
	channel domain.Channel,
	now time.Time) (*domain.ChannelBooking, error) {

	var booking *domain.ChannelBooking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeatsByHolder(ctx, tx, holderToken)
		if err != nil {
			return err
		}

		if len(seats) == 0 {
			return domain.ErrHoldNotFound
		}

		seatIDs := make([]string, 0, len(seats))
		showingID := seats[0].ShowingID

		for _, seat := range seats {
			if seat.HoldExpired(now) {
				return domain.ErrHoldExpired
			}

			seatIDs = append(seatIDs, seat.SeatID)
		}

		query := `
			UPDATE seat_records
			SET state = $1, holder_token = NULL, hold_expires_at = NULL,
				sold_at = $2, booking_reference = $3,
				version = version + 1, updated_at = NOW()
			WHERE showing_id = $4 AND seat_id = $5 AND version = $6 AND state = $7
		`

		for _, seat := range seats {
			tag, err := tx.Exec(
				ctx,
				query,
				domain.SeatSold,
				now,
				bookingReference,
				showingID,
				seat.SeatID,
				seat.Version,
				domain.SeatHeld,
			)
			if err != nil {
				return err
			}

			if tag.RowsAffected() == 0 {
				return domain.ErrEditConflict
			}
		}

		booking, err = insertBooking(ctx, tx, domain.ChannelBooking{
			BookingReference: bookingReference,
			Channel:          channel,
			ShowingID:        showingID,
			Seats:            seatIDs,
			Status:           domain.BookingConfirmed,
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// MarkSeatsSold is the after-the-fact channel path: a direct AVAILABLE to
// SOLD transition carrying the channel's own external reference. The audit
// row is recorded separately by the gateway before the seats are claimed.
func (p *PostgresLedgerRepository) MarkSeatsSold(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	bookingReference string,
	now time.Time) ([]domain.SeatRecord, error) {

	var sold []domain.SeatRecord

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showingID, seatIDs)
		if err != nil {
			return err
		}

		if len(seats) != len(seatIDs) {
			return domain.ErrRecordNotFound
		}

		unavailable := make([]string, 0)
		for _, seat := range seats {
			if seat.State != domain.SeatAvailable {
				unavailable = append(unavailable, seat.SeatID)
			}
		}

		if len(unavailable) > 0 {
			return &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: unavailable}
		}

		query := `
			UPDATE seat_records
			SET state = $1, channel = $2, sold_at = $3, booking_reference = $4,
				version = version + 1, updated_at = NOW()
			WHERE showing_id = $5 AND seat_id = $6 AND version = $7 AND state = $8
			RETURNING ` + seatColumns

		sold = make([]domain.SeatRecord, 0, len(seats))

		for _, seat := range seats {
			updated, err := scanSeat(tx.QueryRow(
				ctx,
				query,
				domain.SeatSold,
				channel,
				now,
				bookingReference,
				showingID,
				seat.SeatID,
				seat.Version,
				domain.SeatAvailable,
			))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domain.ErrEditConflict
				}

				return err
			}

			sold = append(sold, updated)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sold, nil
}

// CancelSale returns the seats named by the booking to AVAILABLE and flips
// the audit row to CANCELLED. The original CONFIRMED record is never deleted.
func (p *PostgresLedgerRepository) CancelSale(
	ctx context.Context,
	bookingReference string,
	now time.Time) (*domain.ChannelBooking, error) {

	var booking *domain.ChannelBooking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, booking_reference, channel, showing_id, seats, status, created_at, updated_at
			FROM channel_bookings
			WHERE booking_reference = $1
			FOR UPDATE
		`

		var found domain.ChannelBooking

		err := tx.QueryRow(ctx, query, bookingReference).Scan(
			&found.ID,
			&found.BookingReference,
			&found.Channel,
			&found.ShowingID,
			&found.Seats,
			&found.Status,
			&found.CreatedAt,
			&found.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if found.Status != domain.BookingConfirmed {
			return domain.ErrRecordNotFound
		}

		release := `
			UPDATE seat_records
			SET state = $1, channel = NULL, sold_at = NULL, booking_reference = NULL,
				version = version + 1, updated_at = NOW()
			WHERE showing_id = $2 AND seat_id = ANY($3) AND state = $4 AND booking_reference = $5
		`

		_, err = tx.Exec(
			ctx,
			release,
			domain.SeatAvailable,
			found.ShowingID,
			found.Seats,
			domain.SeatSold,
			bookingReference,
		)
		if err != nil {
			return err
		}

		update := `
			UPDATE channel_bookings
			SET status = $1, updated_at = $2
			WHERE booking_reference = $3
		`

		_, err = tx.Exec(ctx, update, domain.BookingCancelled, now, bookingReference)
		if err != nil {
			return err
		}

		found.Status = domain.BookingCancelled
		found.UpdatedAt = now
		booking = &found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (p *PostgresLedgerRepository) BlockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	return p.setBlocked(ctx, showingID, seatIDs, domain.SeatBlocked, []domain.SeatState{domain.SeatAvailable, domain.SeatHeld})
}

func (p *PostgresLedgerRepository) UnblockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	return p.setBlocked(ctx, showingID, seatIDs, domain.SeatAvailable, []domain.SeatState{domain.SeatBlocked})
}

func (p *PostgresLedgerRepository) setBlocked(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	to domain.SeatState,
	from []domain.SeatState) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showingID, seatIDs)
		if err != nil {
			return err
		}

		if len(seats) != len(seatIDs) {
			return domain.ErrRecordNotFound
		}

		blocked := make([]string, 0)
		for _, seat := range seats {
			if !containsState(from, seat.State) {
				blocked = append(blocked, seat.SeatID)
			}
		}

		if len(blocked) > 0 {
			return &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: blocked}
		}

		query := `
			UPDATE seat_records
			SET state = $1, holder_token = NULL, hold_expires_at = NULL, channel = NULL,
				version = version + 1, updated_at = NOW()
			WHERE showing_id = $2 AND seat_id = $3 AND version = $4
		`

		for _, seat := range seats {
			tag, err := tx.Exec(ctx, query, to, showingID, seat.SeatID, seat.Version)
			if err != nil {
				return err
			}

			if tag.RowsAffected() == 0 {
				return domain.ErrEditConflict
			}
		}

		return nil
	})
}

// ExpiredHolds returns HELD rows whose deadline has passed. The reaper
// releases them one by one through ReleaseSeat, so a row that gets confirmed
// between the scan and the release is left alone.
func (p *PostgresLedgerRepository) ExpiredHolds(
	ctx context.Context,
	now time.Time,
	limit int) ([]domain.SeatRecord, error) {

	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE state = $1 AND hold_expires_at <= $2
		ORDER BY hold_expires_at
		LIMIT $3
	`

	rows, err := p.db.Query(ctx, query, domain.SeatHeld, now, limit)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (p *PostgresLedgerRepository) ActiveShowingsByTheater(
	ctx context.Context,
	theaterID int64,
	now time.Time) ([]domain.Showing, error) {

	query := `
		SELECT id, theater_id, screen, starts_at, COALESCE(retired_at, 'epoch'::timestamptz)
		FROM showings
		WHERE theater_id = $1 AND retired_at IS NULL AND starts_at > $2
		ORDER BY starts_at
	`

	rows, err := p.db.Query(ctx, query, theaterID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showings := make([]domain.Showing, 0)

	for rows.Next() {
		var showing domain.Showing

		err := rows.Scan(
			&showing.ID,
			&showing.TheaterID,
			&showing.Screen,
			&showing.StartsAt,
			&showing.RetiredAt,
		)
		if err != nil {
			return nil, err
		}

		showings = append(showings, showing)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return showings, nil
}

func lockSeats(ctx context.Context, tx pgx.Tx, showingID int64, seatIDs []string) ([]domain.SeatRecord, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE showing_id = $1 AND seat_id = ANY($2)
		ORDER BY seat_id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, showingID, seatIDs)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func lockSeatsByHolder(ctx context.Context, tx pgx.Tx, holderToken string) ([]domain.SeatRecord, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seat_records
		WHERE holder_token = $1 AND state = $2
		ORDER BY seat_id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, holderToken, domain.SeatHeld)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func insertBooking(ctx context.Context, tx pgx.Tx, booking domain.ChannelBooking) (*domain.ChannelBooking, error) {
	query := `
		INSERT INTO channel_bookings (booking_reference, channel, showing_id, seats, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		booking.BookingReference,
		booking.Channel,
		booking.ShowingID,
		booking.Seats,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrBookingExists
		}

		return nil, err
	}

	return &booking, nil
}

func containsState(states []domain.SeatState, state domain.SeatState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
