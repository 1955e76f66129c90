package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showsewa/seat-inventory/internal/domain"
)

type PostgresConflictRepository struct {
	db *pgxpool.Pool
}

func NewPostgresConflictRepository(db *pgxpool.Pool) *PostgresConflictRepository {
	return &PostgresConflictRepository{
		db: db,
	}
}

func (p *PostgresConflictRepository) Create(ctx context.Context, conflict *domain.ReconciliationConflict) error {
	query := `
		INSERT INTO reconciliation_conflicts (
			id,
			theater_id,
			showing_id,
			seat_id,
			channel,
			ledger_reference,
			channel_reference,
			detail,
			detected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`

	_, err := p.db.Exec(
		ctx,
		query,
		conflict.ID,
		conflict.TheaterID,
		conflict.ShowingID,
		conflict.SeatID,
		conflict.Channel,
		conflict.LedgerReference,
		conflict.ChannelReference,
		conflict.Detail,
		conflict.DetectedAt,
	)

	return err
}

func (p *PostgresConflictRepository) ListOpenByTheater(
	ctx context.Context,
	theaterID int64) ([]domain.ReconciliationConflict, error) {

	query := `
		SELECT id, theater_id, showing_id, seat_id, channel,
			ledger_reference, channel_reference, detail, detected_at
		FROM reconciliation_conflicts
		WHERE theater_id = $1 AND resolved_at IS NULL
		ORDER BY detected_at
	`

	rows, err := p.db.Query(ctx, query, theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts := make([]domain.ReconciliationConflict, 0)

	for rows.Next() {
		var conflict domain.ReconciliationConflict

		err := rows.Scan(
			&conflict.ID,
			&conflict.TheaterID,
			&conflict.ShowingID,
			&conflict.SeatID,
			&conflict.Channel,
			&conflict.LedgerReference,
			&conflict.ChannelReference,
			&conflict.Detail,
			&conflict.DetectedAt,
		)
		if err != nil {
			return nil, err
		}

		conflicts = append(conflicts, conflict)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return conflicts, nil
}

func (p *PostgresConflictRepository) Resolve(ctx context.Context, conflictID string, resolvedAt time.Time) error {
	query := `
		UPDATE reconciliation_conflicts
		SET resolved_at = $1
		WHERE id = $2 AND resolved_at IS NULL
	`

	tag, err := p.db.Exec(ctx, query, resolvedAt, conflictID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
