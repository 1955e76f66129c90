package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showsewa/seat-inventory/internal/domain"
)

type PostgresChannelConfigRepository struct {
	db *pgxpool.Pool
}

func NewPostgresChannelConfigRepository(db *pgxpool.Pool) *PostgresChannelConfigRepository {
	return &PostgresChannelConfigRepository{
		db: db,
	}
}

func (p *PostgresChannelConfigRepository) Get(
	ctx context.Context,
	theaterID int64) (*domain.TheaterChannelConfig, error) {

	query := `
		SELECT theater_id, enabled_channels, auto_sync, sync_interval_minutes,
			COALESCE(last_sync_at, 'epoch'::timestamptz), version, created_at, updated_at
		FROM theater_channel_configs
		WHERE theater_id = $1
	`

	var config domain.TheaterChannelConfig
	var channels []string

	err := p.db.QueryRow(ctx, query, theaterID).Scan(
		&config.TheaterID,
		&channels,
		&config.AutoSync,
		&config.SyncIntervalMinutes,
		&config.LastSyncAt,
		&config.Version,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	config.EnabledChannels = toChannels(channels)

	return &config, nil
}

// Upsert writes the administrative config. Updates are version-guarded like
// every other mutable record in the system.
func (p *PostgresChannelConfigRepository) Upsert(
	ctx context.Context,
	config *domain.TheaterChannelConfig) error {

	channels := make([]string, len(config.EnabledChannels))
	for i, channel := range config.EnabledChannels {
		channels[i] = string(channel)
	}

	if config.Version == 0 {
		query := `
			INSERT INTO theater_channel_configs (theater_id, enabled_channels, auto_sync, sync_interval_minutes)
			VALUES ($1, $2, $3, $4)
			RETURNING version, created_at, updated_at
		`

		err := p.db.QueryRow(
			ctx,
			query,
			config.TheaterID,
			channels,
			config.AutoSync,
			config.SyncIntervalMinutes,
		).Scan(&config.Version, &config.CreatedAt, &config.UpdatedAt)

		if err != nil && isUniqueViolation(err) {
			return domain.ErrEditConflict
		}

		return err
	}

	query := `
		UPDATE theater_channel_configs
		SET enabled_channels = $1, auto_sync = $2, sync_interval_minutes = $3,
			version = version + 1, updated_at = NOW()
		WHERE theater_id = $4 AND version = $5
		RETURNING version, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		channels,
		config.AutoSync,
		config.SyncIntervalMinutes,
		config.TheaterID,
		config.Version,
	).Scan(&config.Version, &config.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEditConflict
	}

	return err
}

func (p *PostgresChannelConfigRepository) UpdateLastSync(
	ctx context.Context,
	theaterID int64,
	syncedAt time.Time) error {

	query := `
		UPDATE theater_channel_configs
		SET last_sync_at = $1, updated_at = NOW()
		WHERE theater_id = $2
	`

	tag, err := p.db.Exec(ctx, query, syncedAt, theaterID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresChannelConfigRepository) ListAutoSync(ctx context.Context) ([]domain.TheaterChannelConfig, error) {
	query := `
		SELECT theater_id, enabled_channels, auto_sync, sync_interval_minutes,
			COALESCE(last_sync_at, 'epoch'::timestamptz), version, created_at, updated_at
		FROM theater_channel_configs
		WHERE auto_sync = TRUE
		ORDER BY theater_id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]domain.TheaterChannelConfig, 0)

	for rows.Next() {
		var config domain.TheaterChannelConfig
		var channels []string

		err := rows.Scan(
			&config.TheaterID,
			&channels,
			&config.AutoSync,
			&config.SyncIntervalMinutes,
			&config.LastSyncAt,
			&config.Version,
			&config.CreatedAt,
			&config.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		config.EnabledChannels = toChannels(channels)
		configs = append(configs, config)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

func toChannels(names []string) []domain.Channel {
	channels := make([]domain.Channel, len(names))
	for i, name := range names {
		channels[i] = domain.Channel(name)
	}
	return channels
}
