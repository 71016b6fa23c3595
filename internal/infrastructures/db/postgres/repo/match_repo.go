package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
)

type Repository struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Repository, error) {
	poolCfg, err := buildPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", derr.ErrStoreUnavailable, err)
	}

	return &Repository{db: pool}, nil
}

func buildPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

	return poolCfg, nil
}

func (r *Repository) Close() {
	r.db.Close()
}

const matchColumns = `
	match_id,
	name,
	format,
	team_a,
	team_b,
	venue,
	starts_at,
	status,
	state,
	series_id,
	score,
	priority,
	last_fetched_at,
	needs_frequent_refresh
`

func (r *Repository) GetByID(ctx context.Context, id models.MatchID) (models.MatchRecord, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE match_id = $1
	`

	record, err := scanMatch(r.db.QueryRow(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MatchRecord{}, derr.ErrMatchNotFound
		}
		return models.MatchRecord{}, fmt.Errorf("query match by id: %w", err)
	}

	return record, nil
}

func (r *Repository) Upsert(ctx context.Context, record models.MatchRecord) error {
	const query = `
		INSERT INTO matches (
			match_id,
			name,
			format,
			team_a,
			team_b,
			venue,
			starts_at,
			status,
			state,
			series_id,
			score,
			priority,
			last_fetched_at,
			needs_frequent_refresh
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (match_id) DO UPDATE SET
			name = EXCLUDED.name,
			format = EXCLUDED.format,
			team_a = EXCLUDED.team_a,
			team_b = EXCLUDED.team_b,
			venue = EXCLUDED.venue,
			starts_at = EXCLUDED.starts_at,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			series_id = EXCLUDED.series_id,
			score = EXCLUDED.score,
			priority = EXCLUDED.priority,
			last_fetched_at = EXCLUDED.last_fetched_at,
			needs_frequent_refresh = EXCLUDED.needs_frequent_refresh
	`

	var score []byte
	if len(record.ScoreSnapshot) > 0 {
		score = record.ScoreSnapshot
	}

	_, err := r.db.Exec(ctx, query,
		string(record.ID),
		record.Name,
		string(record.Format),
		record.Teams[0],
		record.Teams[1],
		record.Venue,
		record.StartsAtUTC,
		record.Status,
		string(record.State),
		record.SeriesID,
		score,
		record.Priority,
		record.LastFetchedAt,
		record.NeedsFrequentRefresh,
	)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}

	return nil
}

func (r *Repository) ListWindow(ctx context.Context, from, to time.Time) ([]models.MatchRecord, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE starts_at BETWEEN $1 AND $2
		ORDER BY priority DESC, starts_at ASC
	`

	return r.listMatches(ctx, query, from, to)
}

func (r *Repository) ListFlagged(ctx context.Context) ([]models.MatchRecord, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE needs_frequent_refresh
		ORDER BY starts_at ASC
	`

	return r.listMatches(ctx, query)
}

func (r *Repository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.MatchRecord, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE state <> 'ended'
		  AND starts_at BETWEEN $1 AND $2
		ORDER BY starts_at ASC
	`

	return r.listMatches(ctx, query, from, to)
}

func (r *Repository) AnyActive(ctx context.Context, now time.Time, ahead, skew time.Duration) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM matches
			WHERE state = 'live'
			   OR (state = 'scheduled' AND starts_at BETWEEN $1 AND $2)
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, now.Add(-skew), now.Add(ahead)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query active matches: %w", err)
	}

	return exists, nil
}

func (r *Repository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM matches
		WHERE state = 'ended'
		  AND starts_at < $1
	`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete ended matches: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *Repository) Stats(ctx context.Context) (ports.StoreStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE state = 'live'),
			COUNT(*) FILTER (WHERE state = 'scheduled'),
			COUNT(*) FILTER (WHERE state = 'ended'),
			COUNT(*) FILTER (WHERE needs_frequent_refresh)
		FROM matches
	`

	var stats ports.StoreStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Live,
		&stats.Upcoming,
		&stats.Ended,
		&stats.Flagged,
	)
	if err != nil {
		return ports.StoreStats{}, fmt.Errorf("query match stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) NewestFetchAt(ctx context.Context) (time.Time, error) {
	const query = `
		SELECT COALESCE(MAX(last_fetched_at), 'epoch'::timestamptz)
		FROM matches
	`

	var newest time.Time
	if err := r.db.QueryRow(ctx, query).Scan(&newest); err != nil {
		return time.Time{}, fmt.Errorf("query newest fetch time: %w", err)
	}

	if newest.Unix() <= 0 {
		return time.Time{}, nil
	}
	return newest, nil
}

func (r *Repository) listMatches(ctx context.Context, query string, args ...any) ([]models.MatchRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	records := make([]models.MatchRecord, 0, 16)
	for rows.Next() {
		record, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return records, nil
}

func scanMatch(row pgx.Row) (models.MatchRecord, error) {
	var (
		record models.MatchRecord
		id     string
		format string
		state  string
		score  []byte
	)

	err := row.Scan(
		&id,
		&record.Name,
		&format,
		&record.Teams[0],
		&record.Teams[1],
		&record.Venue,
		&record.StartsAtUTC,
		&record.Status,
		&state,
		&record.SeriesID,
		&score,
		&record.Priority,
		&record.LastFetchedAt,
		&record.NeedsFrequentRefresh,
	)
	if err != nil {
		return models.MatchRecord{}, err
	}

	record.ID = models.MatchID(id)
	record.Format = models.MatchFormat(format)
	record.State = models.MatchState(state)
	record.ScoreSnapshot = score
	record.StartsAtUTC = record.StartsAtUTC.UTC()
	record.LastFetchedAt = record.LastFetchedAt.UTC()

	return record, nil
}
