package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/config"
	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/watchers"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS match_summaries (
	match_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ,
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ,
	sim_time_ms BIGINT NOT NULL DEFAULT 0,
	red_goals INTEGER NOT NULL DEFAULT 0,
	red_steals INTEGER NOT NULL DEFAULT 0,
	red_handoffs INTEGER NOT NULL DEFAULT 0,
	red_possession DOUBLE PRECISION NOT NULL DEFAULT 0,
	blue_goals INTEGER NOT NULL DEFAULT 0,
	blue_steals INTEGER NOT NULL DEFAULT 0,
	blue_handoffs INTEGER NOT NULL DEFAULT 0,
	blue_possession DOUBLE PRECISION NOT NULL DEFAULT 0,
	sideline_restarts INTEGER NOT NULL DEFAULT 0,
	goal_line_restarts INTEGER NOT NULL DEFAULT 0,
	reset_restarts INTEGER NOT NULL DEFAULT 0,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS match_goals (
	match_id TEXT NOT NULL REFERENCES match_summaries(match_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	team TEXT NOT NULL,
	last_player_id TEXT NOT NULL DEFAULT '',
	sim_time_ms BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, seq)
);

CREATE TABLE IF NOT EXISTS match_players (
	match_id TEXT NOT NULL REFERENCES match_summaries(match_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	player_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	team TEXT NOT NULL,
	role TEXT NOT NULL,
	goals INTEGER NOT NULL DEFAULT 0,
	tackles INTEGER NOT NULL DEFAULT 0,
	passes INTEGER NOT NULL DEFAULT 0,
	shots INTEGER NOT NULL DEFAULT 0,
	saves INTEGER NOT NULL DEFAULT 0,
	distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, player_id)
);

CREATE INDEX IF NOT EXISTS idx_match_summaries_saved ON match_summaries(saved_at);
`

// PostgresStore keeps summaries in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(connectCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	stats := pool.Stat()
	logger.Info("postgres store opened",
		zap.Int32("max_conns", stats.MaxConns()),
		zap.Int32("total_conns", stats.TotalConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveSummary implements Store.
func (s *PostgresStore) SaveSummary(ctx context.Context, sum game.Summary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM match_summaries WHERE match_id = $1", sum.MatchID); err != nil {
		return fmt.Errorf("clear summary: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO match_summaries (
			match_id, status, created_at, started_at, ended_at, sim_time_ms,
			red_goals, red_steals, red_handoffs, red_possession,
			blue_goals, blue_steals, blue_handoffs, blue_possession,
			sideline_restarts, goal_line_restarts, reset_restarts, saved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		sum.MatchID, sum.Status, nullTime(sum.CreatedAt), nullTime(sum.StartedAt), nullTime(sum.EndedAt), millis(sum.SimTime),
		sum.Red.Goals, sum.Red.Steals, sum.Red.Handoffs, sum.Red.PossessionShare,
		sum.Blue.Goals, sum.Blue.Steals, sum.Blue.Handoffs, sum.Blue.PossessionShare,
		sum.Restarts.Sideline, sum.Restarts.GoalLine, sum.Restarts.Reset, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	batch := &pgx.Batch{}
	for i, g := range sum.Goals {
		batch.Queue(
			"INSERT INTO match_goals (match_id, seq, team, last_player_id, sim_time_ms) VALUES ($1, $2, $3, $4, $5)",
			sum.MatchID, i, g.Team, g.LastPlayerID, millis(g.SimTime),
		)
	}
	for i, p := range sum.Players {
		batch.Queue(`
			INSERT INTO match_players (
				match_id, seq, player_id, name, team, role, goals, tackles, passes, shots, saves, distance
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			sum.MatchID, i, p.PlayerID, p.Name, string(p.Team), string(p.Role),
			p.Goals, p.Tackles, p.Passes, p.Shots, p.Saves, p.DistanceTraveled,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert goals and players: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("match summary saved", zap.String("match_id", sum.MatchID))
	return nil
}

const postgresSummaryColumns = `
	match_id, status, created_at, started_at, ended_at, sim_time_ms,
	red_goals, red_steals, red_handoffs, red_possession,
	blue_goals, blue_steals, blue_handoffs, blue_possession,
	sideline_restarts, goal_line_restarts, reset_restarts`

func scanPostgresSummary(row pgx.Row) (*game.Summary, error) {
	var sum game.Summary
	var created, started, ended *time.Time
	var simTime int64
	err := row.Scan(
		&sum.MatchID, &sum.Status, &created, &started, &ended, &simTime,
		&sum.Red.Goals, &sum.Red.Steals, &sum.Red.Handoffs, &sum.Red.PossessionShare,
		&sum.Blue.Goals, &sum.Blue.Steals, &sum.Blue.Handoffs, &sum.Blue.PossessionShare,
		&sum.Restarts.Sideline, &sum.Restarts.GoalLine, &sum.Restarts.Reset,
	)
	if err != nil {
		return nil, err
	}
	sum.CreatedAt = fromNullTime(created)
	sum.StartedAt = fromNullTime(started)
	sum.EndedAt = fromNullTime(ended)
	sum.SimTime = duration(simTime)
	return &sum, nil
}

// GetSummary implements Store.
func (s *PostgresStore) GetSummary(ctx context.Context, matchID string) (*game.Summary, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+postgresSummaryColumns+" FROM match_summaries WHERE match_id = $1", matchID)
	sum, err := scanPostgresSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %s: %w", matchID, err)
	}
	if err := s.loadChildren(ctx, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// ListSummaries implements Store. The most recently saved come first.
func (s *PostgresStore) ListSummaries(ctx context.Context, limit int) ([]game.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+postgresSummaryColumns+" FROM match_summaries ORDER BY saved_at DESC, match_id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []game.Summary
	for rows.Next() {
		sum, err := scanPostgresSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, *sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		if err := s.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) loadChildren(ctx context.Context, sum *game.Summary) error {
	goals, err := s.pool.Query(ctx,
		"SELECT team, last_player_id, sim_time_ms FROM match_goals WHERE match_id = $1 ORDER BY seq", sum.MatchID)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	sum.Goals, err = pgx.CollectRows(goals, func(row pgx.CollectableRow) (watchers.GoalRecord, error) {
		var g watchers.GoalRecord
		var ms int64
		err := row.Scan(&g.Team, &g.LastPlayerID, &ms)
		g.SimTime = duration(ms)
		return g, err
	})
	if err != nil {
		return fmt.Errorf("scan goals: %w", err)
	}

	players, err := s.pool.Query(ctx, `
		SELECT player_id, name, team, role, goals, tackles, passes, shots, saves, distance
		FROM match_players WHERE match_id = $1 ORDER BY seq`, sum.MatchID)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	sum.Players, err = pgx.CollectRows(players, func(row pgx.CollectableRow) (player.Stats, error) {
		var p player.Stats
		var team, role string
		err := row.Scan(&p.PlayerID, &p.Name, &team, &role,
			&p.Goals, &p.Tackles, &p.Passes, &p.Shots, &p.Saves, &p.DistanceTraveled)
		p.Team, p.Role = player.Team(team), player.Role(role)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("scan players: %w", err)
	}
	return nil
}
