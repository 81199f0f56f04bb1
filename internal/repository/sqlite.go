package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/watchers"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS match_summaries (
	match_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	created_at INTEGER,
	started_at INTEGER,
	ended_at INTEGER,
	sim_time_ms INTEGER NOT NULL DEFAULT 0,
	red_goals INTEGER NOT NULL DEFAULT 0,
	red_steals INTEGER NOT NULL DEFAULT 0,
	red_handoffs INTEGER NOT NULL DEFAULT 0,
	red_possession REAL NOT NULL DEFAULT 0,
	blue_goals INTEGER NOT NULL DEFAULT 0,
	blue_steals INTEGER NOT NULL DEFAULT 0,
	blue_handoffs INTEGER NOT NULL DEFAULT 0,
	blue_possession REAL NOT NULL DEFAULT 0,
	sideline_restarts INTEGER NOT NULL DEFAULT 0,
	goal_line_restarts INTEGER NOT NULL DEFAULT 0,
	reset_restarts INTEGER NOT NULL DEFAULT 0,
	saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS match_goals (
	match_id TEXT NOT NULL REFERENCES match_summaries(match_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	team TEXT NOT NULL,
	last_player_id TEXT NOT NULL DEFAULT '',
	sim_time_ms INTEGER NOT NULL DEFAULT 0,
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
	distance REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (match_id, player_id)
);

CREATE INDEX IF NOT EXISTS idx_match_summaries_saved ON match_summaries(saved_at);
`

// SQLiteStore keeps summaries in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps the pragmas below in effect for every statement
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		s.logger.Error("sqlite migration failed", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSummary implements Store.
func (s *SQLiteStore) SaveSummary(ctx context.Context, sum game.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"match_goals", "match_players", "match_summaries"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE match_id = ?", sum.MatchID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_summaries (
			match_id, status, created_at, started_at, ended_at, sim_time_ms,
			red_goals, red_steals, red_handoffs, red_possession,
			blue_goals, blue_steals, blue_handoffs, blue_possession,
			sideline_restarts, goal_line_restarts, reset_restarts, saved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.MatchID, sum.Status, unixMillis(sum.CreatedAt), unixMillis(sum.StartedAt), unixMillis(sum.EndedAt), millis(sum.SimTime),
		sum.Red.Goals, sum.Red.Steals, sum.Red.Handoffs, sum.Red.PossessionShare,
		sum.Blue.Goals, sum.Blue.Steals, sum.Blue.Handoffs, sum.Blue.PossessionShare,
		sum.Restarts.Sideline, sum.Restarts.GoalLine, sum.Restarts.Reset, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	for i, g := range sum.Goals {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO match_goals (match_id, seq, team, last_player_id, sim_time_ms) VALUES (?, ?, ?, ?, ?)",
			sum.MatchID, i, g.Team, g.LastPlayerID, millis(g.SimTime),
		)
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
	}

	for i, p := range sum.Players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_players (
				match_id, seq, player_id, name, team, role, goals, tackles, passes, shots, saves, distance
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.MatchID, i, p.PlayerID, p.Name, string(p.Team), string(p.Role),
			p.Goals, p.Tackles, p.Passes, p.Shots, p.Saves, p.DistanceTraveled,
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("match summary saved", zap.String("match_id", sum.MatchID))
	return nil
}

const sqliteSummaryColumns = `
	match_id, status, created_at, started_at, ended_at, sim_time_ms,
	red_goals, red_steals, red_handoffs, red_possession,
	blue_goals, blue_steals, blue_handoffs, blue_possession,
	sideline_restarts, goal_line_restarts, reset_restarts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSummary(row rowScanner) (*game.Summary, error) {
	var sum game.Summary
	var created, started, ended sql.NullInt64
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
	sum.CreatedAt = fromUnixMillis(created)
	sum.StartedAt = fromUnixMillis(started)
	sum.EndedAt = fromUnixMillis(ended)
	sum.SimTime = duration(simTime)
	return &sum, nil
}

// GetSummary implements Store.
func (s *SQLiteStore) GetSummary(ctx context.Context, matchID string) (*game.Summary, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteSummaryColumns+" FROM match_summaries WHERE match_id = ?", matchID)
	sum, err := scanSQLiteSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) ListSummaries(ctx context.Context, limit int) ([]game.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteSummaryColumns+" FROM match_summaries ORDER BY saved_at DESC, match_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	var out []game.Summary
	for rows.Next() {
		sum, err := scanSQLiteSummary(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, *sum)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
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

// loadChildren runs its queries one after the other; the store has a single
// connection, so a result set must be closed before the next query.
func (s *SQLiteStore) loadChildren(ctx context.Context, sum *game.Summary) error {
	if err := s.loadGoals(ctx, sum); err != nil {
		return err
	}
	return s.loadPlayers(ctx, sum)
}

func (s *SQLiteStore) loadGoals(ctx context.Context, sum *game.Summary) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT team, last_player_id, sim_time_ms FROM match_goals WHERE match_id = ? ORDER BY seq", sum.MatchID)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g watchers.GoalRecord
		var ms int64
		if err := rows.Scan(&g.Team, &g.LastPlayerID, &ms); err != nil {
			return fmt.Errorf("scan goal: %w", err)
		}
		g.SimTime = duration(ms)
		sum.Goals = append(sum.Goals, g)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPlayers(ctx context.Context, sum *game.Summary) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, name, team, role, goals, tackles, passes, shots, saves, distance
		FROM match_players WHERE match_id = ? ORDER BY seq`, sum.MatchID)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p player.Stats
		var team, role string
		if err := rows.Scan(&p.PlayerID, &p.Name, &team, &role,
			&p.Goals, &p.Tackles, &p.Passes, &p.Shots, &p.Saves, &p.DistanceTraveled); err != nil {
			return fmt.Errorf("scan player: %w", err)
		}
		p.Team, p.Role = player.Team(team), player.Role(role)
		sum.Players = append(sum.Players, p)
	}
	return rows.Err()
}

func unixMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromUnixMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64).UTC()
}
