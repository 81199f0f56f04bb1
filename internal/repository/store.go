// Package repository persists match summaries. SQLite is the default
// backend; PostgreSQL is used when the server shares a database with other
// services.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/config"
	"github.com/cryptochris8/Hysports-Soccer/internal/game"
)

// ErrNotFound is returned when no summary exists for a match.
var ErrNotFound = errors.New("match summary not found")

// Store saves and loads match summaries. Saving a summary for a match that
// already has one replaces it.
type Store interface {
	SaveSummary(ctx context.Context, summary game.Summary) error
	GetSummary(ctx context.Context, matchID string) (*game.Summary, error)
	ListSummaries(ctx context.Context, limit int) ([]game.Summary, error)
	Close() error
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := OpenSQLite(ctx, cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		store, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case config.DriverNone:
		logger.Warn("match summaries will not be persisted")
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NopStore discards summaries.
type NopStore struct{}

// SaveSummary implements Store.
func (NopStore) SaveSummary(context.Context, game.Summary) error {
	return nil
}

// GetSummary implements Store. It never finds anything.
func (NopStore) GetSummary(_ context.Context, matchID string) (*game.Summary, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, matchID)
}

// ListSummaries implements Store.
func (NopStore) ListSummaries(context.Context, int) ([]game.Summary, error) {
	return nil, nil
}

// Close implements Store.
func (NopStore) Close() error {
	return nil
}

func millis(d time.Duration) int64 { return d.Milliseconds() }

func duration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func fromNullTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
