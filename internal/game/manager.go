package game

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
)

// Manager manages matches
type Manager struct {
	matches map[string]*Match
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager creates a new match manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		matches: make(map[string]*Match),
		logger:  logger,
	}
}

// CreateMatch creates a match and registers it under its ID.
func (m *Manager) CreateMatch(opts Options) (*Match, error) {
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	created, err := NewMatch(opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.matches[created.ID()]; exists {
		return nil, fmt.Errorf("match %s already exists", created.ID())
	}
	m.matches[created.ID()] = created

	m.logger.Info("match created", zap.String("match_id", created.ID()))
	return created, nil
}

// GetMatch retrieves a match by ID
func (m *Manager) GetMatch(matchID string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found, ok := m.matches[matchID]
	return found, ok
}

// RemoveMatch removes a match
func (m *Manager) RemoveMatch(matchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[matchID]; !ok {
		return false
	}
	delete(m.matches, matchID)

	m.logger.Info("match removed", zap.String("match_id", matchID))
	return true
}

// GetAllMatches returns all matches ordered by ID
func (m *Manager) GetAllMatches() []*Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*Match, 0, len(m.matches))
	for _, found := range m.matches {
		matches = append(matches, found)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID() < matches[j].ID() })
	return matches
}

// GetActiveMatchCount returns the count of matches that have not finished
func (m *Manager) GetActiveMatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, found := range m.matches {
		if found.Status() != match.StatusFinished {
			count++
		}
	}
	return count
}
