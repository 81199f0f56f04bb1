package game

import (
	"time"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/watchers"
)

// TeamSummary is one team's side of a match summary.
type TeamSummary struct {
	Goals           int     `json:"goals" msgpack:"goals"`
	Steals          int     `json:"steals" msgpack:"steals"`
	Handoffs        int     `json:"handoffs" msgpack:"handoffs"`
	PossessionShare float64 `json:"possessionShare" msgpack:"possessionShare"`
}

// RestartSummary counts the restarts of a match.
type RestartSummary struct {
	Sideline int `json:"sideline" msgpack:"sideline"`
	GoalLine int `json:"goalLine" msgpack:"goalLine"`
	Reset    int `json:"reset" msgpack:"reset"`
}

// Summary is the persisted record of a match.
type Summary struct {
	MatchID   string                `json:"matchId" msgpack:"matchId"`
	Status    string                `json:"status" msgpack:"status"`
	CreatedAt time.Time             `json:"createdAt" msgpack:"createdAt"`
	StartedAt time.Time             `json:"startedAt" msgpack:"startedAt"`
	EndedAt   time.Time             `json:"endedAt" msgpack:"endedAt"`
	SimTime   time.Duration         `json:"simTime" msgpack:"simTime"`
	Red       TeamSummary           `json:"red" msgpack:"red"`
	Blue      TeamSummary           `json:"blue" msgpack:"blue"`
	Restarts  RestartSummary        `json:"restarts" msgpack:"restarts"`
	Goals     []watchers.GoalRecord `json:"goals" msgpack:"goals"`
	Players   []player.Stats        `json:"players" msgpack:"players"`
}

// Score returns the goals of a team.
func (m *Match) Score(team player.Team) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	score := m.watchers.GetWatcher(watchers.ScoreKey).(*watchers.ScoreWatcher)
	return score.Goals(string(team))
}

// Summary snapshots the score, restarts, possession and player statistics.
// It reads watcher copies, so the result does not change as play goes on.
func (m *Match) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.sched.Now()
	snap := m.watchers.Snapshot()
	score := snap[watchers.ScoreKey].(*watchers.ScoreWatcher)
	possession := snap[watchers.PossessionKey].(*watchers.PossessionWatcher)
	restarts := snap[watchers.RestartKey].(*watchers.RestartWatcher)

	team := func(t player.Team) TeamSummary {
		return TeamSummary{
			Goals:           score.Goals(string(t)),
			Steals:          possession.Steals(string(t)),
			Handoffs:        possession.Handoffs(string(t)),
			PossessionShare: possession.Share(string(t), now),
		}
	}

	return Summary{
		MatchID:   m.id,
		Status:    string(m.state.Status()),
		CreatedAt: m.createdAt,
		StartedAt: m.startedAt,
		EndedAt:   m.endedAt,
		SimTime:   now,
		Red:       team(player.TeamRed),
		Blue:      team(player.TeamBlue),
		Restarts: RestartSummary{
			Sideline: restarts.Count(rules.EventBallOutSideline, ""),
			GoalLine: restarts.Count(rules.EventBallOutGoalLine, ""),
			Reset:    restarts.Count(rules.EventBallResetOutOfBounds, ""),
		},
		Goals:   score.Log(),
		Players: m.stats(),
	}
}
