// Package match holds the per-match shared state: the ball, who has it, who
// had it last, and the coarse match status. It contains no rules.
package match

import (
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

// Status is the coarse phase of a match.
type Status string

const (
	StatusWaiting         Status = "waiting"
	StatusInPlay          Status = "in-play"
	StatusPenaltyShootout Status = "penalty-shootout"
	StatusFinished        Status = "finished"
)

// State is owned by one match and injected into every component that needs
// it. It is not synchronized; the owning match serializes access.
type State struct {
	id        string
	ball      host.BallBody
	possessor *player.Entity
	last      *player.Entity
	active    *player.Entity
	status    Status
	ballMoved bool
}

// NewState creates the state for match id around its ball.
func NewState(id string, ball host.BallBody) *State {
	return &State{id: id, ball: ball, status: StatusWaiting}
}

func (s *State) ID() string                    { return s.id }
func (s *State) Ball() host.BallBody           { return s.ball }
func (s *State) Status() Status                { return s.status }
func (s *State) SetStatus(st Status)           { s.status = st }
func (s *State) BallHasMoved() bool            { return s.ballMoved }
func (s *State) SetBallHasMoved()              { s.ballMoved = true }
func (s *State) ResetBallMoved()               { s.ballMoved = false }
func (s *State) Possessor() *player.Entity     { return s.possessor }
func (s *State) LastPossessor() *player.Entity { return s.last }
func (s *State) ActivePlayer() *player.Entity  { return s.active }

// SetActivePlayer records the human player the local camera follows.
func (s *State) SetActivePlayer(p *player.Entity) {
	s.active = p
}

// SetPossessor replaces the possessor and returns the previous one. A
// non-nil possessor is also remembered as the last player with the ball.
func (s *State) SetPossessor(p *player.Entity) (prev *player.Entity) {
	prev = s.possessor
	s.possessor = p
	if p != nil {
		s.last = p
	}
	return prev
}

// HasPossession reports whether p is holding the ball.
func (s *State) HasPossession(p *player.Entity) bool {
	return p != nil && s.possessor == p
}

// Forget drops every reference to p, used when a player leaves the match.
func (s *State) Forget(p *player.Entity) {
	if s.possessor == p {
		s.possessor = nil
	}
	if s.last == p {
		s.last = nil
	}
	if s.active == p {
		s.active = nil
	}
}
