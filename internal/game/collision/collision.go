// Package collision is the decision table for player-player and ball-player
// contacts. It only decides; callers apply the outcome.
package collision

import (
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

// PlayerOutcome is the result of one player running into another.
type PlayerOutcome int

const (
	PlayerIgnore PlayerOutcome = iota
	// PlayerStun means the other player is stunned and self earns a tackle.
	PlayerStun
)

func (o PlayerOutcome) String() string {
	if o == PlayerStun {
		return "stun"
	}
	return "ignore"
}

// ResolvePlayers decides what happens when self contacts other. Only self's
// tackle counts; the host reports the reverse orientation separately.
func ResolvePlayers(self, other *player.Entity) PlayerOutcome {
	if self == nil || other == nil || self == other || self.Team() == other.Team() {
		return PlayerIgnore
	}
	if self.CanTackle() && !other.IsStunned() && !other.IsDodging() {
		return PlayerStun
	}
	return PlayerIgnore
}

// BallOutcome is the result of a player touching the ball.
type BallOutcome int

const (
	BallIgnore BallOutcome = iota
	// BallAttach gives a loose ball to the toucher.
	BallAttach
	// BallSteal knocks the ball away from the possessor.
	BallSteal
	// BallHandoff passes the ball to the possessor's teammate.
	BallHandoff
)

func (o BallOutcome) String() string {
	switch o {
	case BallAttach:
		return "attach"
	case BallSteal:
		return "steal"
	case BallHandoff:
		return "handoff"
	default:
		return "ignore"
	}
}

// ResolveBall decides what happens when toucher contacts the ball held by
// possessor (nil when loose). A loose ball sitting in a goal is not picked up.
// Stunned players never gain the ball.
func ResolveBall(possessor, toucher *player.Entity, ballInGoal bool) BallOutcome {
	if toucher == nil || toucher.IsStunned() {
		return BallIgnore
	}
	if possessor == nil {
		if ballInGoal {
			return BallIgnore
		}
		return BallAttach
	}
	if toucher == possessor {
		return BallIgnore
	}
	if toucher.Team() != possessor.Team() {
		if toucher.CanTackle() {
			return BallSteal
		}
		return BallIgnore
	}
	return BallHandoff
}
