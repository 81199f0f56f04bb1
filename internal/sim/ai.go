package sim

import (
	"errors"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

const (
	shootRange  = 22.0
	tackleRange = 2.5
	arriveRange = 0.5

	shotImpulse = 9.0
	shotLift    = 1.2

	// pass impulse per metre to the receiver, clamped
	passImpulse    = 0.25
	minPassImpulse = 3.0
	maxPassImpulse = 7.0
	passLift       = 0.4
	passesPerSec   = 0.4

	chaseBoost = 0.25
)

// drive picks a behaviour for every participant: the possessor carries the
// ball toward goal, the nearest outfield player of each team without the
// ball chases it, keepers guard their goal and everyone else holds shape.
func (w *World) drive(dt time.Duration) {
	holderID, held := w.match.Possessor()
	var holderTeam player.Team
	if h, ok := w.byID[holderID]; held && ok {
		holderTeam = h.team
	}
	ball := w.ball.Position()
	chasers := w.chasers(ball)

	for _, a := range w.agents {
		switch {
		case held && a.id == holderID:
			w.setTackling(a, false)
			w.carry(a, dt)
		case a.role == player.RoleGoalkeeper:
			w.setTackling(a, false)
			w.guard(a, ball)
		case chasers[a.team] == a && holderTeam != a.team:
			w.chase(a, ball, held)
		default:
			w.setTackling(a, false)
			a.boosted = false
			w.support(a, ball)
		}
	}
}

// chasers returns the outfield player of each team closest to the ball.
func (w *World) chasers(ball mgl64.Vec3) map[player.Team]*agent {
	out := make(map[player.Team]*agent, 2)
	best := map[player.Team]float64{}
	for _, a := range w.agents {
		if a.role == player.RoleGoalkeeper {
			continue
		}
		d := geom.PlanarDistance(a.body.Position(), ball)
		if cur, ok := best[a.team]; !ok || d < cur {
			best[a.team] = d
			out[a.team] = a
		}
	}
	return out
}

func (w *World) carry(a *agent, dt time.Duration) {
	goal := w.attackingGoal(a.team)
	pos := a.body.Position()

	if geom.PlanarDistance(pos, goal) < shootRange {
		w.shoot(a, goal)
		return
	}
	if w.rng.Float64() < passesPerSec*dt.Seconds() {
		if mate := w.passTarget(a); mate != nil {
			w.pass(a, mate)
			return
		}
	}
	w.moveToward(a, goal)
}

func (w *World) shoot(a *agent, goal mgl64.Vec3) {
	p := w.cfg.Pitch
	target := mgl64.Vec3{goal.X(), 0, p.CenterZ + (w.rng.Float64()*2-1)*p.GoalHalfWidth*0.8}
	dir, ok := geom.NormalizePlanar(target.Sub(a.body.Position()))
	if !ok {
		dir = geom.Forward.Mul(a.team.ForwardSign())
	}
	if w.kick(a, dir.Mul(shotImpulse).Add(mgl64.Vec3{0, shotLift, 0}), game.KickShot) {
		w.shotBy = a.team
		w.logger.Debug("shot taken", zap.String("player_id", a.id))
	}
}

// passTarget picks a random teammate further up the pitch.
func (w *World) passTarget(a *agent) *agent {
	pos := a.body.Position()
	sign := a.team.ForwardSign()
	var ahead []*agent
	for _, mate := range w.agents {
		if mate == a || mate.team != a.team || mate.role == player.RoleGoalkeeper {
			continue
		}
		if (mate.body.Position().X()-pos.X())*sign > 0 {
			ahead = append(ahead, mate)
		}
	}
	if len(ahead) == 0 {
		return nil
	}
	return ahead[w.rng.Intn(len(ahead))]
}

func (w *World) pass(a, mate *agent) {
	from, to := a.body.Position(), mate.body.Position()
	dir, ok := geom.NormalizePlanar(to.Sub(from))
	if !ok {
		return
	}
	strength := mgl64.Clamp(geom.PlanarDistance(from, to)*passImpulse, minPassImpulse, maxPassImpulse)
	if w.kick(a, dir.Mul(strength).Add(mgl64.Vec3{0, passLift, 0}), game.KickPass) {
		w.logger.Debug("pass played", zap.String("from", a.id), zap.String("to", mate.id))
	}
}

func (w *World) kick(a *agent, impulse mgl64.Vec3, kind game.KickKind) bool {
	if err := w.match.Kick(a.id, impulse, kind); err != nil {
		if !errors.Is(err, game.ErrNotInPossession) {
			w.logger.Warn("kick failed", zap.String("player_id", a.id), zap.Error(err))
		}
		return false
	}
	a.grace = kickGrace
	return true
}

func (w *World) chase(a *agent, ball mgl64.Vec3, held bool) {
	near := geom.PlanarDistance(a.body.Position(), ball) < tackleRange
	w.setTackling(a, held && near)
	if held && !a.boosted {
		if err := w.match.SpeedBoost(a.id, chaseBoost); err == nil {
			a.boosted = true
		}
	}
	w.moveToward(a, ball)
}

// guard keeps the keeper on its line, tracking the ball across the goal mouth.
func (w *World) guard(a *agent, ball mgl64.Vec3) {
	home, err := w.match.HomePosition(a.id)
	if err != nil {
		return
	}
	p := w.cfg.Pitch
	z := mgl64.Clamp(ball.Z(), p.CenterZ-p.GoalHalfWidth, p.CenterZ+p.GoalHalfWidth)
	w.moveToward(a, mgl64.Vec3{home.X(), home.Y(), z})
}

// support shifts the formation spot toward the ball.
func (w *World) support(a *agent, ball mgl64.Vec3) {
	home, err := w.match.HomePosition(a.id)
	if err != nil {
		return
	}
	shift := mgl64.Vec3{
		(ball.X() - w.cfg.Pitch.CenterX()) * 0.4,
		0,
		(ball.Z() - home.Z()) * 0.2,
	}
	w.moveToward(a, home.Add(shift))
}

func (w *World) moveToward(a *agent, target mgl64.Vec3) {
	pos := a.body.Position()
	dir, ok := geom.NormalizePlanar(target.Sub(pos))
	if !ok || geom.PlanarDistance(pos, target) < arriveRange {
		w.move(a, mgl64.Vec3{})
		return
	}
	a.body.SetRotation(geom.YawRotation(math.Atan2(-dir.Z(), dir.X())))
	w.move(a, dir.Mul(w.speed))
}

func (w *World) move(a *agent, v mgl64.Vec3) {
	v[1] = a.body.LinearVelocity().Y()
	moved, err := w.match.MovePlayer(a.id, v)
	if err != nil {
		w.logger.Warn("move failed", zap.String("player_id", a.id), zap.Error(err))
	}
	a.moving = moved
}

func (w *World) setTackling(a *agent, tackling bool) {
	if a.tackling == tackling {
		return
	}
	err := w.match.SetTackling(a.id, tackling)
	switch {
	case err == nil:
		a.tackling = tackling
	case errors.Is(err, player.ErrStunned):
		a.tackling = false
	default:
		w.logger.Warn("tackle toggle failed", zap.String("player_id", a.id), zap.Error(err))
	}
}

// attackingGoal is the centre of the goal line a team shoots at.
func (w *World) attackingGoal(team player.Team) mgl64.Vec3 {
	p := w.cfg.Pitch
	x := p.MaxX
	if team == player.TeamBlue {
		x = p.MinX
	}
	return mgl64.Vec3{x, 0, p.CenterZ}
}
