// Package ball runs the match ball: who has it, when it is loose enough to be
// picked up, and when it has gone into a goal or out of play. The engine is
// driven by host callbacks and never blocks; every delayed step is a task on
// the match scheduler.
package ball

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/collision"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/field"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/sched"
)

// Owner is the scheduler owner of every ball task.
const Owner = "ball"

// Scheduler task purposes.
const (
	taskInit        = "init"
	taskGoalConfirm = "goal-confirm"
	taskGoalReset   = "goal-reset"
	taskRecovery    = "recovery-cooldown"
	taskOutRespawn  = "out-respawn"
	taskOutCooldown = "out-cooldown"
)

// Roster lists the players that can take the ball, in a stable order.
type Roster interface {
	Players() []*player.Entity
}

// Options wires an Engine to its match.
type Options struct {
	State     *match.State
	Oracle    field.Oracle
	FieldMinY float64
	Roster    Roster
	Scheduler *sched.Scheduler
	Audio     host.AudioPlayer
	Bus       *rules.EventBus
	Tuning    Tuning
	Logger    *zap.Logger
}

// Engine is the possession and restart controller for one match ball. It is
// not safe for concurrent use; the owning match serializes every call.
type Engine struct {
	state  *match.State
	ball   host.BallBody
	oracle field.Oracle
	minY   float64
	roster Roster
	sched  *sched.Scheduler
	audio  host.AudioPlayer
	bus    *rules.EventBus
	tuning Tuning
	spawn  mgl64.Vec3
	logger *zap.Logger

	inGoal       bool
	respawning   bool
	initializing bool

	origin     mgl64.Vec3 // where the ball was last placed
	lastSample mgl64.Vec3
	ticks      int

	whistled    bool
	lastWhistle time.Duration
}

// New validates the options and creates an engine. Call Start to put the
// ball on the pitch.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.State == nil:
		return nil, errors.New("ball engine: match state is required")
	case opts.State.Ball() == nil:
		return nil, errors.New("ball engine: match state has no ball")
	case opts.Oracle == nil:
		return nil, errors.New("ball engine: oracle is required")
	case opts.Roster == nil:
		return nil, errors.New("ball engine: roster is required")
	case opts.Scheduler == nil:
		return nil, errors.New("ball engine: scheduler is required")
	case opts.Bus == nil:
		return nil, errors.New("ball engine: event bus is required")
	}
	if opts.Audio == nil {
		opts.Audio = host.NopAudio{}
	}
	if opts.Tuning.JitterCadence <= 0 {
		opts.Tuning.JitterCadence = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	spawn := opts.Tuning.Spawn.Vec3()
	return &Engine{
		state:      opts.State,
		ball:       opts.State.Ball(),
		oracle:     opts.Oracle,
		minY:       opts.FieldMinY,
		roster:     opts.Roster,
		sched:      opts.Scheduler,
		audio:      opts.Audio,
		bus:        opts.Bus,
		tuning:     opts.Tuning,
		spawn:      spawn,
		logger:     logger.With(zap.String("match_id", opts.State.ID())),
		origin:     spawn,
		lastSample: spawn,
	}, nil
}

func key(purpose string) sched.Key {
	return sched.Key{Owner: Owner, Purpose: purpose}
}

// InGoal reports whether a goal is being confirmed or reset.
func (e *Engine) InGoal() bool { return e.inGoal }

// Respawning reports whether an out-of-bounds or recovery respawn is pending.
func (e *Engine) Respawning() bool { return e.respawning }

// Initializing reports whether the post-spawn quiet window is still open.
func (e *Engine) Initializing() bool { return e.initializing }

// Start spawns the ball at the spawn point and opens the initialization
// window during which no goal, boundary or recovery checks run.
func (e *Engine) Start() {
	if e.ball.IsSpawned() {
		e.ball.SetPosition(e.spawn)
	} else {
		e.ball.Spawn(e.spawn)
	}
	e.stop(e.spawn)
	e.ball.WakeUp()

	e.initializing = true
	e.sched.After(key(taskInit), e.tuning.InitWindow, func() {
		e.initializing = false
		e.logger.Debug("ball initialization complete", zap.Any("position", e.ball.Position()))
	})
	e.logger.Info("ball spawned", zap.Any("position", e.spawn))
}

// Tick runs one simulation step. It does nothing while the ball is despawned.
func (e *Engine) Tick() {
	if !e.ball.IsSpawned() {
		return
	}
	pos := e.ball.Position()

	if !e.state.BallHasMoved() && pos.Sub(e.origin).Len() > e.tuning.MoveThreshold {
		e.state.SetBallHasMoved()
		if e.state.Status() == match.StatusPenaltyShootout {
			e.logger.Info("ball moved during penalty shootout")
			e.publish(rules.Event{Type: rules.EventPenaltyShotTaken})
		}
	}

	pos = e.suppressJitter(pos)

	if pos.Y() < e.minY-e.tuning.FallMargin && !e.respawning && !e.inGoal && !e.initializing {
		e.recover(pos)
		return
	}

	if e.detectionOpen() {
		if pos.Y() < e.minY-e.tuning.BelowFieldMargin {
			return
		}
		c := e.oracle.Classify(pos)
		switch c.Kind {
		case field.InGoal:
			e.beginGoal(c)
		case field.OutOfBounds:
			e.beginOut(c)
		}
	}

	if e.detectionOpen() {
		e.captureNearest(pos)
	}

	if p := e.state.Possessor(); p != nil {
		e.follow(p)
	}
}

// detectionOpen is true when the ball is loose and no goal, restart or
// initialization is in progress.
func (e *Engine) detectionOpen() bool {
	return e.state.Possessor() == nil && !e.inGoal && !e.respawning && !e.initializing
}

// suppressJitter damps implausible jumps between samples taken every
// JitterCadence ticks.
func (e *Engine) suppressJitter(pos mgl64.Vec3) mgl64.Vec3 {
	e.ticks++
	if e.ticks < e.tuning.JitterCadence {
		return pos
	}
	e.ticks = 0

	delta := pos.Sub(e.lastSample)
	if delta.Len() > e.tuning.JitterThreshold {
		corrected := geom.Lerp(e.lastSample, pos, e.tuning.JitterBlend)
		e.logger.Debug("damping ball jump",
			zap.Float64("distance", delta.Len()),
			zap.Any("from", pos),
			zap.Any("to", corrected),
		)
		e.ball.SetPosition(corrected)
		pos = corrected
	}
	e.lastSample = pos
	return pos
}

// recover puts a ball that fell through the world back on the spawn point.
func (e *Engine) recover(pos mgl64.Vec3) {
	e.logger.Warn("ball below field, respawning", zap.Float64("y", pos.Y()))
	e.respawning = true
	e.ball.Despawn()
	e.setPossessor(nil, rules.ReasonRespawn, nil)
	e.respawnAt(e.spawn, "fell-through")
	e.sched.After(key(taskRecovery), e.tuning.RecoveryCooldown, func() {
		e.respawning = false
	})
}

func (e *Engine) beginGoal(c field.Classification) {
	team := c.ScoringTeam
	e.logger.Info("goal detected", zap.String("team", string(team)), zap.Any("position", c.Position))
	e.inGoal = true

	e.sched.After(key(taskGoalConfirm), e.tuning.GoalConfirmDelay, func() {
		if !e.inGoal {
			return
		}
		again := e.oracle.Classify(e.ball.Position())
		if again.Kind != field.InGoal || again.ScoringTeam != team {
			e.logger.Debug("goal abandoned, ball left the goal", zap.String("team", string(team)))
			e.inGoal = false
			return
		}

		e.logger.Info("goal confirmed", zap.String("team", string(team)))
		evt := rules.Event{Type: rules.EventGoal, Team: string(team), Position: again.Position}
		if last := e.state.LastPossessor(); last != nil {
			evt.LastPlayerID = last.ID()
		}
		e.publish(evt)

		e.sched.After(key(taskGoalReset), e.tuning.GoalResetDelay, func() {
			if !e.inGoal {
				return
			}
			e.ball.Despawn()
			e.respawnAt(e.spawn, "goal")
			e.inGoal = false
		})
	})
}

func (e *Engine) beginOut(c field.Classification) {
	now := e.sched.Now()
	if e.whistled && now-e.lastWhistle < e.tuning.WhistleDebounce {
		e.logger.Debug("whistle debounced")
	} else {
		e.audio.Play(host.CueWhistle, e.tuning.WhistleVolume)
		e.whistled = true
		e.lastWhistle = now
	}
	e.logger.Info("ball out of bounds",
		zap.String("boundary", string(c.Boundary)),
		zap.String("side", string(c.Side)),
		zap.Any("position", c.Position),
	)
	e.respawning = true

	e.sched.After(key(taskOutRespawn), e.tuning.OutRespawnDelay, func() {
		if !e.respawning {
			return
		}
		e.ball.Despawn()
		e.setPossessor(nil, rules.ReasonOut, nil)

		evt := rules.Event{Side: string(c.Side), Boundary: string(c.Boundary), Position: c.Position}
		switch c.Boundary {
		case field.BoundarySideline:
			evt.Type = rules.EventBallOutSideline
		case field.BoundaryGoalLine:
			evt.Type = rules.EventBallOutGoalLine
		default:
			evt = rules.Event{Type: rules.EventBallResetOutOfBounds}
		}
		if last := e.state.LastPossessor(); last != nil && evt.Type != rules.EventBallResetOutOfBounds {
			evt.LastPlayerID = last.ID()
			evt.Team = string(last.Team())
		}
		e.publish(evt)

		e.sched.After(key(taskOutCooldown), e.tuning.OutCooldown, func() {
			e.respawning = false
		})
	})
}

// captureNearest hands a slow loose ball to the closest eligible player
// inside the capture radius.
func (e *Engine) captureNearest(pos mgl64.Vec3) {
	if geom.PlanarSpeed(e.ball.LinearVelocity()) >= e.tuning.ProximityMaxSpeed {
		return
	}
	var closest *player.Entity
	best := math.Inf(1)
	for _, p := range e.roster.Players() {
		if !p.IsSpawned() || p.IsStunned() {
			continue
		}
		d := geom.PlanarDistance(p.Position(), pos)
		if d < e.tuning.ProximityRadius && d < best {
			best = d
			closest = p
		}
	}
	if closest == nil {
		return
	}
	e.setPossessor(closest, rules.ReasonProximity, nil)
	e.audio.Play(host.CueKick, e.tuning.ProximityVolume)
	e.logger.Debug("ball attached by proximity", zap.String("player_id", closest.ID()), zap.Float64("distance", best))
}

// follow keeps a possessed ball at the possessor's feet and spins it to look
// like it is rolling.
func (e *Engine) follow(p *player.Entity) {
	facing := p.Facing()
	at := p.Position()
	e.ball.SetPosition(mgl64.Vec3{
		at.X() - facing.X()*e.tuning.DribbleOffset,
		at.Y() - e.tuning.DribbleDrop,
		at.Z() - facing.Z()*e.tuning.DribbleOffset,
	})
	e.ball.SetLinearVelocity(mgl64.Vec3{})

	v := p.Body().LinearVelocity()
	speed := geom.PlanarSpeed(v)
	if speed <= e.tuning.RollMinSpeed {
		e.ball.SetAngularVelocity(mgl64.Vec3{})
		return
	}
	spin := speed * e.tuning.RollMultiplier
	e.ball.SetAngularVelocity(mgl64.Vec3{-v.Z() / speed * spin, 0, v.X() / speed * spin})
}

// OnPlayerContact handles the ball touching p and returns what happened.
func (e *Engine) OnPlayerContact(p *player.Entity) collision.BallOutcome {
	if !e.ball.IsSpawned() {
		return collision.BallIgnore
	}
	holder := e.state.Possessor()
	outcome := collision.ResolveBall(holder, p, e.inGoal)

	switch outcome {
	case collision.BallAttach:
		e.setPossessor(p, rules.ReasonContact, nil)
		e.audio.Play(host.CueKick, e.tuning.AttachVolume)
	case collision.BallSteal:
		e.setPossessor(nil, rules.ReasonSteal, p)
		f := p.Facing()
		e.ball.ApplyImpulse(mgl64.Vec3{f.X() * e.tuning.StealImpulse, e.tuning.StealLift, f.Z() * e.tuning.StealImpulse})
		e.ball.SetAngularVelocity(mgl64.Vec3{})
	case collision.BallHandoff:
		e.setPossessor(p, rules.ReasonHandoff, nil)
		e.audio.Play(host.CueKick, e.tuning.HandoffVolume)
		e.logger.Debug("ball handed off", zap.String("from", holder.ID()), zap.String("to", p.ID()))
	}
	return outcome
}

// OnTerrainContact bounces the ball off any block not in the no-bounce list.
// It reports whether a bounce was applied.
func (e *Engine) OnTerrainContact(blockID int) bool {
	if slices.Contains(e.tuning.NoBounceBlocks, blockID) {
		return false
	}
	v := e.ball.LinearVelocity()
	e.ball.SetLinearVelocity(mgl64.Vec3{
		v.X() * e.tuning.BounceDamping,
		math.Abs(v.Y()) * e.tuning.BounceRestitution,
		v.Z() * e.tuning.BounceDamping,
	})
	e.ball.SetAngularVelocity(mgl64.Vec3{})
	return true
}

// ReleaseIfHeldBy drops the ball when p is holding it, nudging it along p's
// facing. Used when the possessor is stunned.
func (e *Engine) ReleaseIfHeldBy(p *player.Entity) bool {
	if !e.state.HasPossession(p) {
		return false
	}
	e.setPossessor(nil, rules.ReasonStun, nil)
	f := p.Facing()
	e.ball.ApplyImpulse(mgl64.Vec3{f.X() * e.tuning.DropImpulse, e.tuning.DropLift, f.Z() * e.tuning.DropImpulse})
	e.ball.SetAngularVelocity(mgl64.Vec3{})
	return true
}

// Release clears possession and kicks the ball with impulse. It is how shots
// and passes leave the possessor.
func (e *Engine) Release(impulse mgl64.Vec3) {
	e.setPossessor(nil, rules.ReasonKick, nil)
	e.ball.ApplyImpulse(impulse)
	e.audio.Play(host.CueKick, e.tuning.AttachVolume)
}

// ResetForRestart cancels pending goal and restart handling and puts the
// ball back on the spawn point for a kickoff.
func (e *Engine) ResetForRestart() {
	e.PlaceAt(e.spawn)
}

// PlaceAt cancels pending ball tasks, clears possession and spawns the ball
// at pos with no velocity. Orchestration uses it for throw-ins, corners,
// goal kicks and penalties; movement detection restarts from pos.
func (e *Engine) PlaceAt(pos mgl64.Vec3) {
	e.sched.CancelOwner(Owner)
	e.inGoal = false
	e.respawning = false
	e.initializing = false
	e.state.ResetBallMoved()
	e.setPossessor(nil, rules.ReasonReset, nil)

	if e.ball.IsSpawned() {
		e.ball.Despawn()
	}
	e.ball.Spawn(pos)
	e.stop(pos)
	e.ball.WakeUp()
	e.logger.Debug("ball placed", zap.Any("position", pos))
}

// respawnAt spawns the ball at pos with no velocity and announces it.
func (e *Engine) respawnAt(pos mgl64.Vec3, reason string) {
	e.ball.Spawn(pos)
	e.stop(pos)
	e.publish(rules.Event{Type: rules.EventBallRespawned, Reason: reason, Position: pos})
}

func (e *Engine) stop(at mgl64.Vec3) {
	e.ball.SetLinearVelocity(mgl64.Vec3{})
	e.ball.SetAngularVelocity(mgl64.Vec3{})
	e.origin = at
	e.lastSample = at
	e.ticks = 0
}

// setPossessor changes possession and publishes possession-changed when the
// holder actually changed. by is the tackler on a steal.
func (e *Engine) setPossessor(p *player.Entity, reason string, by *player.Entity) {
	prev := e.state.SetPossessor(p)
	if prev == p {
		return
	}

	evt := rules.Event{Type: rules.EventPossessionChanged, Reason: reason, Metadata: map[string]string{}}
	if p != nil {
		evt.PlayerID = p.ID()
		evt.Team = string(p.Team())
	}
	if prev != nil {
		evt.FromPlayerID = prev.ID()
		evt.Metadata["from_team"] = string(prev.Team())
	}
	if by != nil {
		evt.Metadata["tackler_id"] = by.ID()
		evt.Metadata["tackler_team"] = string(by.Team())
	}
	e.publish(evt)
}

func (e *Engine) publish(evt rules.Event) {
	evt.MatchID = e.state.ID()
	evt.SimTime = e.sched.Now()
	evt.Timestamp = time.Now()
	if evt.Metadata == nil {
		evt.Metadata = map[string]string{}
	}
	if evt.Position == (mgl64.Vec3{}) && e.ball.IsSpawned() {
		evt.Position = e.ball.Position()
	}
	e.bus.Publish(evt)
}
