// Package player implements the per-player state machine: stun, tackle,
// dodge, freeze and speed boost flags, cumulative statistics, and the
// role-based home position used for kickoffs and restarts.
package player

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/sched"
)

var (
	// ErrStunned is returned when a stunned player tries to start a tackle.
	ErrStunned = errors.New("player is stunned")
	// ErrInvalidTeam is returned for a team other than red or blue.
	ErrInvalidTeam = errors.New("invalid team")
)

// Scheduler task purposes owned by an entity.
const (
	TaskStun       = "stun"
	TaskSpeedBoost = "speed-boost"
)

// AnimDizzy is the one-shot animation played while stunned.
const AnimDizzy = "dizzy"

// Tuning holds the timings and forces of player state transitions.
type Tuning struct {
	StunDuration         time.Duration `mapstructure:"stun_duration"`
	KnockbackForce       float64       `mapstructure:"knockback_force"`
	KnockbackLift        float64       `mapstructure:"knockback_lift"`
	SpeedBoostWindow     time.Duration `mapstructure:"speed_boost_window"`
	SpawnHeightTolerance float64       `mapstructure:"spawn_height_tolerance"`
}

// DefaultTuning returns the stock player tuning.
func DefaultTuning() Tuning {
	return Tuning{
		StunDuration:         2 * time.Second,
		KnockbackForce:       5,
		KnockbackLift:        4,
		SpeedBoostWindow:     10 * time.Second,
		SpawnHeightTolerance: 1,
	}
}

// Options configures a new Entity.
type Options struct {
	Team        Team
	Role        Role
	Participant Participant
	Body        host.Body
	Animator    host.Animator
	Scheduler   *sched.Scheduler
	Tuning      Tuning
	Formation   Formation
	Logger      *zap.Logger
}

// Entity is one player on the pitch. It is not safe for concurrent use; the
// owning match serializes every call.
type Entity struct {
	id          string
	team        Team
	role        Role
	participant Participant
	body        host.Body
	anim        host.Animator
	sched       *sched.Scheduler
	tuning      Tuning
	formation   Formation
	logger      *zap.Logger

	spawned        bool
	stunned        bool
	tackling       bool
	dodging        bool
	frozen         bool
	speedAmplifier float64

	goals, tackles, passes, shots, saves int
	distance                             float64
	lastSample                           *mgl64.Vec3
}

// New creates a player entity with a fresh identity token.
func New(opts Options) (*Entity, error) {
	if !opts.Team.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeam, opts.Team)
	}
	if opts.Body == nil {
		return nil, errors.New("player body is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("player scheduler is required")
	}
	if opts.Participant == nil {
		opts.Participant = NewSimulatedParticipant(string(opts.Role))
	}
	if opts.Animator == nil {
		opts.Animator = host.NopAnimator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New().String()
	log := logger.With(
		zap.String("player_id", id),
		zap.String("player", opts.Participant.Name()),
		zap.String("team", string(opts.Team)),
	)
	return &Entity{
		id:          id,
		team:        opts.Team,
		role:        opts.Role,
		participant: opts.Participant,
		body:        opts.Body,
		anim:        opts.Animator,
		sched:       opts.Scheduler,
		tuning:      opts.Tuning,
		formation:   opts.Formation,
		logger:      log,
	}, nil
}

func (e *Entity) ID() string               { return e.id }
func (e *Entity) Name() string             { return e.participant.Name() }
func (e *Entity) Team() Team               { return e.team }
func (e *Entity) Role() Role               { return e.role }
func (e *Entity) Participant() Participant { return e.participant }
func (e *Entity) Body() host.Body          { return e.body }
func (e *Entity) Position() mgl64.Vec3     { return e.body.Position() }
func (e *Entity) IsSpawned() bool          { return e.spawned }
func (e *Entity) IsStunned() bool          { return e.stunned }
func (e *Entity) IsTackling() bool         { return e.tackling }
func (e *Entity) IsDodging() bool          { return e.dodging }
func (e *Entity) IsFrozen() bool           { return e.frozen }
func (e *Entity) SpeedAmplifier() float64  { return e.speedAmplifier }
func (e *Entity) SetDodging(dodging bool)  { e.dodging = dodging }

func (e *Entity) taskKey(purpose string) sched.Key {
	return sched.Key{Owner: e.id, Purpose: purpose}
}

// Facing is the planar direction the player looks along. A degenerate
// orientation falls back to the team's attacking direction.
func (e *Entity) Facing() mgl64.Vec3 {
	if dir, ok := geom.Facing(e.body.Rotation()); ok {
		return dir
	}
	return geom.Forward.Mul(e.team.ForwardSign())
}

// SetTackling toggles the tackle state. A stunned player cannot start one.
func (e *Entity) SetTackling(tackling bool) error {
	if tackling && e.stunned {
		e.tackling = false
		return ErrStunned
	}
	e.tackling = tackling
	return nil
}

// CanTackle reports whether a collision right now would count as a tackle.
func (e *Entity) CanTackle() bool {
	return e.tackling && !e.stunned
}

// Stun knocks the player down for the stun duration. It returns false if the
// player is dodging. A repeat stun restarts the timer.
func (e *Entity) Stun(from *Entity) bool {
	if e.dodging {
		e.logger.Debug("stun dodged")
		return false
	}

	e.stunned = true
	e.tackling = false
	e.sched.After(e.taskKey(TaskStun), e.tuning.StunDuration, func() {
		e.stunned = false
		e.logger.Debug("stun expired")
	})

	e.anim.StopLooped(AnimDizzy)
	e.anim.PlayOneshot(AnimDizzy)

	dir := e.knockbackDirection(from)
	e.body.ApplyImpulse(mgl64.Vec3{
		dir.X() * e.tuning.KnockbackForce,
		e.tuning.KnockbackLift,
		dir.Z() * e.tuning.KnockbackForce,
	})

	fields := []zap.Field{zap.Duration("duration", e.tuning.StunDuration)}
	if from != nil {
		fields = append(fields, zap.String("by", from.ID()))
	}
	e.logger.Debug("player stunned", fields...)
	return true
}

// knockbackDirection pushes away from the attacker, then along the attacker's
// facing, then backwards from the player's own facing.
func (e *Entity) knockbackDirection(from *Entity) mgl64.Vec3 {
	if from != nil {
		if dir, ok := geom.NormalizePlanar(e.Position().Sub(from.Position())); ok {
			return dir
		}
		if dir, ok := geom.Facing(from.body.Rotation()); ok {
			return dir
		}
	}
	return e.Facing().Mul(-1)
}

// Freeze stops the player in place and ignores movement until Unfreeze.
func (e *Entity) Freeze() {
	e.frozen = true
	e.body.SetLinearVelocity(mgl64.Vec3{})
}

// Unfreeze restores movement.
func (e *Entity) Unfreeze() {
	e.frozen = false
	e.body.WakeUp()
}

// Move applies a movement velocity scaled by the speed boost. It reports
// false when the player is frozen or stunned and the input was dropped.
func (e *Entity) Move(velocity mgl64.Vec3) bool {
	if e.frozen || e.stunned {
		return false
	}
	m := e.SpeedMultiplier()
	e.body.SetLinearVelocity(mgl64.Vec3{velocity.X() * m, velocity.Y(), velocity.Z() * m})
	return true
}

// SpeedBoost sets the speed amplifier for the boost window. Reapplying
// replaces the amplifier and restarts the window.
func (e *Entity) SpeedBoost(amount float64) {
	e.speedAmplifier = amount
	e.sched.After(e.taskKey(TaskSpeedBoost), e.tuning.SpeedBoostWindow, func() {
		e.speedAmplifier = 0
	})
}

// SpeedMultiplier is the factor applied to movement input.
func (e *Entity) SpeedMultiplier() float64 {
	return 1 + e.speedAmplifier
}

// HomePosition is the formation spot for the player's team and role.
func (e *Entity) HomePosition() mgl64.Vec3 {
	pos, ok := e.formation.Position(e.team, e.role)
	if !ok {
		e.logger.Warn("unknown role, defaulting to midfield", zap.String("role", string(e.role)))
	}
	return pos
}

// KickoffRotation faces the player toward the opponent's goal.
func (e *Entity) KickoffRotation() mgl64.Quat {
	if e.team == TeamBlue {
		return mgl64.Quat{W: 0, V: mgl64.Vec3{0, 1, 0}}
	}
	return mgl64.QuatIdent()
}

// OnSpawn runs when the host adds the entity to the world: it sets the team
// facing, attaches a human's camera and corrects the spawn height.
func (e *Entity) OnSpawn() error {
	e.spawned = true
	e.body.SetRotation(e.KickoffRotation())

	var err error
	if e.participant.IsHuman() {
		if err = e.participant.AttachCamera(e.body); err != nil {
			e.logger.Error("failed to attach camera", zap.Error(err))
			err = fmt.Errorf("attach camera: %w", err)
		}
	}
	e.CorrectSpawnHeight()
	return err
}

// CorrectSpawnHeight snaps the player back to the spawn height when the host
// dropped it too far above or below.
func (e *Entity) CorrectSpawnHeight() bool {
	pos := e.body.Position()
	want := e.formation.SpawnY
	if math.Abs(pos.Y()-want) <= e.tuning.SpawnHeightTolerance {
		return false
	}
	e.logger.Debug("correcting spawn height", zap.Float64("from", pos.Y()), zap.Float64("to", want))
	e.body.SetPosition(mgl64.Vec3{pos.X(), want, pos.Z()})
	e.body.WakeUp()
	return true
}

// MoveToSpawnPoint teleports a spawned player to its home position facing
// the opponent's goal.
func (e *Entity) MoveToSpawnPoint() {
	if !e.spawned {
		return
	}
	e.body.SetLinearVelocity(mgl64.Vec3{})
	e.body.SetAngularVelocity(mgl64.Vec3{})
	e.body.SetPosition(e.HomePosition())
	e.body.SetRotation(e.KickoffRotation())
	e.body.WakeUp()
}

// Despawn removes the player from play and drops its pending timers.
func (e *Entity) Despawn() {
	e.spawned = false
	e.stunned = false
	e.tackling = false
	e.dodging = false
	e.speedAmplifier = 0
	e.sched.CancelOwner(e.id)
}
