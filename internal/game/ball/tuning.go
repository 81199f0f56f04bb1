package ball

import (
	"time"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
)

// Tuning holds every threshold, delay and force the engine uses.
type Tuning struct {
	Spawn  geom.Point `mapstructure:"spawn"`
	Radius float64    `mapstructure:"radius"`

	// InitWindow suppresses detection right after the ball is created.
	InitWindow    time.Duration `mapstructure:"init_window"`
	MoveThreshold float64       `mapstructure:"move_threshold"`

	JitterCadence   int     `mapstructure:"jitter_cadence"`
	JitterThreshold float64 `mapstructure:"jitter_threshold"`
	JitterBlend     float64 `mapstructure:"jitter_blend"`

	FallMargin       float64       `mapstructure:"fall_margin"`
	BelowFieldMargin float64       `mapstructure:"below_field_margin"`
	RecoveryCooldown time.Duration `mapstructure:"recovery_cooldown"`

	GoalConfirmDelay time.Duration `mapstructure:"goal_confirm_delay"`
	GoalResetDelay   time.Duration `mapstructure:"goal_reset_delay"`

	WhistleDebounce time.Duration `mapstructure:"whistle_debounce"`
	WhistleVolume   float64       `mapstructure:"whistle_volume"`
	OutRespawnDelay time.Duration `mapstructure:"out_respawn_delay"`
	OutCooldown     time.Duration `mapstructure:"out_cooldown"`

	ProximityRadius   float64 `mapstructure:"proximity_radius"`
	ProximityMaxSpeed float64 `mapstructure:"proximity_max_speed"`
	ProximityVolume   float64 `mapstructure:"proximity_volume"`
	AttachVolume      float64 `mapstructure:"attach_volume"`
	HandoffVolume     float64 `mapstructure:"handoff_volume"`

	DribbleOffset  float64 `mapstructure:"dribble_offset"`
	DribbleDrop    float64 `mapstructure:"dribble_drop"`
	RollMinSpeed   float64 `mapstructure:"roll_min_speed"`
	RollMultiplier float64 `mapstructure:"roll_multiplier"`

	StealImpulse float64 `mapstructure:"steal_impulse"`
	StealLift    float64 `mapstructure:"steal_lift"`
	DropImpulse  float64 `mapstructure:"drop_impulse"`
	DropLift     float64 `mapstructure:"drop_lift"`

	BounceDamping     float64 `mapstructure:"bounce_damping"`
	BounceRestitution float64 `mapstructure:"bounce_restitution"`
	NoBounceBlocks    []int   `mapstructure:"no_bounce_blocks"`
}

// DefaultTuning returns the stock ball tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Spawn:  geom.Point{X: 0, Y: 0.2, Z: 0},
		Radius: 0.2,

		InitWindow:    time.Second,
		MoveThreshold: 0.1,

		JitterCadence:   5,
		JitterThreshold: 5.0,
		JitterBlend:     0.7,

		FallMargin:       3,
		BelowFieldMargin: 1,
		RecoveryCooldown: time.Second,

		GoalConfirmDelay: 100 * time.Millisecond,
		GoalResetDelay:   3 * time.Second,

		WhistleDebounce: 3 * time.Second,
		WhistleVolume:   0.1,
		OutRespawnDelay: 1500 * time.Millisecond,
		OutCooldown:     time.Second,

		ProximityRadius:   1.5,
		ProximityMaxSpeed: 3.0,
		ProximityVolume:   0.08,
		AttachVolume:      0.15,
		HandoffVolume:     0.1,

		DribbleOffset:  0.7,
		DribbleDrop:    0.5,
		RollMinSpeed:   0.5,
		RollMultiplier: 2.0,

		StealImpulse: 1.0,
		StealLift:    0.3,
		DropImpulse:  1.0,
		DropLift:     0.5,

		BounceDamping:     0.85,
		BounceRestitution: 0.6,
		NoBounceBlocks:    []int{0, 7, 24, 27},
	}
}
