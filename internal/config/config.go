// Package config loads the server configuration from a YAML file, HYSPORTS_
// environment variables and built-in defaults, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/ball"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/field"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

// EnvPrefix is the prefix of environment overrides, e.g. HYSPORTS_LOGGING_LEVEL.
const EnvPrefix = "HYSPORTS"

// Config is the root configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Pitch      field.Pitch      `mapstructure:"pitch"`
	Formation  player.Formation `mapstructure:"formation"`
	Ball       ball.Tuning      `mapstructure:"ball"`
	Player     player.Tuning    `mapstructure:"player"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Replay     ReplayConfig     `mapstructure:"replay"`
}

// LoggingConfig selects the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// SimulationConfig controls the headless match the server runs.
type SimulationConfig struct {
	TickRate      int           `mapstructure:"tick_rate"`
	MatchDuration time.Duration `mapstructure:"match_duration"` // 0 runs until shutdown
	Roles         []string      `mapstructure:"roles"`          // fielded by both teams
	Seed          int64         `mapstructure:"seed"`
	Gravity       float64       `mapstructure:"gravity"`
	PlayerSpeed   float64       `mapstructure:"player_speed"`
}

// DatabaseConfig selects where match summaries are stored.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // sqlite, postgres or none
	Path           string        `mapstructure:"path"`   // sqlite file
	URL            string        `mapstructure:"url"`    // postgres connection string
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// FeedConfig configures the spectator websocket feed.
type FeedConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	Path         string        `mapstructure:"path"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// ReplayConfig controls event replay recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Load reads the configuration. An empty path skips the file and uses
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make the simulation misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	for _, r := range c.Simulation.Roles {
		if _, ok := c.Formation.Position(player.TeamRed, player.Role(r)); !ok {
			errs = append(errs, fmt.Errorf("simulation.roles: unknown role %q", r))
		}
	}
	if c.Pitch.MinX >= c.Pitch.MaxX || c.Pitch.MinZ >= c.Pitch.MaxZ {
		errs = append(errs, errors.New("pitch bounds are inverted"))
	}
	if c.Ball.JitterCadence <= 0 {
		errs = append(errs, errors.New("ball.jitter_cadence must be positive"))
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for postgres"))
		}
	case DriverNone:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Feed.Enabled && c.Feed.Address == "" {
		errs = append(errs, errors.New("feed.address is required when the feed is enabled"))
	}
	if c.Replay.Enabled && c.Replay.Dir == "" {
		errs = append(errs, errors.New("replay.dir is required when replays are enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Match returns the match tunables.
func (c *Config) Match() game.Config {
	return game.Config{
		Pitch:     c.Pitch,
		Formation: c.Formation,
		Ball:      c.Ball,
		Player:    c.Player,
	}
}

// Roles returns the configured roles, or every role when none are listed.
func (c *Config) Roles() []player.Role {
	if len(c.Simulation.Roles) == 0 {
		return append([]player.Role(nil), player.Roles...)
	}
	roles := make([]player.Role, 0, len(c.Simulation.Roles))
	for _, r := range c.Simulation.Roles {
		roles = append(roles, player.Role(r))
	}
	return roles
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("simulation.tick_rate", game.DefaultTickRate)
	v.SetDefault("simulation.match_duration", 0)
	v.SetDefault("simulation.roles", []string{})
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.gravity", 9.81)
	v.SetDefault("simulation.player_speed", 6.0)

	m := game.DefaultConfig()

	v.SetDefault("pitch.min_x", m.Pitch.MinX)
	v.SetDefault("pitch.max_x", m.Pitch.MaxX)
	v.SetDefault("pitch.min_z", m.Pitch.MinZ)
	v.SetDefault("pitch.max_z", m.Pitch.MaxZ)
	v.SetDefault("pitch.min_y", m.Pitch.MinY)
	v.SetDefault("pitch.max_y", m.Pitch.MaxY)
	v.SetDefault("pitch.center_z", m.Pitch.CenterZ)
	v.SetDefault("pitch.goal_half_width", m.Pitch.GoalHalfWidth)
	v.SetDefault("pitch.goal_height", m.Pitch.GoalHeight)
	v.SetDefault("pitch.goal_depth", m.Pitch.GoalDepth)

	v.SetDefault("formation.red_goal_line_x", m.Formation.RedGoalLineX)
	v.SetDefault("formation.blue_goal_line_x", m.Formation.BlueGoalLineX)
	v.SetDefault("formation.center_z", m.Formation.CenterZ)
	v.SetDefault("formation.goalkeeper_offset_x", m.Formation.GoalkeeperOffsetX)
	v.SetDefault("formation.defensive_offset_x", m.Formation.DefensiveOffsetX)
	v.SetDefault("formation.midfield_offset_x", m.Formation.MidfieldOffsetX)
	v.SetDefault("formation.forward_offset_x", m.Formation.ForwardOffsetX)
	v.SetDefault("formation.wide_z_min", m.Formation.WideZMin)
	v.SetDefault("formation.wide_z_max", m.Formation.WideZMax)
	v.SetDefault("formation.midfield_z_min", m.Formation.MidfieldZMin)
	v.SetDefault("formation.midfield_z_max", m.Formation.MidfieldZMax)
	v.SetDefault("formation.spawn_y", m.Formation.SpawnY)

	b := m.Ball
	v.SetDefault("ball.spawn.x", b.Spawn.X)
	v.SetDefault("ball.spawn.y", b.Spawn.Y)
	v.SetDefault("ball.spawn.z", b.Spawn.Z)
	v.SetDefault("ball.radius", b.Radius)
	v.SetDefault("ball.init_window", b.InitWindow)
	v.SetDefault("ball.move_threshold", b.MoveThreshold)
	v.SetDefault("ball.jitter_cadence", b.JitterCadence)
	v.SetDefault("ball.jitter_threshold", b.JitterThreshold)
	v.SetDefault("ball.jitter_blend", b.JitterBlend)
	v.SetDefault("ball.fall_margin", b.FallMargin)
	v.SetDefault("ball.below_field_margin", b.BelowFieldMargin)
	v.SetDefault("ball.recovery_cooldown", b.RecoveryCooldown)
	v.SetDefault("ball.goal_confirm_delay", b.GoalConfirmDelay)
	v.SetDefault("ball.goal_reset_delay", b.GoalResetDelay)
	v.SetDefault("ball.whistle_debounce", b.WhistleDebounce)
	v.SetDefault("ball.whistle_volume", b.WhistleVolume)
	v.SetDefault("ball.out_respawn_delay", b.OutRespawnDelay)
	v.SetDefault("ball.out_cooldown", b.OutCooldown)
	v.SetDefault("ball.proximity_radius", b.ProximityRadius)
	v.SetDefault("ball.proximity_max_speed", b.ProximityMaxSpeed)
	v.SetDefault("ball.proximity_volume", b.ProximityVolume)
	v.SetDefault("ball.attach_volume", b.AttachVolume)
	v.SetDefault("ball.handoff_volume", b.HandoffVolume)
	v.SetDefault("ball.dribble_offset", b.DribbleOffset)
	v.SetDefault("ball.dribble_drop", b.DribbleDrop)
	v.SetDefault("ball.roll_min_speed", b.RollMinSpeed)
	v.SetDefault("ball.roll_multiplier", b.RollMultiplier)
	v.SetDefault("ball.steal_impulse", b.StealImpulse)
	v.SetDefault("ball.steal_lift", b.StealLift)
	v.SetDefault("ball.drop_impulse", b.DropImpulse)
	v.SetDefault("ball.drop_lift", b.DropLift)
	v.SetDefault("ball.bounce_damping", b.BounceDamping)
	v.SetDefault("ball.bounce_restitution", b.BounceRestitution)
	v.SetDefault("ball.no_bounce_blocks", b.NoBounceBlocks)

	v.SetDefault("player.stun_duration", m.Player.StunDuration)
	v.SetDefault("player.knockback_force", m.Player.KnockbackForce)
	v.SetDefault("player.knockback_lift", m.Player.KnockbackLift)
	v.SetDefault("player.speed_boost_window", m.Player.SpeedBoostWindow)
	v.SetDefault("player.spawn_height_tolerance", m.Player.SpawnHeightTolerance)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/hysports.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("feed.enabled", true)
	v.SetDefault("feed.address", ":8081")
	v.SetDefault("feed.path", "/feed")
	v.SetDefault("feed.send_buffer", 256)
	v.SetDefault("feed.write_timeout", 10*time.Second)
	v.SetDefault("feed.ping_interval", 30*time.Second)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.dir", "data/replays")
}
