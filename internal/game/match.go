// Package game wires the match core together: one Match owns the ball
// engine, the players, the scheduler and the event bus, and serializes every
// host callback behind a single mutex.
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/ball"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/collision"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/field"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/sched"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/watchers"
)

var (
	// ErrUnknownPlayer is returned for a player ID that is not in the match.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrNotInPossession is returned when a player kicks a ball it does not hold.
	ErrNotInPossession = errors.New("player does not have the ball")
	// ErrNoBall is returned when a match is created without a ball body.
	ErrNoBall = errors.New("match ball is required")
)

// KickKind classifies a kick for the kicker's statistics.
type KickKind int

const (
	KickPass KickKind = iota
	KickShot
)

// Config collects the tunables of one match.
type Config struct {
	Pitch     field.Pitch
	Formation player.Formation
	Ball      ball.Tuning
	Player    player.Tuning
}

// DefaultConfig returns the stock match configuration.
func DefaultConfig() Config {
	return Config{
		Pitch:     field.DefaultPitch(),
		Formation: player.DefaultFormation(),
		Ball:      ball.DefaultTuning(),
		Player:    player.DefaultTuning(),
	}
}

// Options configures a new Match.
type Options struct {
	ID     string // generated when empty
	Config Config
	Ball   host.BallBody
	Oracle field.Oracle // defaults to Config.Pitch
	Audio  host.AudioPlayer
	Logger *zap.Logger
}

// PlayerSpec describes a player joining a match.
type PlayerSpec struct {
	Team        player.Team
	Role        player.Role
	Participant player.Participant
	Body        host.Body
	Animator    host.Animator
}

// roster is the ordered player list handed to the ball engine.
type roster struct {
	players []*player.Entity
}

func (r *roster) Players() []*player.Entity { return r.players }

// Match is one running soccer match. All exported methods are safe for
// concurrent use.
type Match struct {
	mu     sync.Mutex
	id     string
	cfg    Config
	state  *match.State
	sched  *sched.Scheduler
	bus    *rules.EventBus
	engine *ball.Engine
	roster *roster
	byID   map[string]*player.Entity
	logger *zap.Logger

	watchers *rules.WatcherRegistry

	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
}

// NewMatch creates a match in the waiting status. The ball is not on the
// pitch until Start.
func NewMatch(opts Options) (*Match, error) {
	if opts.Ball == nil {
		return nil, ErrNoBall
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	oracle := opts.Oracle
	if oracle == nil {
		oracle = opts.Config.Pitch
	}

	m := &Match{
		id:        id,
		cfg:       opts.Config,
		state:     match.NewState(id, opts.Ball),
		sched:     sched.New(),
		bus:       rules.NewEventBus(),
		roster:    &roster{},
		byID:      make(map[string]*player.Entity),
		logger:    logger.With(zap.String("match_id", id)),
		watchers:  rules.NewWatcherRegistry(),
		createdAt: time.Now(),
	}

	engine, err := ball.New(ball.Options{
		State:     m.state,
		Oracle:    oracle,
		FieldMinY: opts.Config.Pitch.MinY,
		Roster:    m.roster,
		Scheduler: m.sched,
		Audio:     opts.Audio,
		Bus:       m.bus,
		Tuning:    opts.Config.Ball,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create ball engine: %w", err)
	}
	m.engine = engine

	m.watchers.AddWatcher(watchers.NewScoreWatcher())
	m.watchers.AddWatcher(watchers.NewPossessionWatcher())
	m.watchers.AddWatcher(watchers.NewRestartWatcher())
	m.watchers.AddWatcher(watchers.NewTackleWatcher())
	m.watchers.Attach(m.bus)

	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Bus returns the match event bus. Listeners run on the goroutine that
// drives the match, with the match lock held; they must not call back into
// the match.
func (m *Match) Bus() *rules.EventBus { return m.bus }

// Status returns the current match status.
func (m *Match) Status() match.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status()
}

// AddPlayer creates a player, spawns it on the pitch and registers a human
// participant as the active player. A failed camera attach is logged and the
// player still joins.
func (m *Match) AddPlayer(spec PlayerSpec) (*player.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := player.New(player.Options{
		Team:        spec.Team,
		Role:        spec.Role,
		Participant: spec.Participant,
		Body:        spec.Body,
		Animator:    spec.Animator,
		Scheduler:   m.sched,
		Tuning:      m.cfg.Player,
		Formation:   m.cfg.Formation,
		Logger:      m.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("add player: %w", err)
	}
	if err := p.OnSpawn(); err != nil {
		m.logger.Warn("player spawned without camera", zap.String("player_id", p.ID()), zap.Error(err))
	}
	if p.Participant().IsHuman() {
		m.state.SetActivePlayer(p)
	}

	m.roster.players = append(m.roster.players, p)
	m.byID[p.ID()] = p

	m.logger.Info("player joined",
		zap.String("player_id", p.ID()),
		zap.String("player", p.Name()),
		zap.String("team", string(p.Team())),
		zap.String("role", string(p.Role())),
	)
	return p, nil
}

// RemovePlayer drops the ball if the player holds it, cancels its timers and
// forgets it.
func (m *Match) RemovePlayer(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	m.engine.ReleaseIfHeldBy(p)
	p.Despawn()
	m.state.Forget(p)

	delete(m.byID, playerID)
	for i, other := range m.roster.players {
		if other == p {
			m.roster.players = append(m.roster.players[:i:i], m.roster.players[i+1:]...)
			break
		}
	}
	m.logger.Info("player left", zap.String("player_id", playerID))
	return nil
}

func (m *Match) lookup(playerID string) (*player.Entity, error) {
	p, ok := m.byID[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	return p, nil
}

// Start puts the ball on the spawn point, sends every player to its home
// position and sets the match in play.
func (m *Match) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.engine.Start()
	for _, p := range m.roster.players {
		p.MoveToSpawnPoint()
	}
	m.startedAt = time.Now()
	m.setStatus(match.StatusInPlay)
}

// Tick advances simulation time by dt: due timers fire first, then the ball
// engine runs and player distances are sampled.
func (m *Match) Tick(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sched.Advance(dt)
	m.engine.Tick()
	for _, p := range m.roster.players {
		if p.IsSpawned() {
			p.UpdateDistanceTraveled()
		}
	}
}

// SimTime returns the simulation time elapsed since the match was created.
func (m *Match) SimTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.Now()
}

// OnBallPlayerContact handles the host reporting the ball touching a player.
func (m *Match) OnBallPlayerContact(playerID string) (collision.BallOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return collision.BallIgnore, err
	}
	return m.engine.OnPlayerContact(p), nil
}

// OnBallTerrainContact handles the ball touching a terrain block.
func (m *Match) OnBallTerrainContact(blockID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.OnTerrainContact(blockID)
}

// OnPlayerContact handles two players touching. Each side gets a chance to
// tackle the other, a first and then b.
func (m *Match) OnPlayerContact(aID, bID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.lookup(aID)
	if err != nil {
		return err
	}
	b, err := m.lookup(bID)
	if err != nil {
		return err
	}
	m.resolveContact(a, b)
	m.resolveContact(b, a)
	return nil
}

func (m *Match) resolveContact(self, other *player.Entity) {
	if collision.ResolvePlayers(self, other) != collision.PlayerStun {
		return
	}
	if !m.stun(other, self) {
		return
	}
	self.AddTackle()

	evt := m.event(rules.EventTackle, self)
	evt.FromPlayerID = other.ID()
	evt.Position = self.Position()
	m.bus.Publish(evt)
}

// StunPlayer stuns a player outside of a tackle, for example from a power-up.
// It reports whether the stun landed.
func (m *Match) StunPlayer(playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return false, err
	}
	return m.stun(p, nil), nil
}

// stun applies the stun and makes a stunned possessor drop the ball.
func (m *Match) stun(target, by *player.Entity) bool {
	if !target.Stun(by) {
		return false
	}
	m.engine.ReleaseIfHeldBy(target)

	evt := m.event(rules.EventPlayerStunned, target)
	if by != nil {
		evt.FromPlayerID = by.ID()
	}
	evt.Position = target.Position()
	m.bus.Publish(evt)
	return true
}

// SetTackling starts or ends a tackle attempt.
func (m *Match) SetTackling(playerID string, tackling bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	if err := p.SetTackling(tackling); err != nil {
		return fmt.Errorf("set tackling for %s: %w", playerID, err)
	}
	return nil
}

// SetDodging starts or ends a dodge.
func (m *Match) SetDodging(playerID string, dodging bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	p.SetDodging(dodging)
	return nil
}

// MovePlayer applies a movement velocity. It reports false when the player
// is frozen or stunned.
func (m *Match) MovePlayer(playerID string, velocity mgl64.Vec3) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return false, err
	}
	return p.Move(velocity), nil
}

// SpeedBoost grants a temporary speed amplifier.
func (m *Match) SpeedBoost(playerID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	p.SpeedBoost(amount)
	return nil
}

// FreezePlayers freezes or unfreezes every player, used around restarts.
func (m *Match) FreezePlayers(frozen bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.roster.players {
		if frozen {
			p.Freeze()
		} else {
			p.Unfreeze()
		}
	}
}

// Kick releases the ball from its possessor with impulse and records a pass
// or a shot.
func (m *Match) Kick(playerID string, impulse mgl64.Vec3, kind KickKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	if !m.state.HasPossession(p) {
		return fmt.Errorf("kick by %s: %w", playerID, ErrNotInPossession)
	}
	m.engine.Release(impulse)
	switch kind {
	case KickShot:
		p.AddShot()
	default:
		p.AddPass()
	}
	return nil
}

// CreditGoal adds a goal to a player's statistics. Goal events are not
// credited automatically; orchestration decides who scored.
func (m *Match) CreditGoal(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	p.AddGoal()
	return nil
}

// CreditSave adds a save to a player's statistics.
func (m *Match) CreditSave(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return err
	}
	p.AddSave()
	return nil
}

// PlaceBall puts the ball at pos for a restart.
func (m *Match) PlaceBall(pos mgl64.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.PlaceAt(pos)
}

// Kickoff returns the ball to the spawn point and every player to its home
// position.
func (m *Match) Kickoff() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.engine.ResetForRestart()
	for _, p := range m.roster.players {
		p.MoveToSpawnPoint()
	}
}

// SetStatus changes the match status and announces it.
func (m *Match) SetStatus(status match.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatus(status)
}

func (m *Match) setStatus(status match.Status) {
	prev := m.state.Status()
	if prev == status {
		return
	}
	m.state.SetStatus(status)
	if status == match.StatusFinished {
		m.endedAt = time.Now()
	}

	evt := m.event(rules.EventMatchStatusChanged, nil)
	evt.Metadata["from"] = string(prev)
	evt.Metadata["to"] = string(status)
	m.bus.Publish(evt)
	m.logger.Info("match status changed", zap.String("from", string(prev)), zap.String("to", string(status)))
}

// HomePosition returns the formation position of a player.
func (m *Match) HomePosition(playerID string) (mgl64.Vec3, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(playerID)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return p.HomePosition(), nil
}

// Possessor returns the ID of the player holding the ball.
func (m *Match) Possessor() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.state.Possessor(); p != nil {
		return p.ID(), true
	}
	return "", false
}

// ActivePlayer returns the ID of the human player the camera follows.
func (m *Match) ActivePlayer() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.state.ActivePlayer(); p != nil {
		return p.ID(), true
	}
	return "", false
}

// Stats returns every player's statistics in join order.
func (m *Match) Stats() []player.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats()
}

func (m *Match) stats() []player.Stats {
	out := make([]player.Stats, 0, len(m.roster.players))
	for _, p := range m.roster.players {
		out = append(out, p.Stats())
	}
	return out
}

// ResetStats clears player statistics and match watchers.
func (m *Match) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetStats()
}

func (m *Match) resetStats() {
	for _, p := range m.roster.players {
		p.ResetStats()
	}
	m.watchers.ResetWatchers()
	m.bus.Publish(m.event(rules.EventStatsReset, nil))
}

// Reset returns the match to waiting: every pending timer is dropped, player
// states and statistics are cleared, and the ball and players go back to
// their spawn points.
func (m *Match) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sched.CancelAll()
	for _, p := range m.roster.players {
		p.Despawn()
		p.Unfreeze()
		if err := p.OnSpawn(); err != nil {
			m.logger.Warn("player respawned without camera", zap.String("player_id", p.ID()), zap.Error(err))
		}
		p.MoveToSpawnPoint()
	}
	m.engine.ResetForRestart()
	m.resetStats()
	m.startedAt = time.Time{}
	m.endedAt = time.Time{}
	m.setStatus(match.StatusWaiting)
}

func (m *Match) event(t rules.EventType, p *player.Entity) rules.Event {
	evt := rules.NewEvent(t, m.id, "")
	evt.SimTime = m.sched.Now()
	if p != nil {
		evt.PlayerID = p.ID()
		evt.Team = string(p.Team())
	}
	return evt
}
