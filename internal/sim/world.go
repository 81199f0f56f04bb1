// Package sim is a headless host for the match core. It integrates kinematic
// bodies, reports contacts to the match, drives simulated participants and
// restarts play after goals and balls out of bounds.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

const (
	ballMass   = 0.45
	playerMass = 70

	// groundBlock is the terrain block the whole pitch is made of.
	groundBlock = 1

	playerRadius = 0.45

	// planar damping per second for a rolling ball and a sliding player
	ballFriction   = 0.6
	playerFriction = 4.0

	// the kicker cannot touch the ball again for this long
	kickGrace = 300 * time.Millisecond

	restartInset = 0.5
)

// Options configures a World.
type Options struct {
	Manager     *game.Manager // registers the match when set
	MatchID     string
	Config      game.Config
	Roles       []player.Role // fielded by both teams; all roles when empty
	Seed        int64
	Gravity     float64
	PlayerSpeed float64
	Audio       host.AudioPlayer
	Logger      *zap.Logger
}

type agent struct {
	id       string
	team     player.Team
	role     player.Role
	body     *host.Kinematic
	moving   bool
	tackling bool
	boosted  bool
	grace    time.Duration
}

// World owns the bodies of one match.
type World struct {
	match  *game.Match
	cfg    game.Config
	ball   *host.Kinematic
	agents []*agent
	byID   map[string]*agent
	rng    *rand.Rand
	speed  float64
	logger *zap.Logger

	mu      sync.Mutex
	pending []rules.Event

	ballContacts   map[string]bool
	playerContacts map[[2]string]bool
	shotBy         player.Team
}

// New creates the match, its ball and one simulated player per role and team.
func New(opts Options) (*World, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	roles := opts.Roles
	if len(roles) == 0 {
		roles = player.Roles
	}
	gravity := opts.Gravity
	if gravity <= 0 {
		gravity = 9.81
	}
	speed := opts.PlayerSpeed
	if speed <= 0 {
		speed = 6
	}
	cfg := opts.Config

	ball := host.NewKinematic(cfg.Ball.Spawn.Vec3(), ballMass)
	ball.Gravity = gravity
	ball.GroundY = cfg.Pitch.MinY
	ball.Radius = cfg.Ball.Radius

	matchOpts := game.Options{
		ID:     opts.MatchID,
		Config: cfg,
		Ball:   ball,
		Audio:  opts.Audio,
		Logger: logger,
	}
	var m *game.Match
	var err error
	if opts.Manager != nil {
		m, err = opts.Manager.CreateMatch(matchOpts)
	} else {
		m, err = game.NewMatch(matchOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	w := &World{
		match:          m,
		cfg:            cfg,
		ball:           ball,
		byID:           make(map[string]*agent),
		rng:            rand.New(rand.NewSource(opts.Seed)),
		speed:          speed,
		logger:         logger.With(zap.String("match_id", m.ID())),
		ballContacts:   make(map[string]bool),
		playerContacts: make(map[[2]string]bool),
	}

	for _, team := range []player.Team{player.TeamRed, player.TeamBlue} {
		for _, role := range roles {
			body := host.NewKinematic(mgl64.Vec3{0, cfg.Formation.SpawnY, 0}, playerMass)
			body.Gravity = gravity
			body.GroundY = cfg.Pitch.MinY
			body.Radius = cfg.Formation.SpawnY - cfg.Pitch.MinY

			p, err := m.AddPlayer(game.PlayerSpec{
				Team:        team,
				Role:        role,
				Participant: player.NewSimulatedParticipant(fmt.Sprintf("%s %s", team, role)),
				Body:        body,
				Animator:    host.NopAnimator{},
			})
			if err != nil {
				return nil, err
			}
			a := &agent{id: p.ID(), team: team, role: role, body: body}
			w.agents = append(w.agents, a)
			w.byID[a.id] = a
		}
	}

	m.Bus().Subscribe(w.enqueue)
	return w, nil
}

// Match returns the simulated match.
func (w *World) Match() *game.Match { return w.match }

// Ball returns the ball body.
func (w *World) Ball() *host.Kinematic { return w.ball }

// Start kicks the match off.
func (w *World) Start() {
	w.match.Start()
}

// Tick implements game.Stepper: participants decide, bodies move, contacts
// are reported, then the match runs and queued restarts are handled.
func (w *World) Tick(dt time.Duration) {
	w.drive(dt)
	w.integrate(dt)
	w.checkBallContacts()
	w.checkPlayerContacts()
	w.match.Tick(dt)
	w.flush()
}

func (w *World) integrate(dt time.Duration) {
	secs := dt.Seconds()
	for _, a := range w.agents {
		if !a.moving {
			damp(a.body, playerFriction*secs)
		}
		a.body.Integrate(secs)
		w.keepOnPitch(a.body)
		if a.grace > 0 {
			a.grace -= dt
		}
	}

	if w.ball.Integrate(secs) {
		w.match.OnBallTerrainContact(groundBlock)
	}
	if w.ball.Position().Y() <= w.cfg.Pitch.MinY+w.cfg.Ball.Radius+0.01 {
		damp(w.ball, ballFriction*secs)
	}
}

// damp scales the planar velocity of body down by factor.
func damp(body *host.Kinematic, factor float64) {
	keep := 1 - factor
	if keep < 0 {
		keep = 0
	}
	v := body.LinearVelocity()
	body.SetLinearVelocity(mgl64.Vec3{v.X() * keep, v.Y(), v.Z() * keep})
}

// keepOnPitch stops players from running far off the pitch.
func (w *World) keepOnPitch(body *host.Kinematic) {
	p := w.cfg.Pitch
	pos := body.Position()
	clamped := mgl64.Vec3{
		mgl64.Clamp(pos.X(), p.MinX-1, p.MaxX+1),
		pos.Y(),
		mgl64.Clamp(pos.Z(), p.MinZ-1, p.MaxZ+1),
	}
	if clamped != pos {
		body.SetPosition(clamped)
	}
}

// checkBallContacts reports a contact once when the ball starts touching a
// player.
func (w *World) checkBallContacts() {
	if !w.ball.IsSpawned() {
		clear(w.ballContacts)
		return
	}
	bp := w.ball.Position()
	reach := playerRadius + w.cfg.Ball.Radius
	for _, a := range w.agents {
		pos := a.body.Position()
		touching := a.grace <= 0 &&
			geom.PlanarDistance(pos, bp) < reach &&
			bp.Y() < pos.Y()+w.cfg.Formation.SpawnY
		if touching && !w.ballContacts[a.id] {
			if _, err := w.match.OnBallPlayerContact(a.id); err != nil {
				w.logger.Warn("ball contact failed", zap.String("player_id", a.id), zap.Error(err))
			}
		}
		w.ballContacts[a.id] = touching
	}
}

func (w *World) checkPlayerContacts() {
	for i := 0; i < len(w.agents); i++ {
		for j := i + 1; j < len(w.agents); j++ {
			a, b := w.agents[i], w.agents[j]
			key := [2]string{a.id, b.id}
			touching := geom.PlanarDistance(a.body.Position(), b.body.Position()) < 2*playerRadius
			if touching && !w.playerContacts[key] {
				if err := w.match.OnPlayerContact(a.id, b.id); err != nil {
					w.logger.Warn("player contact failed", zap.Error(err))
				}
			}
			w.playerContacts[key] = touching
		}
	}
}

// enqueue runs as a bus listener with the match lock held, so it only
// records the event.
func (w *World) enqueue(e rules.Event) {
	switch e.Type {
	case rules.EventGoal, rules.EventBallRespawned, rules.EventPossessionChanged, rules.EventPlayerStunned:
	default:
		if !e.Type.IsRestart() {
			return
		}
	}
	w.mu.Lock()
	w.pending = append(w.pending, e)
	w.mu.Unlock()
}

func (w *World) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = nil
	w.mu.Unlock()

	for _, e := range events {
		w.handle(e)
	}
}

// handle plays the referee: it credits goals and saves and restarts play.
func (w *World) handle(e rules.Event) {
	switch e.Type {
	case rules.EventGoal:
		w.shotBy = ""
		scorer, ok := w.byID[e.LastPlayerID]
		if !ok || string(scorer.team) != e.Team {
			w.logger.Info("goal not credited", zap.String("team", e.Team), zap.String("last_player_id", e.LastPlayerID))
			return
		}
		w.credit(w.match.CreditGoal, scorer.id)

	case rules.EventBallRespawned:
		if e.Reason == "goal" {
			w.match.Kickoff()
		}

	case rules.EventBallOutSideline, rules.EventBallOutGoalLine:
		w.shotBy = ""
		w.match.PlaceBall(w.restartSpot(e.Position))

	case rules.EventBallResetOutOfBounds:
		w.shotBy = ""
		w.match.Kickoff()

	case rules.EventPlayerStunned:
		// a stun cancels the tackle on the entity
		if a, ok := w.byID[e.PlayerID]; ok {
			a.tackling = false
		}

	case rules.EventPossessionChanged:
		if e.PlayerID == "" {
			return
		}
		if keeper, ok := w.byID[e.PlayerID]; ok && w.shotBy != "" &&
			keeper.role == player.RoleGoalkeeper && keeper.team != w.shotBy {
			w.credit(w.match.CreditSave, keeper.id)
		}
		w.shotBy = ""
	}
}

func (w *World) credit(fn func(string) error, playerID string) {
	if err := fn(playerID); err != nil && !errors.Is(err, game.ErrUnknownPlayer) {
		w.logger.Error("failed to credit player", zap.String("player_id", playerID), zap.Error(err))
	}
}

// restartSpot moves a boundary position just inside the pitch at ball height.
func (w *World) restartSpot(pos mgl64.Vec3) mgl64.Vec3 {
	p := w.cfg.Pitch
	return mgl64.Vec3{
		mgl64.Clamp(pos.X(), p.MinX+restartInset, p.MaxX-restartInset),
		w.cfg.Ball.Spawn.Y,
		mgl64.Clamp(pos.Z(), p.MinZ+restartInset, p.MaxZ-restartInset),
	}
}
