package sim

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

const step = 20 * time.Millisecond

func newWorld(t *testing.T, roles ...player.Role) *World {
	t.Helper()
	w, err := New(Options{
		MatchID: "sim-1",
		Config:  game.DefaultConfig(),
		Roles:   roles,
		Seed:    7,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return w
}

func run(w *World, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		w.Tick(step)
	}
}

// runUntil ticks until cond holds or limit simulated time has passed.
func runUntil(w *World, limit time.Duration, cond func() bool) bool {
	for elapsed := time.Duration(0); elapsed < limit; elapsed += step {
		w.Tick(step)
		if cond() {
			return true
		}
	}
	return false
}

func count(bus *rules.EventBus, t rules.EventType) *int {
	n := new(int)
	bus.SubscribeTyped(t, func(rules.Event) { *n++ })
	return n
}

func find(t *testing.T, w *World, team player.Team, role player.Role) *agent {
	t.Helper()
	for _, a := range w.agents {
		if a.team == team && a.role == role {
			return a
		}
	}
	t.Fatalf("no %s %s", team, role)
	return nil
}

func stats(t *testing.T, w *World, id string) player.Stats {
	t.Helper()
	for _, s := range w.Match().Stats() {
		if s.PlayerID == id {
			return s
		}
	}
	t.Fatalf("no stats for %s", id)
	return player.Stats{}
}

func TestNewFieldsBothTeams(t *testing.T) {
	w := newWorld(t)
	require.Len(t, w.agents, 2*len(player.Roles))

	w.Start()
	assert.Equal(t, match.StatusInPlay, w.Match().Status())
	for _, a := range w.agents {
		home, err := w.Match().HomePosition(a.id)
		require.NoError(t, err)
		assert.Equal(t, home, a.body.Position(), "%s %s", a.team, a.role)
	}
}

func TestNewRegistersWithManager(t *testing.T) {
	mgr := game.NewManager(zaptest.NewLogger(t))
	w, err := New(Options{Manager: mgr, MatchID: "managed", Config: game.DefaultConfig()})
	require.NoError(t, err)

	got, ok := mgr.GetMatch("managed")
	require.True(t, ok)
	assert.Same(t, w.Match(), got)
}

func TestOpenPlay(t *testing.T) {
	w := newWorld(t)
	m := w.Match()
	possessions := 0
	m.Bus().SubscribeTyped(rules.EventPossessionChanged, func(e rules.Event) {
		if e.PlayerID != "" {
			possessions++
		}
	})

	w.Start()
	run(w, 20*time.Second)

	assert.Equal(t, 20*time.Second, m.SimTime())
	assert.Greater(t, possessions, 0)

	striker := find(t, w, player.TeamRed, player.RoleStriker)
	assert.Greater(t, stats(t, w, striker.id).DistanceTraveled, 0.0)
}

func TestSidelineRestart(t *testing.T) {
	// keepers never chase, so nobody touches the ball
	w := newWorld(t, player.RoleGoalkeeper)
	m := w.Match()
	restarts := count(m.Bus(), rules.EventBallOutSideline)

	w.Start()
	run(w, 1200*time.Millisecond)
	m.PlaceBall(mgl64.Vec3{10, 0.2, 40})

	require.True(t, runUntil(w, 5*time.Second, func() bool { return *restarts == 1 }))

	require.True(t, w.Ball().IsSpawned())
	pos := w.Ball().Position()
	assert.InDelta(t, 10, pos.X(), 1e-9)
	assert.InDelta(t, 0.2, pos.Y(), 1e-9)
	assert.InDelta(t, 33.5, pos.Z(), 1e-9)
}

func TestGoalThenKickoff(t *testing.T) {
	w := newWorld(t, player.RoleGoalkeeper)
	m := w.Match()
	goals := count(m.Bus(), rules.EventGoal)
	respawns := count(m.Bus(), rules.EventBallRespawned)

	w.Start()
	run(w, 1200*time.Millisecond)
	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})

	require.True(t, runUntil(w, 5*time.Second, func() bool { return *respawns == 1 }))
	assert.Equal(t, 1, *goals)
	assert.Equal(t, 1, m.Score(player.TeamBlue))
	assert.Equal(t, 0, m.Score(player.TeamRed))

	pos := w.Ball().Position()
	assert.InDelta(t, 0, pos.X(), 1e-9)
	assert.InDelta(t, 0, pos.Z(), 1e-9)
	_, held := m.Possessor()
	assert.False(t, held)
}

func TestGoalCredit(t *testing.T) {
	w := newWorld(t)
	striker := find(t, w, player.TeamRed, player.RoleStriker)

	w.handle(rules.Event{Type: rules.EventGoal, Team: "red", LastPlayerID: striker.id})
	assert.Equal(t, 1, stats(t, w, striker.id).Goals)

	// own goals are not credited
	w.handle(rules.Event{Type: rules.EventGoal, Team: "blue", LastPlayerID: striker.id})
	assert.Equal(t, 1, stats(t, w, striker.id).Goals)

	// nor are goals without a last possessor
	w.handle(rules.Event{Type: rules.EventGoal, Team: "red"})
	assert.Equal(t, 1, stats(t, w, striker.id).Goals)
}

func TestSaveCredit(t *testing.T) {
	w := newWorld(t)
	keeper := find(t, w, player.TeamBlue, player.RoleGoalkeeper)
	defender := find(t, w, player.TeamBlue, player.RoleLeftBack)
	gained := func(id string) rules.Event {
		return rules.Event{Type: rules.EventPossessionChanged, PlayerID: id}
	}

	w.shotBy = player.TeamRed
	w.handle(gained(keeper.id))
	assert.Equal(t, 1, stats(t, w, keeper.id).Saves)
	assert.Empty(t, w.shotBy)

	// a blocked shot is not a save
	w.shotBy = player.TeamRed
	w.handle(gained(defender.id))
	w.handle(gained(keeper.id))
	assert.Equal(t, 1, stats(t, w, keeper.id).Saves)

	// nor is collecting a teammate's shot
	w.shotBy = player.TeamBlue
	w.handle(gained(keeper.id))
	assert.Equal(t, 1, stats(t, w, keeper.id).Saves)
}

func TestStunClearsTackleFlag(t *testing.T) {
	w := newWorld(t)
	a := find(t, w, player.TeamRed, player.RoleStriker)
	a.tackling = true

	w.handle(rules.Event{Type: rules.EventPlayerStunned, PlayerID: a.id})
	assert.False(t, a.tackling)
}

func TestRestartSpot(t *testing.T) {
	w := newWorld(t, player.RoleGoalkeeper)

	assert.Equal(t, mgl64.Vec3{51.5, 0.2, -33.5}, w.restartSpot(mgl64.Vec3{60, 3, -40}))
	assert.Equal(t, mgl64.Vec3{-5, 0.2, 12}, w.restartSpot(mgl64.Vec3{-5, 0.9, 12}))
}

func TestKeeperTracksBallAcrossGoalMouth(t *testing.T) {
	w := newWorld(t, player.RoleGoalkeeper)
	w.Start()
	run(w, 1200*time.Millisecond)
	w.Match().PlaceBall(mgl64.Vec3{-30, 0.2, 20})

	run(w, 2*time.Second)

	keeper := find(t, w, player.TeamRed, player.RoleGoalkeeper)
	pos := keeper.body.Position()
	assert.InDelta(t, 3.66, pos.Z(), arriveRange+1e-9)
	assert.InDelta(t, -51, pos.X(), arriveRange+1e-9)
}
