package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/collision"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/field"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

const step = 50 * time.Millisecond

type fakeCamera struct {
	attached host.Body
	err      error
}

func (c *fakeCamera) AttachTo(b host.Body) error {
	if c.err != nil {
		return c.err
	}
	c.attached = b
	return nil
}

type eventLog struct {
	events []rules.Event
}

func (l *eventLog) of(t rules.EventType) []rules.Event {
	var out []rules.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestMatch(t *testing.T) (*Match, *host.Kinematic, *eventLog) {
	t.Helper()
	ball := host.NewKinematic(mgl64.Vec3{}, 0.45)
	m, err := NewMatch(Options{
		ID:     "match-1",
		Config: DefaultConfig(),
		Ball:   ball,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	log := &eventLog{}
	m.Bus().Subscribe(func(e rules.Event) { log.events = append(log.events, e) })
	return m, ball, log
}

func addPlayer(t *testing.T, m *Match, team player.Team, role player.Role) *player.Entity {
	t.Helper()
	p, err := m.AddPlayer(PlayerSpec{
		Team: team,
		Role: role,
		Body: host.NewKinematic(mgl64.Vec3{0, 1.5, 0}, 70),
	})
	require.NoError(t, err)
	return p
}

func run(m *Match, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		m.Tick(step)
	}
}

// giveBall places the ball at the player's feet and lets proximity capture it.
func giveBall(t *testing.T, m *Match, p *player.Entity) {
	t.Helper()
	pos := p.Position()
	m.PlaceBall(mgl64.Vec3{pos.X() + 0.5, 0.2, pos.Z()})
	m.Tick(step)
	holder, ok := m.Possessor()
	require.True(t, ok, "ball should be captured")
	require.Equal(t, p.ID(), holder)
}

func TestNewMatchRequiresBall(t *testing.T) {
	_, err := NewMatch(Options{Config: DefaultConfig()})
	require.ErrorIs(t, err, ErrNoBall)
}

func TestNewMatchGeneratesID(t *testing.T) {
	m, err := NewMatch(Options{Config: DefaultConfig(), Ball: host.NewKinematic(mgl64.Vec3{}, 1)})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID())
	assert.Equal(t, match.StatusWaiting, m.Status())
}

func TestStartPlacesBallAndPlayers(t *testing.T) {
	m, ball, log := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)

	m.Start()

	assert.Equal(t, match.StatusInPlay, m.Status())
	assert.True(t, ball.IsSpawned())
	assert.Equal(t, mgl64.Vec3{0, 0.2, 0}, ball.Position())
	assert.Equal(t, mgl64.Vec3{-7, 1.5, 0}, red.Position())
	assert.Equal(t, mgl64.Vec3{7, 1.5, 0}, blue.Position())

	changes := log.of(rules.EventMatchStatusChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, "waiting", changes[0].Metadata["from"])
	assert.Equal(t, "in-play", changes[0].Metadata["to"])
}

func TestTackleStunsOpponentAndDropsBall(t *testing.T) {
	m, _, log := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	blue.Body().SetPosition(mgl64.Vec3{10, 1.5, 0})
	red.Body().SetPosition(mgl64.Vec3{8, 1.5, 0})
	giveBall(t, m, blue)

	require.NoError(t, m.SetTackling(red.ID(), true))
	require.NoError(t, m.OnPlayerContact(red.ID(), blue.ID()))

	assert.True(t, blue.IsStunned())
	_, held := m.Possessor()
	assert.False(t, held, "stunned possessor must drop the ball")

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].Tackles)
	assert.Equal(t, 0, stats[1].Tackles)

	tackles := log.of(rules.EventTackle)
	require.Len(t, tackles, 1)
	assert.Equal(t, red.ID(), tackles[0].PlayerID)
	assert.Equal(t, blue.ID(), tackles[0].FromPlayerID)

	stuns := log.of(rules.EventPlayerStunned)
	require.Len(t, stuns, 1)
	assert.Equal(t, blue.ID(), stuns[0].PlayerID)
	assert.Equal(t, red.ID(), stuns[0].FromPlayerID)

	changes := log.of(rules.EventPossessionChanged)
	require.NotEmpty(t, changes)
	drop := changes[len(changes)-1]
	assert.Equal(t, rules.ReasonStun, drop.Reason)
	assert.Equal(t, blue.ID(), drop.FromPlayerID)

	run(m, 2100*time.Millisecond)
	assert.False(t, blue.IsStunned(), "stun should expire")
}

func TestContactBetweenTacklersOnlyStunsOnce(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	require.NoError(t, m.SetTackling(red.ID(), true))
	require.NoError(t, m.SetTackling(blue.ID(), true))
	require.NoError(t, m.OnPlayerContact(red.ID(), blue.ID()))

	assert.True(t, blue.IsStunned())
	assert.False(t, red.IsStunned(), "a stunned player cannot tackle back")
	assert.False(t, blue.IsTackling())
}

func TestDodgeProtectsFromTackle(t *testing.T) {
	m, _, log := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	require.NoError(t, m.SetTackling(red.ID(), true))
	require.NoError(t, m.SetDodging(blue.ID(), true))
	require.NoError(t, m.OnPlayerContact(blue.ID(), red.ID()))

	assert.False(t, blue.IsStunned())
	assert.Empty(t, log.of(rules.EventTackle))
	assert.Equal(t, 0, m.Stats()[0].Tackles)
}

func TestTeammatesNeverTackle(t *testing.T) {
	m, _, _ := newTestMatch(t)
	a := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	b := addPlayer(t, m, player.TeamRed, player.RoleLeftBack)
	m.Start()

	require.NoError(t, m.SetTackling(a.ID(), true))
	require.NoError(t, m.OnPlayerContact(a.ID(), b.ID()))
	assert.False(t, b.IsStunned())
}

func TestSetTacklingWhileStunned(t *testing.T) {
	m, _, _ := newTestMatch(t)
	p := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	landed, err := m.StunPlayer(p.ID())
	require.NoError(t, err)
	require.True(t, landed)

	err = m.SetTackling(p.ID(), true)
	require.ErrorIs(t, err, player.ErrStunned)
	assert.False(t, p.IsTackling())
}

func TestUnknownPlayerErrors(t *testing.T) {
	m, _, _ := newTestMatch(t)
	p := addPlayer(t, m, player.TeamRed, player.RoleStriker)

	_, err := m.HomePosition("nobody")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = m.OnBallPlayerContact("nobody")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.ErrorIs(t, m.OnPlayerContact(p.ID(), "nobody"), ErrUnknownPlayer)
	assert.ErrorIs(t, m.RemovePlayer("nobody"), ErrUnknownPlayer)
	_, err = m.StunPlayer("nobody")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestHomePosition(t *testing.T) {
	m, _, _ := newTestMatch(t)
	gk := addPlayer(t, m, player.TeamBlue, player.RoleGoalkeeper)

	pos, err := m.HomePosition(gk.ID())
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{51, 1.5, 0}, pos)
}

func TestAddPlayerRejectsInvalidTeam(t *testing.T) {
	m, _, _ := newTestMatch(t)
	_, err := m.AddPlayer(PlayerSpec{Team: "green", Body: host.NewKinematic(mgl64.Vec3{}, 1)})
	require.ErrorIs(t, err, player.ErrInvalidTeam)
	assert.Empty(t, m.Stats())
}

func TestHumanParticipantBecomesActivePlayer(t *testing.T) {
	m, _, _ := newTestMatch(t)
	camera := &fakeCamera{}
	body := host.NewKinematic(mgl64.Vec3{0, 1.5, 0}, 70)

	p, err := m.AddPlayer(PlayerSpec{
		Team:        player.TeamRed,
		Role:        player.RoleStriker,
		Participant: player.NewHumanParticipant("alice", camera),
		Body:        body,
	})
	require.NoError(t, err)

	active, ok := m.ActivePlayer()
	require.True(t, ok)
	assert.Equal(t, p.ID(), active)
	assert.Same(t, body, camera.attached)
}

func TestCameraFailureStillJoins(t *testing.T) {
	m, _, _ := newTestMatch(t)
	camera := &fakeCamera{err: errors.New("no connection")}

	p, err := m.AddPlayer(PlayerSpec{
		Team:        player.TeamBlue,
		Role:        player.RoleGoalkeeper,
		Participant: player.NewHumanParticipant("bob", camera),
		Body:        host.NewKinematic(mgl64.Vec3{0, 1.5, 0}, 70),
	})
	require.NoError(t, err)
	assert.True(t, p.IsSpawned())
	assert.Len(t, m.Stats(), 1)
}

func TestGoalIsAnnouncedAndScored(t *testing.T) {
	m, ball, log := newTestMatch(t)
	addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()

	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})
	run(m, 200*time.Millisecond)

	goals := log.of(rules.EventGoal)
	require.Len(t, goals, 1)
	assert.Equal(t, "blue", goals[0].Team)
	assert.Equal(t, 1, m.Score(player.TeamBlue))
	assert.Equal(t, 0, m.Score(player.TeamRed))

	run(m, 3*time.Second)
	respawns := log.of(rules.EventBallRespawned)
	require.NotEmpty(t, respawns)
	assert.Equal(t, "goal", respawns[len(respawns)-1].Reason)
	assert.Equal(t, mgl64.Vec3{0, 0.2, 0}, ball.Position())

	summary := m.Summary()
	assert.Equal(t, 1, summary.Blue.Goals)
	require.Len(t, summary.Goals, 1)
	assert.Equal(t, "blue", summary.Goals[0].Team)
}

func TestSummaryDoesNotFollowLaterPlay(t *testing.T) {
	m, _, _ := newTestMatch(t)
	addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()

	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})
	run(m, 200*time.Millisecond)
	first := m.Summary()

	m.PlaceBall(mgl64.Vec3{-53, 0.2, 1})
	run(m, 200*time.Millisecond)

	assert.Equal(t, 1, first.Blue.Goals)
	assert.Len(t, first.Goals, 1)
	assert.Equal(t, 2, m.Summary().Blue.Goals)
	assert.Equal(t, 2, m.Score(player.TeamBlue))
}

func TestGoalsAreNotCreditedAutomatically(t *testing.T) {
	m, _, _ := newTestMatch(t)
	striker := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})
	run(m, 200*time.Millisecond)
	assert.Equal(t, 0, m.Stats()[0].Goals)

	require.NoError(t, m.CreditGoal(striker.ID()))
	require.NoError(t, m.CreditSave(striker.ID()))
	assert.Equal(t, 1, m.Stats()[0].Goals)
	assert.Equal(t, 1, m.Stats()[0].Saves)
}

func TestSidelineRestart(t *testing.T) {
	m, ball, log := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()

	red.Body().SetPosition(mgl64.Vec3{0, 1.5, 33})
	giveBall(t, m, red)
	require.NoError(t, m.Kick(red.ID(), mgl64.Vec3{0, 0, 1}, KickPass))

	ball.SetPosition(mgl64.Vec3{0, 0.2, 40})
	run(m, 1600*time.Millisecond)

	outs := log.of(rules.EventBallOutSideline)
	require.Len(t, outs, 1)
	assert.Equal(t, string(field.SideSouth), outs[0].Side)
	assert.Equal(t, red.ID(), outs[0].LastPlayerID)
	assert.Equal(t, 34.0, outs[0].Position.Z())
	assert.False(t, ball.IsSpawned())
	assert.Equal(t, 1, m.Summary().Restarts.Sideline)

	m.PlaceBall(outs[0].Position)
	assert.True(t, ball.IsSpawned())
}

func TestKickRequiresPossession(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	giveBall(t, m, red)

	err := m.Kick(blue.ID(), mgl64.Vec3{1, 0, 0}, KickShot)
	require.ErrorIs(t, err, ErrNotInPossession)

	require.NoError(t, m.Kick(red.ID(), mgl64.Vec3{5, 0.5, 0}, KickShot))
	_, held := m.Possessor()
	assert.False(t, held)
	assert.Equal(t, 1, m.Stats()[0].Shots)
}

func TestBallContactThroughMatch(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	outcome, err := m.OnBallPlayerContact(red.ID())
	require.NoError(t, err)
	assert.Equal(t, collision.BallAttach, outcome)

	require.NoError(t, m.SetTackling(blue.ID(), true))
	outcome, err = m.OnBallPlayerContact(blue.ID())
	require.NoError(t, err)
	assert.Equal(t, collision.BallSteal, outcome)

	summary := m.Summary()
	assert.Equal(t, 1, summary.Blue.Steals)
}

func TestRemovePlayerHoldingBall(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()
	giveBall(t, m, red)

	require.NoError(t, m.RemovePlayer(red.ID()))

	_, held := m.Possessor()
	assert.False(t, held)
	assert.False(t, red.IsSpawned())
	assert.Empty(t, m.Stats())
}

func TestDistanceTraveledThroughTick(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()

	m.Tick(step)
	start := red.Position()
	red.Body().SetPosition(start.Add(mgl64.Vec3{3, 0, 4}))
	m.Tick(step)

	assert.Equal(t, 5.0, m.Stats()[0].DistanceTraveled)
}

func TestPenaltyShotTaken(t *testing.T) {
	m, ball, log := newTestMatch(t)
	m.Start()
	m.SetStatus(match.StatusPenaltyShootout)

	spot := mgl64.Vec3{41, 0.2, 0}
	m.PlaceBall(spot)
	m.Tick(step)
	assert.Empty(t, log.of(rules.EventPenaltyShotTaken))

	ball.SetPosition(spot.Add(mgl64.Vec3{0.5, 0, 0}))
	m.Tick(step)
	m.Tick(step)
	assert.Len(t, log.of(rules.EventPenaltyShotTaken), 1)
}

func TestSetStatusIgnoresNoChange(t *testing.T) {
	m, _, log := newTestMatch(t)
	m.SetStatus(match.StatusWaiting)
	assert.Empty(t, log.of(rules.EventMatchStatusChanged))

	m.SetStatus(match.StatusFinished)
	assert.Len(t, log.of(rules.EventMatchStatusChanged), 1)
	assert.False(t, m.Summary().EndedAt.IsZero())
}

func TestResetClearsPlayersAndStats(t *testing.T) {
	m, ball, log := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	require.NoError(t, m.SetTackling(red.ID(), true))
	require.NoError(t, m.OnPlayerContact(red.ID(), blue.ID()))
	require.NoError(t, m.SpeedBoost(red.ID(), 0.5))
	m.FreezePlayers(true)
	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})
	run(m, 200*time.Millisecond)
	require.Equal(t, 1, m.Score(player.TeamBlue))

	m.Reset()

	assert.Equal(t, match.StatusWaiting, m.Status())
	assert.False(t, blue.IsStunned())
	assert.False(t, red.IsTackling())
	assert.False(t, red.IsFrozen())
	assert.Equal(t, 0.0, red.SpeedAmplifier())
	assert.Equal(t, 0, m.Score(player.TeamBlue))
	assert.Equal(t, 0, m.Stats()[0].Tackles)
	assert.Equal(t, mgl64.Vec3{0, 0.2, 0}, ball.Position())
	assert.Equal(t, mgl64.Vec3{-7, 1.5, 0}, red.Position())
	assert.Len(t, log.of(rules.EventStatsReset), 1)

	goalsBefore := len(log.of(rules.EventGoal))
	run(m, 4*time.Second)
	assert.Len(t, log.of(rules.EventGoal), goalsBefore, "cancelled goal tasks must not fire")
}

func TestMovePlayerSuppressedWhileFrozen(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	m.Start()

	moved, err := m.MovePlayer(red.ID(), mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)
	assert.True(t, moved)

	m.FreezePlayers(true)
	moved, err = m.MovePlayer(red.ID(), mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, mgl64.Vec3{}, red.Body().LinearVelocity())
}

func TestConcurrentHostCallbacks(t *testing.T) {
	m, _, _ := newTestMatch(t)
	red := addPlayer(t, m, player.TeamRed, player.RoleStriker)
	blue := addPlayer(t, m, player.TeamBlue, player.RoleStriker)
	m.Start()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.Tick(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = m.SetTackling(red.ID(), i%2 == 0)
			_ = m.OnPlayerContact(red.ID(), blue.ID())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = m.OnBallPlayerContact(blue.ID())
			_ = m.Summary()
		}
	}()
	wg.Wait()

	assert.Equal(t, 200*time.Millisecond, m.SimTime())
}
