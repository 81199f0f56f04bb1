package match

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/sched"
)

func newPlayer(t *testing.T, team player.Team) *player.Entity {
	t.Helper()
	e, err := player.New(player.Options{
		Team:      team,
		Role:      player.RoleStriker,
		Body:      host.NewKinematic(mgl64.Vec3{}, 1),
		Scheduler: sched.New(),
		Tuning:    player.DefaultTuning(),
		Formation: player.DefaultFormation(),
	})
	require.NoError(t, err)
	return e
}

func TestPossessionKeepsLastPossessor(t *testing.T) {
	s := NewState("m1", host.NewKinematic(mgl64.Vec3{}, 1))
	a := newPlayer(t, player.TeamRed)
	b := newPlayer(t, player.TeamBlue)

	assert.Nil(t, s.SetPossessor(a))
	assert.True(t, s.HasPossession(a))
	assert.Equal(t, a, s.SetPossessor(b))
	assert.False(t, s.HasPossession(a))

	assert.Equal(t, b, s.SetPossessor(nil))
	assert.Nil(t, s.Possessor())
	assert.Equal(t, b, s.LastPossessor(), "last possessor survives the ball going loose")
	assert.False(t, s.HasPossession(nil))
}

func TestForget(t *testing.T) {
	s := NewState("m1", host.NewKinematic(mgl64.Vec3{}, 1))
	a := newPlayer(t, player.TeamRed)
	s.SetPossessor(a)
	s.SetActivePlayer(a)

	s.Forget(a)
	assert.Nil(t, s.Possessor())
	assert.Nil(t, s.LastPossessor())
	assert.Nil(t, s.ActivePlayer())
}

func TestStatusAndBallMoved(t *testing.T) {
	s := NewState("m1", host.NewKinematic(mgl64.Vec3{}, 1))
	assert.Equal(t, StatusWaiting, s.Status())
	s.SetStatus(StatusPenaltyShootout)
	assert.Equal(t, StatusPenaltyShootout, s.Status())

	assert.False(t, s.BallHasMoved())
	s.SetBallHasMoved()
	assert.True(t, s.BallHasMoved())
	s.ResetBallMoved()
	assert.False(t, s.BallHasMoved())
	assert.Equal(t, "m1", s.ID())
}
