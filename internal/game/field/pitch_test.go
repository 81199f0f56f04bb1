package field

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

func TestClassify(t *testing.T) {
	p := DefaultPitch()

	tests := []struct {
		name     string
		pos      mgl64.Vec3
		kind     Kind
		team     player.Team
		boundary Boundary
		side     Side
		restart  mgl64.Vec3
	}{
		{name: "centre spot", pos: mgl64.Vec3{0, 0.2, 0}, kind: InPlay},
		{name: "on the touchline", pos: mgl64.Vec3{10, 0.2, 34}, kind: InPlay},
		{name: "inside red goal", pos: mgl64.Vec3{-53, 1, 0}, kind: InGoal, team: player.TeamBlue},
		{name: "inside blue goal", pos: mgl64.Vec3{53, 1, 2}, kind: InGoal, team: player.TeamRed},
		{name: "over the crossbar", pos: mgl64.Vec3{53, 3, 0}, kind: OutOfBounds, boundary: BoundaryGoalLine, side: SideBlue, restart: mgl64.Vec3{52, 3, 0}},
		{name: "wide of the post", pos: mgl64.Vec3{-53, 0.2, 10}, kind: OutOfBounds, boundary: BoundaryGoalLine, side: SideRed, restart: mgl64.Vec3{-52, 0.2, 10}},
		{name: "behind the net", pos: mgl64.Vec3{-60, 0.2, 0}, kind: OutOfBounds, boundary: BoundaryGoalLine, side: SideRed, restart: mgl64.Vec3{-52, 0.2, 0}},
		{name: "north sideline", pos: mgl64.Vec3{5, 0.2, -35}, kind: OutOfBounds, boundary: BoundarySideline, side: SideNorth, restart: mgl64.Vec3{5, 0.2, -34}},
		{name: "south sideline", pos: mgl64.Vec3{-5, 0.2, 36}, kind: OutOfBounds, boundary: BoundarySideline, side: SideSouth, restart: mgl64.Vec3{-5, 0.2, 34}},
		{name: "corner prefers goal line", pos: mgl64.Vec3{55, 0.2, 40}, kind: OutOfBounds, boundary: BoundaryGoalLine, side: SideBlue, restart: mgl64.Vec3{52, 0.2, 34}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := p.Classify(tt.pos)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.team, c.ScoringTeam)
			assert.Equal(t, tt.boundary, c.Boundary)
			assert.Equal(t, tt.side, c.Side)
			if tt.kind == OutOfBounds {
				assert.True(t, tt.restart.ApproxEqual(c.Position), "restart %v, got %v", tt.restart, c.Position)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	p := DefaultPitch()
	positions := []mgl64.Vec3{
		{0, 0, 0}, {-53, 1, 0}, {53, 1, 0}, {0, 0, 40}, {60, 0, 0}, {55, 0, 40},
	}
	for _, pos := range positions {
		first := p.Classify(pos)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, p.Classify(pos))
		}
	}
}

func TestCeilingIsUnknownBoundary(t *testing.T) {
	p := DefaultPitch()
	p.MaxY = 30

	c := p.Classify(mgl64.Vec3{0, 31, 0})
	assert.Equal(t, OutOfBounds, c.Kind)
	assert.Equal(t, BoundaryUnknown, c.Boundary)
	assert.Equal(t, SideNone, c.Side)

	p.MaxY = 0
	assert.Equal(t, InPlay, p.Classify(mgl64.Vec3{0, 31, 0}).Kind)
}

func TestPitchHelpers(t *testing.T) {
	p := DefaultPitch()
	assert.Equal(t, 0.0, p.CenterX())
	assert.True(t, p.Contains(mgl64.Vec3{52, 5, -34}))
	assert.False(t, p.Contains(mgl64.Vec3{52.1, 0, 0}))
	assert.Equal(t, "in-goal", InGoal.String())
}
