// Package field answers where the ball is relative to the pitch: in play,
// inside a goal, or out over a sideline or goal line. Classification is a
// pure function of position.
package field

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
)

// Pitch describes the playable rectangle and the two goal mouths. Red defends
// the goal behind MinX, blue the goal behind MaxX.
type Pitch struct {
	MinX    float64 `mapstructure:"min_x"`
	MaxX    float64 `mapstructure:"max_x"`
	MinZ    float64 `mapstructure:"min_z"`
	MaxZ    float64 `mapstructure:"max_z"`
	MinY    float64 `mapstructure:"min_y"`
	MaxY    float64 `mapstructure:"max_y"` // 0 disables the ceiling
	CenterZ float64 `mapstructure:"center_z"`

	GoalHalfWidth float64 `mapstructure:"goal_half_width"`
	GoalHeight    float64 `mapstructure:"goal_height"`
	GoalDepth     float64 `mapstructure:"goal_depth"`
}

// DefaultPitch returns a regulation-sized pitch centred on the origin.
func DefaultPitch() Pitch {
	return Pitch{
		MinX:          -52,
		MaxX:          52,
		MinZ:          -34,
		MaxZ:          34,
		MinY:          0,
		CenterZ:       0,
		GoalHalfWidth: 3.66,
		GoalHeight:    2.44,
		GoalDepth:     2.5,
	}
}

// Kind is the coarse result of a classification.
type Kind int

const (
	InPlay Kind = iota
	InGoal
	OutOfBounds
)

func (k Kind) String() string {
	switch k {
	case InPlay:
		return "in-play"
	case InGoal:
		return "in-goal"
	case OutOfBounds:
		return "out-of-bounds"
	default:
		return "unknown"
	}
}

// Boundary is the line the ball crossed.
type Boundary string

const (
	BoundaryNone     Boundary = ""
	BoundarySideline Boundary = "sideline"
	BoundaryGoalLine Boundary = "goal-line"
	// BoundaryUnknown covers exits that are neither line, such as clearing the ceiling.
	BoundaryUnknown Boundary = "unknown"
)

// Side names which edge of the pitch was crossed. Goal lines are named after
// the team defending that end.
type Side string

const (
	SideNone  Side = ""
	SideNorth Side = "north" // z below MinZ
	SideSouth Side = "south" // z above MaxZ
	SideRed   Side = "red"
	SideBlue  Side = "blue"
)

// Classification describes a position relative to the pitch.
type Classification struct {
	Kind        Kind
	ScoringTeam player.Team // set for InGoal
	Boundary    Boundary    // set for OutOfBounds
	Side        Side        // set for OutOfBounds

	// Position is where the ball left the pitch, clamped onto the boundary.
	// Orchestration restarts play from here.
	Position mgl64.Vec3
}

// Oracle classifies ball positions.
type Oracle interface {
	Classify(pos mgl64.Vec3) Classification
}

// CenterX is the x coordinate of the halfway line.
func (p Pitch) CenterX() float64 {
	return (p.MinX + p.MaxX) / 2
}

// Contains reports whether pos lies on the pitch surface (x, z only).
func (p Pitch) Contains(pos mgl64.Vec3) bool {
	return pos.X() >= p.MinX && pos.X() <= p.MaxX && pos.Z() >= p.MinZ && pos.Z() <= p.MaxZ
}

// Classify implements Oracle. Goal mouths take precedence over the goal line,
// and the goal line over the sideline when a corner is cut.
func (p Pitch) Classify(pos mgl64.Vec3) Classification {
	if team, ok := p.goalAt(pos); ok {
		return Classification{Kind: InGoal, ScoringTeam: team, Position: pos}
	}

	out := Classification{Kind: OutOfBounds, Position: p.clamp(pos)}
	switch {
	case pos.X() < p.MinX:
		out.Boundary, out.Side = BoundaryGoalLine, SideRed
	case pos.X() > p.MaxX:
		out.Boundary, out.Side = BoundaryGoalLine, SideBlue
	case pos.Z() < p.MinZ:
		out.Boundary, out.Side = BoundarySideline, SideNorth
	case pos.Z() > p.MaxZ:
		out.Boundary, out.Side = BoundarySideline, SideSouth
	case p.MaxY > 0 && pos.Y() > p.MaxY:
		out.Boundary = BoundaryUnknown
	default:
		return Classification{Kind: InPlay, Position: pos}
	}
	return out
}

// goalAt reports the team credited if the ball is inside either goal.
func (p Pitch) goalAt(pos mgl64.Vec3) (player.Team, bool) {
	if math.Abs(pos.Z()-p.CenterZ) > p.GoalHalfWidth || pos.Y() > p.MinY+p.GoalHeight {
		return "", false
	}
	switch {
	case pos.X() < p.MinX && pos.X() >= p.MinX-p.GoalDepth:
		return player.TeamBlue, true
	case pos.X() > p.MaxX && pos.X() <= p.MaxX+p.GoalDepth:
		return player.TeamRed, true
	}
	return "", false
}

func (p Pitch) clamp(pos mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(pos.X(), p.MinX, p.MaxX),
		pos.Y(),
		mgl64.Clamp(pos.Z(), p.MinZ, p.MaxZ),
	}
}
