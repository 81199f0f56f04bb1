package player

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Formation is the kickoff template shared by both teams. Offsets are
// measured from a team's own goal line toward the opponent, so blue's
// positions are red's mirrored about the halfway line.
type Formation struct {
	RedGoalLineX  float64 `mapstructure:"red_goal_line_x"`
	BlueGoalLineX float64 `mapstructure:"blue_goal_line_x"`
	CenterZ       float64 `mapstructure:"center_z"`

	GoalkeeperOffsetX float64 `mapstructure:"goalkeeper_offset_x"`
	DefensiveOffsetX  float64 `mapstructure:"defensive_offset_x"`
	MidfieldOffsetX   float64 `mapstructure:"midfield_offset_x"`
	ForwardOffsetX    float64 `mapstructure:"forward_offset_x"`

	WideZMin     float64 `mapstructure:"wide_z_min"`
	WideZMax     float64 `mapstructure:"wide_z_max"`
	MidfieldZMin float64 `mapstructure:"midfield_z_min"`
	MidfieldZMax float64 `mapstructure:"midfield_z_max"`

	SpawnY float64 `mapstructure:"spawn_y"`
}

// DefaultFormation matches the default pitch.
func DefaultFormation() Formation {
	return Formation{
		RedGoalLineX:      -52,
		BlueGoalLineX:     52,
		CenterZ:           0,
		GoalkeeperOffsetX: 1,
		DefensiveOffsetX:  15,
		MidfieldOffsetX:   30,
		ForwardOffsetX:    45,
		WideZMin:          -28,
		WideZMax:          28,
		MidfieldZMin:      -18,
		MidfieldZMax:      18,
		SpawnY:            1.5,
	}
}

type slot struct {
	depth   func(Formation) float64 // offset from own goal line
	lateral func(Formation) float64 // target z boundary
	factor  float64                 // share of the way from centre to lateral
}

var slots = map[Role]slot{
	RoleGoalkeeper:         {depth: func(f Formation) float64 { return f.GoalkeeperOffsetX }},
	RoleLeftBack:           {depth: defensive, lateral: func(f Formation) float64 { return f.WideZMin }, factor: 0.6},
	RoleRightBack:          {depth: defensive, lateral: func(f Formation) float64 { return f.WideZMax }, factor: 0.6},
	RoleCentralMidfielder1: {depth: midfield, lateral: func(f Formation) float64 { return f.MidfieldZMin }, factor: 0.5},
	RoleCentralMidfielder2: {depth: midfield, lateral: func(f Formation) float64 { return f.MidfieldZMax }, factor: 0.5},
	RoleStriker:            {depth: func(f Formation) float64 { return f.ForwardOffsetX }},
}

func defensive(f Formation) float64 { return f.DefensiveOffsetX }
func midfield(f Formation) float64  { return f.MidfieldOffsetX }

// GoalLineX returns the x of the goal line team defends.
func (f Formation) GoalLineX(team Team) float64 {
	if team == TeamBlue {
		return f.BlueGoalLineX
	}
	return f.RedGoalLineX
}

// Position returns the home position for team and role. Unknown roles get a
// central midfield spot and ok is false.
func (f Formation) Position(team Team, role Role) (pos mgl64.Vec3, ok bool) {
	s, ok := slots[role]
	if !ok {
		s = slot{depth: midfield}
	}

	x := f.GoalLineX(team) + s.depth(f)*team.ForwardSign()
	z := f.CenterZ
	if s.lateral != nil {
		z += (s.lateral(f) - f.CenterZ) * s.factor
	}
	return mgl64.Vec3{x, f.SpawnY, z}, ok
}
