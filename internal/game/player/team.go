package player

import (
	"fmt"
	"strings"
)

// Team is one of the two sides in a match.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Valid reports whether t is one of the two known teams.
func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// ForwardSign is +1 for the team attacking toward +X and -1 for the other.
func (t Team) ForwardSign() float64 {
	if t == TeamBlue {
		return -1
	}
	return 1
}

// ParseTeam accepts a team name in any case.
func ParseTeam(s string) (Team, error) {
	t := Team(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown team %q", s)
	}
	return t, nil
}

// Role is a player's fixed position in the formation.
type Role string

const (
	RoleGoalkeeper         Role = "goalkeeper"
	RoleLeftBack           Role = "left-back"
	RoleRightBack          Role = "right-back"
	RoleCentralMidfielder1 Role = "central-midfielder-1"
	RoleCentralMidfielder2 Role = "central-midfielder-2"
	RoleStriker            Role = "striker"
)

// Roles lists every role in kickoff order.
var Roles = []Role{
	RoleGoalkeeper,
	RoleLeftBack,
	RoleRightBack,
	RoleCentralMidfielder1,
	RoleCentralMidfielder2,
	RoleStriker,
}
