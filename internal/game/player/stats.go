package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/geom"
)

// Stats is a snapshot of a player's cumulative match statistics.
type Stats struct {
	PlayerID         string  `json:"playerId" msgpack:"playerId"`
	Name             string  `json:"name" msgpack:"name"`
	Team             Team    `json:"team" msgpack:"team"`
	Role             Role    `json:"role" msgpack:"role"`
	Goals            int     `json:"goals" msgpack:"goals"`
	Tackles          int     `json:"tackles" msgpack:"tackles"`
	Passes           int     `json:"passes" msgpack:"passes"`
	Shots            int     `json:"shots" msgpack:"shots"`
	Saves            int     `json:"saves" msgpack:"saves"`
	DistanceTraveled float64 `json:"distanceTraveled" msgpack:"distanceTraveled"`
}

func (e *Entity) AddGoal()   { e.goals++ }
func (e *Entity) AddTackle() { e.tackles++ }
func (e *Entity) AddPass()   { e.passes++ }
func (e *Entity) AddShot()   { e.shots++ }
func (e *Entity) AddSave()   { e.saves++ }

// Goals returns the goals credited to the player.
func (e *Entity) Goals() int {
	return e.goals
}

// UpdateDistanceTraveled samples the current position and adds the planar
// distance from the previous sample. The first sample after construction or
// ResetStats only records the position.
func (e *Entity) UpdateDistanceTraveled() {
	pos := e.body.Position()
	if e.lastSample != nil {
		e.distance += geom.PlanarDistance(pos, *e.lastSample)
	}
	e.lastSample = &mgl64.Vec3{pos.X(), pos.Y(), pos.Z()}
}

// DistanceTraveled returns the unrounded accumulated distance.
func (e *Entity) DistanceTraveled() float64 {
	return e.distance
}

// Stats returns the statistics snapshot with distance rounded to one decimal.
func (e *Entity) Stats() Stats {
	return Stats{
		PlayerID:         e.id,
		Name:             e.Name(),
		Team:             e.team,
		Role:             e.role,
		Goals:            e.goals,
		Tackles:          e.tackles,
		Passes:           e.passes,
		Shots:            e.shots,
		Saves:            e.saves,
		DistanceTraveled: math.Round(e.distance*10) / 10,
	}
}

// ResetStats zeroes every counter. Respawns and kickoffs keep statistics;
// only an explicit match reset calls this.
func (e *Entity) ResetStats() {
	e.goals = 0
	e.tackles = 0
	e.passes = 0
	e.shots = 0
	e.saves = 0
	e.distance = 0
	e.lastSample = nil
}
