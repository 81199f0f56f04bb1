package watchers

import (
	"time"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

// Registry keys of the match watchers.
const (
	ScoreKey      = "ScoreWatcher"
	PossessionKey = "PossessionWatcher"
	RestartKey    = "RestartWatcher"
	TackleKey     = "TackleWatcher"
)

// GoalRecord is one confirmed goal as seen on the bus.
type GoalRecord struct {
	Team         string        `json:"team" msgpack:"team"`
	LastPlayerID string        `json:"lastPlayerId,omitempty" msgpack:"lastPlayerId,omitempty"`
	SimTime      time.Duration `json:"simTime" msgpack:"simTime"`
}

// ScoreWatcher tracks goals per scoring team.
type ScoreWatcher struct {
	*rules.BaseWatcher
	goals map[string]int // team -> goals
	log   []GoalRecord
}

// NewScoreWatcher creates a new score watcher.
func NewScoreWatcher() *ScoreWatcher {
	return &ScoreWatcher{
		BaseWatcher: rules.NewBaseWatcher(ScoreKey),
		goals:       make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *ScoreWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventGoal || event.Team == "" {
		return
	}
	w.goals[event.Team]++
	w.log = append(w.log, GoalRecord{
		Team:         event.Team,
		LastPlayerID: event.LastPlayerID,
		SimTime:      event.SimTime,
	})
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *ScoreWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.goals = make(map[string]int)
	w.log = nil
}

// Goals returns the number of goals scored by a team.
func (w *ScoreWatcher) Goals(team string) int {
	return w.goals[team]
}

// Log returns the goals in the order they were confirmed.
func (w *ScoreWatcher) Log() []GoalRecord {
	return append([]GoalRecord(nil), w.log...)
}

// Copy creates a copy of this watcher.
func (w *ScoreWatcher) Copy() rules.Watcher {
	c := NewScoreWatcher()
	c.SetCondition(w.ConditionMet())
	for k, v := range w.goals {
		c.goals[k] = v
	}
	c.log = append([]GoalRecord(nil), w.log...)
	return c
}

// PossessionWatcher tracks how long each team held the ball in simulation
// time along with steals and handoffs.
type PossessionWatcher struct {
	*rules.BaseWatcher
	held     map[string]time.Duration // team -> time in possession
	steals   map[string]int           // team that won the ball -> count
	handoffs map[string]int           // team -> count
	changes  int
	current  string
	since    time.Duration
}

// NewPossessionWatcher creates a new possession watcher.
func NewPossessionWatcher() *PossessionWatcher {
	w := &PossessionWatcher{
		BaseWatcher: rules.NewBaseWatcher(PossessionKey),
	}
	w.clear()
	return w
}

func (w *PossessionWatcher) clear() {
	w.held = make(map[string]time.Duration)
	w.steals = make(map[string]int)
	w.handoffs = make(map[string]int)
	w.changes = 0
	w.current = ""
	w.since = 0
}

// Watch implements the Watcher interface.
func (w *PossessionWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventPossessionChanged {
		return
	}
	w.closeSpell(event.SimTime)
	w.current = event.Team
	w.since = event.SimTime
	w.changes++

	switch event.Reason {
	case rules.ReasonSteal:
		// a steal knocks the ball loose, so the winner is the tackler
		team := event.Metadata["tackler_team"]
		if team == "" {
			team = event.Team
		}
		if team != "" {
			w.steals[team]++
		}
	case rules.ReasonHandoff:
		if event.Team != "" {
			w.handoffs[event.Team]++
		}
	}
	w.SetCondition(true)
}

func (w *PossessionWatcher) closeSpell(now time.Duration) {
	if w.current != "" && now > w.since {
		w.held[w.current] += now - w.since
	}
}

// Reset clears the watcher's state.
func (w *PossessionWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.clear()
}

// Held returns the time a team has held the ball up to now, including the
// spell in progress.
func (w *PossessionWatcher) Held(team string, now time.Duration) time.Duration {
	total := w.held[team]
	if team == w.current && now > w.since {
		total += now - w.since
	}
	return total
}

// Share returns the fraction of possessed time that belongs to team.
// It returns 0 when nobody has held the ball yet.
func (w *PossessionWatcher) Share(team string, now time.Duration) float64 {
	var all time.Duration
	for t := range w.held {
		if t != w.current {
			all += w.held[t]
		}
	}
	if w.current != "" {
		all += w.Held(w.current, now)
	}
	if all == 0 {
		return 0
	}
	return float64(w.Held(team, now)) / float64(all)
}

// Steals returns the number of times team won the ball by tackling.
func (w *PossessionWatcher) Steals(team string) int {
	return w.steals[team]
}

// Handoffs returns the number of teammate handoffs received by team.
func (w *PossessionWatcher) Handoffs(team string) int {
	return w.handoffs[team]
}

// Changes returns the number of possession changes seen, including the ball
// going loose.
func (w *PossessionWatcher) Changes() int {
	return w.changes
}

// Copy creates a copy of this watcher.
func (w *PossessionWatcher) Copy() rules.Watcher {
	c := NewPossessionWatcher()
	c.SetCondition(w.ConditionMet())
	for k, v := range w.held {
		c.held[k] = v
	}
	for k, v := range w.steals {
		c.steals[k] = v
	}
	for k, v := range w.handoffs {
		c.handoffs[k] = v
	}
	c.changes = w.changes
	c.current = w.current
	c.since = w.since
	return c
}

// RestartWatcher counts restarts by kind and side.
type RestartWatcher struct {
	*rules.BaseWatcher
	restarts map[rules.EventType]map[string]int // kind -> side -> count
}

// NewRestartWatcher creates a new restart watcher.
func NewRestartWatcher() *RestartWatcher {
	return &RestartWatcher{
		BaseWatcher: rules.NewBaseWatcher(RestartKey),
		restarts:    make(map[rules.EventType]map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *RestartWatcher) Watch(event rules.Event) {
	if !event.Type.IsRestart() {
		return
	}
	bySide, ok := w.restarts[event.Type]
	if !ok {
		bySide = make(map[string]int)
		w.restarts[event.Type] = bySide
	}
	bySide[event.Side]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *RestartWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.restarts = make(map[rules.EventType]map[string]int)
}

// Count returns the restarts of kind on side. An empty side sums all sides.
func (w *RestartWatcher) Count(kind rules.EventType, side string) int {
	if side != "" {
		return w.restarts[kind][side]
	}
	total := 0
	for _, n := range w.restarts[kind] {
		total += n
	}
	return total
}

// Total returns the number of restarts of every kind.
func (w *RestartWatcher) Total() int {
	total := 0
	for kind := range w.restarts {
		total += w.Count(kind, "")
	}
	return total
}

// Copy creates a copy of this watcher.
func (w *RestartWatcher) Copy() rules.Watcher {
	c := NewRestartWatcher()
	c.SetCondition(w.ConditionMet())
	for kind, bySide := range w.restarts {
		m := make(map[string]int, len(bySide))
		for side, n := range bySide {
			m[side] = n
		}
		c.restarts[kind] = m
	}
	return c
}

// TackleWatcher tracks successful tackles made and stuns suffered per player.
type TackleWatcher struct {
	*rules.BaseWatcher
	tackles map[string]int // playerID -> tackles made
	stunned map[string]int // playerID -> times stunned
}

// NewTackleWatcher creates a new tackle watcher.
func NewTackleWatcher() *TackleWatcher {
	return &TackleWatcher{
		BaseWatcher: rules.NewBaseWatcher(TackleKey),
		tackles:     make(map[string]int),
		stunned:     make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *TackleWatcher) Watch(event rules.Event) {
	if event.PlayerID == "" {
		return
	}
	switch event.Type {
	case rules.EventTackle:
		w.tackles[event.PlayerID]++
	case rules.EventPlayerStunned:
		w.stunned[event.PlayerID]++
	default:
		return
	}
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *TackleWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.tackles = make(map[string]int)
	w.stunned = make(map[string]int)
}

// Tackles returns the number of tackles a player landed.
func (w *TackleWatcher) Tackles(playerID string) int {
	return w.tackles[playerID]
}

// Stunned returns the number of times a player was stunned.
func (w *TackleWatcher) Stunned(playerID string) int {
	return w.stunned[playerID]
}

// Copy creates a copy of this watcher.
func (w *TackleWatcher) Copy() rules.Watcher {
	c := NewTackleWatcher()
	c.SetCondition(w.ConditionMet())
	for k, v := range w.tackles {
		c.tackles[k] = v
	}
	for k, v := range w.stunned {
		c.stunned[k] = v
	}
	return c
}
