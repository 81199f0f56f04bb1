package rules

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EventType indicates the category of a match event.
type EventType string

const (
	// Scoring and restarts
	EventGoal                 EventType = "goal"
	EventBallOutSideline      EventType = "ball-out-sideline"
	EventBallOutGoalLine      EventType = "ball-out-goal-line"
	EventBallResetOutOfBounds EventType = "ball-reset-out-of-bounds"
	EventPenaltyShotTaken     EventType = "penalty-shot-taken"
	EventBallRespawned        EventType = "ball-respawned"
	EventMatchStatusChanged   EventType = "match-status-changed"
	EventStatsReset           EventType = "stats-reset"

	// Possession
	EventPossessionChanged EventType = "possession-changed"

	// Player state
	EventPlayerStunned EventType = "player-stunned"
	EventTackle        EventType = "tackle"
)

// IsRestart reports whether the event hands the ball back to orchestration
// for a restart (throw-in, corner, goal kick).
func (et EventType) IsRestart() bool {
	switch et {
	case EventBallOutSideline, EventBallOutGoalLine, EventBallResetOutOfBounds:
		return true
	default:
		return false
	}
}

// Possession change reasons carried in Event.Reason.
const (
	ReasonProximity = "proximity"
	ReasonContact   = "contact"
	ReasonHandoff   = "handoff"
	ReasonSteal     = "steal"
	ReasonStun      = "stun"
	ReasonRespawn   = "respawn"
	ReasonOut       = "out-of-bounds"
	ReasonReset     = "reset"
	ReasonKick      = "kick"
)

// Event is a state change published by the match core.
type Event struct {
	Type         EventType
	MatchID      string
	Team         string     // scoring team for goals, team of PlayerID otherwise
	PlayerID     string     // subject: new possessor, stunned player, tackler
	FromPlayerID string     // previous possessor or attacker
	LastPlayerID string     // last possessor for restarts
	Side         string     // boundary side for restarts
	Boundary     string     // sideline or goal-line
	Reason       string     // possession change reason
	Position     mgl64.Vec3 // where it happened
	SimTime      time.Duration
	Timestamp    time.Time
	Metadata     map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType
	typed     bool
	callback  Listener
}

// EventBus is a synchronous publish/subscribe hub. Listeners run on the
// publishing goroutine in subscription order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{callback: listener})
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	return bus.add(subscription{eventType: eventType, typed: true, callback: callback})
}

func (bus *EventBus) add(sub subscription) int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	sub.handle = bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, sub)
	return sub.handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all matching listeners synchronously.
// Listeners may subscribe, unsubscribe or publish from inside the callback.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.typed && sub.eventType != event.Type {
			continue
		}
		sub.callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, matchID, playerID string) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}
