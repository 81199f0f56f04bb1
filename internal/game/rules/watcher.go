package rules

import (
	"sync"
)

// Watcher observes match events and accumulates derived state.
type Watcher interface {
	// Watch is called for every published event; implementations filter.
	Watch(event Event)

	// Reset clears accumulated state (explicit match reset only).
	Reset()

	// ConditionMet reports whether the watched condition has happened.
	ConditionMet() bool

	// GetKey returns a unique key for this watcher instance.
	GetKey() string

	// Copy returns an independent snapshot of the accumulated state.
	Copy() Watcher
}

// BaseWatcher provides the bookkeeping shared by all watchers.
type BaseWatcher struct {
	condition bool
	key       string
}

// NewBaseWatcher creates a base watcher registered under key.
func NewBaseWatcher(key string) *BaseWatcher {
	return &BaseWatcher{key: key}
}

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// WatcherRegistry manages the watchers attached to one match.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher adds a watcher to the registry, replacing one with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}
	key := watcher.GetKey()
	if key == "" {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	wr.watchers[key] = watcher
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// Snapshot returns a copy of every watcher keyed by watcher key. The copies
// do not see later events.
func (wr *WatcherRegistry) Snapshot() map[string]Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	out := make(map[string]Watcher, len(wr.watchers))
	for key, watcher := range wr.watchers {
		out[key] = watcher.Copy()
	}
	return out
}

// ResetWatchers resets all watchers.
func (wr *WatcherRegistry) ResetWatchers() {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Reset()
	}
}

// NotifyWatchers notifies all watchers of an event.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Watch(event)
	}
}

// Attach subscribes the registry to every event published on bus and
// returns the subscription handle.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(wr.NotifyWatchers)
}
