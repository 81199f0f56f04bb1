package game

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

const replayVersion = 1

// Replay is the ordered event log of one match with a playback cursor.
type Replay struct {
	MatchID      string
	Events       []rules.Event
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		Events:  make([]rules.Event, 0),
	}
}

// Record appends an event.
func (r *Replay) Record(e rules.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Events = append(r.Events, e)
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the event under the cursor and advances it.
func (r *Replay) Next() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Events) {
		e := r.Events[r.CurrentIndex]
		r.CurrentIndex++
		return e, true
	}
	return rules.Event{}, false
}

// Previous steps the cursor back and returns that event.
func (r *Replay) Previous() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Events[r.CurrentIndex], true
	}
	return rules.Event{}, false
}

// Skip moves the cursor by count, clamped to the log.
func (r *Replay) Skip(count int) (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Events) == 0 {
		return rules.Event{}, false
	}
	idx := r.CurrentIndex + count
	if idx >= len(r.Events) {
		idx = len(r.Events) - 1
	}
	if idx < 0 {
		idx = 0
	}
	r.CurrentIndex = idx
	return r.Events[idx], true
}

// Seek moves the cursor to the first event at or after simTime.
func (r *Replay) Seek(simTime time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := len(r.Events)
	for i, e := range r.Events {
		if e.SimTime >= simTime {
			idx = i
			break
		}
	}
	r.CurrentIndex = idx
	return idx
}

// Size returns the number of recorded events.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Events)
}

// EventAt returns the event at index.
func (r *Replay) EventAt(index int) (rules.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Events) {
		return r.Events[index], true
	}
	return rules.Event{}, false
}

// SaveToFile writes the replay as a gzipped msgpack stream: a header
// followed by one value per event.
func (r *Replay) SaveToFile(directory string) (err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(replayPath(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	gz := gzip.NewWriter(file)
	enc := msgpack.NewEncoder(gz)

	meta := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  time.Now().UTC(),
		Version:    replayVersion,
		EventCount: len(r.Events),
	}
	if err := enc.Encode(&meta); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range r.Events {
		if err := enc.Encode(&r.Events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	dec := msgpack.NewDecoder(gz)

	var meta replayMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	replay := NewReplay(meta.MatchID)
	for i := 0; i < meta.EventCount; i++ {
		var e rules.Event
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		replay.Events = append(replay.Events, e)
	}
	return replay, nil
}

func replayPath(directory, matchID string) string {
	return filepath.Join(directory, matchID+".replay")
}

type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	EventCount int
}

type recording struct {
	replay *Replay
	bus    *rules.EventBus
	handle int
}

// ReplayRecorder records the event stream of matches.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	active  map[string]*recording // matchID -> live recording
	replays map[string]*Replay    // matchID -> recorded or stopped replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		active:  make(map[string]*recording),
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording subscribes to the match bus. Any earlier replay of the
// same match is discarded.
func (rr *ReplayRecorder) StartRecording(m *Match) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rec, ok := rr.active[m.ID()]; ok {
		rec.bus.Unsubscribe(rec.handle)
	}
	replay := NewReplay(m.ID())
	rec := &recording{replay: replay, bus: m.Bus()}
	// listeners run under the match lock; Record only takes the replay lock
	rec.handle = m.Bus().Subscribe(replay.Record)
	rr.active[m.ID()] = rec
	rr.replays[m.ID()] = replay

	rr.logger.Info("started replay recording", zap.String("match_id", m.ID()))
}

// StopRecording unsubscribes from the match bus and keeps the replay.
func (rr *ReplayRecorder) StopRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rec, ok := rr.active[matchID]
	if !ok {
		return
	}
	rec.bus.Unsubscribe(rec.handle)
	delete(rr.active, matchID)

	rr.logger.Info("stopped replay recording",
		zap.String("match_id", matchID),
		zap.Int("event_count", rec.replay.Size()),
	)
}

// GetReplay returns the replay of a match.
func (rr *ReplayRecorder) GetReplay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, ok := rr.replays[matchID]
	return replay, ok
}

// SaveReplay stops recording, writes the replay to disk and drops it from
// memory.
func (rr *ReplayRecorder) SaveReplay(matchID string) error {
	rr.StopRecording(matchID)

	rr.mu.Lock()
	replay, ok := rr.replays[matchID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for match %s", matchID)
	}
	delete(rr.replays, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("match_id", matchID),
		zap.Int("event_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay.
func (rr *ReplayRecorder) LoadReplay(matchID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, matchID)
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("match_id", matchID),
		zap.Int("event_count", replay.Size()),
	)
	return replay, nil
}

// ClearReplay stops recording and forgets the replay without saving.
func (rr *ReplayRecorder) ClearReplay(matchID string) {
	rr.StopRecording(matchID)

	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, matchID)
}

// IsRecording reports whether the match is being recorded.
func (rr *ReplayRecorder) IsRecording(matchID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	_, ok := rr.active[matchID]
	return ok
}
