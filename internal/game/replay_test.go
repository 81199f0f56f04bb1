package game

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

func replayOf(n int) *Replay {
	replay := NewReplay("match-1")
	for i := 0; i < n; i++ {
		e := rules.NewEvent(rules.EventTackle, "match-1", "p")
		e.SimTime = time.Duration(i) * time.Second
		replay.Record(e)
	}
	return replay
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("match-1")
	assert.Equal(t, "match-1", replay.MatchID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
}

func TestReplayNavigation(t *testing.T) {
	replay := replayOf(5)

	e, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), e.SimTime)
	e, _ = replay.Next()
	assert.Equal(t, time.Second, e.SimTime)

	e, ok = replay.Previous()
	require.True(t, ok)
	assert.Equal(t, time.Second, e.SimTime)
	assert.Equal(t, 1, replay.CurrentIndex)

	e, ok = replay.Skip(10)
	require.True(t, ok)
	assert.Equal(t, 4*time.Second, e.SimTime)
	assert.Equal(t, 4, replay.CurrentIndex)

	_, ok = replay.Skip(-10)
	require.True(t, ok)
	assert.Equal(t, 0, replay.CurrentIndex)

	replay.Skip(4)
	replay.Next()
	_, ok = replay.Next()
	assert.False(t, ok, "past the end")

	replay.Start()
	_, ok = replay.Previous()
	assert.False(t, ok, "before the start")
}

func TestReplaySkipEmpty(t *testing.T) {
	_, ok := NewReplay("empty").Skip(1)
	assert.False(t, ok)
}

func TestReplaySeek(t *testing.T) {
	replay := replayOf(5)

	assert.Equal(t, 2, replay.Seek(1500*time.Millisecond))
	e, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, e.SimTime)

	assert.Equal(t, 5, replay.Seek(time.Minute))
	_, ok = replay.Next()
	assert.False(t, ok)
}

func TestReplayEventAt(t *testing.T) {
	replay := replayOf(2)
	_, ok := replay.EventAt(1)
	assert.True(t, ok)
	_, ok = replay.EventAt(2)
	assert.False(t, ok)
	_, ok = replay.EventAt(-1)
	assert.False(t, ok)
}

func TestReplayFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	replay := NewReplay("match-1")
	e := rules.NewEvent(rules.EventGoal, "match-1", "")
	e.Team = "blue"
	e.LastPlayerID = "blue-striker"
	e.Side = "red"
	e.Position = mgl64.Vec3{-53, 0.2, 1.5}
	e.SimTime = 42 * time.Second
	e.Metadata["note"] = "far post"
	replay.Record(e)
	replay.Record(rules.NewEvent(rules.EventTackle, "match-1", "red-striker"))

	require.NoError(t, replay.SaveToFile(dir))
	loaded, err := LoadReplayFromFile(dir, "match-1")
	require.NoError(t, err)

	assert.Equal(t, "match-1", loaded.MatchID)
	require.Equal(t, 2, loaded.Size())
	got, _ := loaded.EventAt(0)
	assert.Equal(t, rules.EventGoal, got.Type)
	assert.Equal(t, "blue", got.Team)
	assert.Equal(t, "blue-striker", got.LastPlayerID)
	assert.Equal(t, "red", got.Side)
	assert.Equal(t, e.Position, got.Position)
	assert.Equal(t, e.SimTime, got.SimTime)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, "far post", got.Metadata["note"])

	got, _ = loaded.EventAt(1)
	assert.Equal(t, "red-striker", got.PlayerID)
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestReplayRecorderCapturesMatchEvents(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	m, _, _ := newTestMatch(t)
	addPlayer(t, m, player.TeamRed, player.RoleStriker)

	rr.StartRecording(m)
	assert.True(t, rr.IsRecording(m.ID()))

	m.Start()
	m.PlaceBall(mgl64.Vec3{-53, 0.2, 0})
	run(m, 200*time.Millisecond)

	replay, ok := rr.GetReplay(m.ID())
	require.True(t, ok)
	var goals int
	for _, e := range replay.Events {
		if e.Type == rules.EventGoal {
			goals++
		}
	}
	assert.Equal(t, 1, goals)

	rr.StopRecording(m.ID())
	assert.False(t, rr.IsRecording(m.ID()))
	size := replay.Size()
	m.Bus().Publish(rules.NewEvent(rules.EventTackle, m.ID(), "x"))
	assert.Equal(t, size, replay.Size(), "stopped recordings ignore new events")

	require.NoError(t, rr.SaveReplay(m.ID()))
	_, ok = rr.GetReplay(m.ID())
	assert.False(t, ok)

	loaded, err := rr.LoadReplay(m.ID())
	require.NoError(t, err)
	assert.Equal(t, size, loaded.Size())
}

func TestReplayRecorderSaveUnknown(t *testing.T) {
	rr := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	assert.Error(t, rr.SaveReplay("nope"))
}

func TestReplayRecorderRestartDiscardsOldLog(t *testing.T) {
	rr := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	m, _, _ := newTestMatch(t)

	rr.StartRecording(m)
	m.Bus().Publish(rules.NewEvent(rules.EventTackle, m.ID(), "a"))
	rr.StartRecording(m)
	m.Bus().Publish(rules.NewEvent(rules.EventTackle, m.ID(), "b"))

	replay, ok := rr.GetReplay(m.ID())
	require.True(t, ok)
	require.Equal(t, 1, replay.Size())
	assert.Equal(t, "b", replay.Events[0].PlayerID)

	rr.ClearReplay(m.ID())
	assert.False(t, rr.IsRecording(m.ID()))
	_, ok = rr.GetReplay(m.ID())
	assert.False(t, ok)
}
