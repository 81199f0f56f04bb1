package feed

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

// Frame kinds.
const (
	FrameEvent   = "event"
	FrameSummary = "summary"
)

// Frame is the envelope of every binary message sent to spectators.
type Frame struct {
	Type string `msgpack:"t"`
	Data any    `msgpack:"d"`
}

// EventPayload is the wire form of a match event.
type EventPayload struct {
	Type         string            `msgpack:"type"`
	MatchID      string            `msgpack:"matchId"`
	Team         string            `msgpack:"team,omitempty"`
	PlayerID     string            `msgpack:"playerId,omitempty"`
	FromPlayerID string            `msgpack:"fromPlayerId,omitempty"`
	LastPlayerID string            `msgpack:"lastPlayerId,omitempty"`
	Side         string            `msgpack:"side,omitempty"`
	Boundary     string            `msgpack:"boundary,omitempty"`
	Reason       string            `msgpack:"reason,omitempty"`
	Position     [3]float64        `msgpack:"pos"`
	SimTimeMs    int64             `msgpack:"simTimeMs"`
	Metadata     map[string]string `msgpack:"meta,omitempty"`
}

// NewEventPayload converts a bus event.
func NewEventPayload(e rules.Event) EventPayload {
	p := EventPayload{
		Type:         string(e.Type),
		MatchID:      e.MatchID,
		Team:         e.Team,
		PlayerID:     e.PlayerID,
		FromPlayerID: e.FromPlayerID,
		LastPlayerID: e.LastPlayerID,
		Side:         e.Side,
		Boundary:     e.Boundary,
		Reason:       e.Reason,
		Position:     [3]float64{e.Position.X(), e.Position.Y(), e.Position.Z()},
		SimTimeMs:    e.SimTime.Milliseconds(),
	}
	if len(e.Metadata) > 0 {
		p.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			p.Metadata[k] = v
		}
	}
	return p
}

// Encode marshals a frame.
func Encode(kind string, data any) ([]byte, error) {
	return msgpack.Marshal(Frame{Type: kind, Data: data})
}

// rawFrame is used to decode the envelope before the payload type is known.
type rawFrame struct {
	Type string             `msgpack:"t"`
	Data msgpack.RawMessage `msgpack:"d"`
}

// Decode splits a frame into its kind and undecoded payload.
func Decode(b []byte) (string, msgpack.RawMessage, error) {
	var f rawFrame
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return "", nil, err
	}
	return f.Type, f.Data, nil
}
