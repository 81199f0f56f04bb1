// Package feed streams match events to spectators over websocket. Every
// message is a binary msgpack Frame.
package feed

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cryptochris8/Hysports-Soccer/internal/config"
	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/rules"
)

// Source is a match the hub can stream.
type Source interface {
	ID() string
	Bus() *rules.EventBus
	Summary() game.Summary
}

type message struct {
	matchID string
	data    []byte
}

// Hub fans frames out to connected spectators. Run must be running for
// connections to be accepted.
type Hub struct {
	cfg    config.FeedConfig
	logger *zap.Logger

	upgrader websocket.Upgrader

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	closeOnce  sync.Once

	mu      sync.RWMutex
	sources map[string]Source

	connected atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates a hub. Zero values in cfg fall back to sane defaults.
func NewHub(cfg config.FeedConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, cfg.SendBuffer),
		done:       make(chan struct{}),
		sources:    make(map[string]Source),
	}
}

// Attach streams the source's events until the returned function is called.
func (h *Hub) Attach(src Source) (detach func()) {
	id := src.ID()
	h.mu.Lock()
	h.sources[id] = src
	h.mu.Unlock()

	bus := src.Bus()
	handle := bus.Subscribe(func(e rules.Event) {
		if e.MatchID == "" {
			e.MatchID = id
		}
		h.publish(id, FrameEvent, NewEventPayload(e))
	})

	return func() {
		bus.Unsubscribe(handle)
		h.mu.Lock()
		delete(h.sources, id)
		h.mu.Unlock()
	}
}

// PublishSummary sends the current summary of a source to its spectators.
func (h *Hub) PublishSummary(src Source) {
	h.publish(src.ID(), FrameSummary, src.Summary())
}

// publish never blocks. It runs on the match goroutine with the match lock
// held, so a full queue drops the frame.
func (h *Hub) publish(matchID, kind string, data any) {
	b, err := Encode(kind, data)
	if err != nil {
		h.logger.Error("failed to encode frame", zap.String("kind", kind), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{matchID: matchID, data: b}:
	default:
		h.dropped.Add(1)
		h.logger.Debug("feed queue full, frame dropped", zap.String("match_id", matchID), zap.String("kind", kind))
	}
}

// Clients returns the number of registered spectators.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

// Dropped returns how many frames were discarded because the queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Run dispatches frames until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.connected.Add(1)
			h.logger.Info("spectator connected",
				zap.String("remote_addr", c.remoteAddr),
				zap.String("match_id", c.matchID),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Info("spectator disconnected", zap.String("remote_addr", c.remoteAddr))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.matchID != "" && c.matchID != msg.matchID {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("spectator too slow, disconnecting", zap.String("remote_addr", c.remoteAddr))
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.connected.Add(-1)
}

// snapshot returns summary frames for the matches a new spectator follows.
func (h *Hub) snapshot(matchID string) [][]byte {
	h.mu.RLock()
	var srcs []Source
	if matchID != "" {
		if src, ok := h.sources[matchID]; ok {
			srcs = append(srcs, src)
		}
	} else {
		for _, src := range h.sources {
			srcs = append(srcs, src)
		}
	}
	h.mu.RUnlock()

	sort.Slice(srcs, func(i, j int) bool { return srcs[i].ID() < srcs[j].ID() })
	frames := make([][]byte, 0, len(srcs))
	for _, src := range srcs {
		b, err := Encode(FrameSummary, src.Summary())
		if err != nil {
			h.logger.Error("failed to encode summary", zap.String("match_id", src.ID()), zap.Error(err))
			continue
		}
		frames = append(frames, b)
	}
	return frames
}

// ServeHTTP upgrades the request. The optional "match" query parameter
// limits the stream to one match.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn, r.RemoteAddr, r.URL.Query().Get("match"))
	for _, frame := range h.snapshot(c.matchID) {
		select {
		case c.send <- frame:
		default:
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
