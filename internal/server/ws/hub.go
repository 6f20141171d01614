// Package ws pushes desk events from the signal bus to dashboard
// WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingEvery    = idleTimeout * 9 / 10
	readLimit    = 4 << 10
	queueSize    = 256
)

// deskChannels are the bus channels relayed to dashboards.
var deskChannels = []string{
	domain.ChannelWagers,
	domain.ChannelRounds,
	domain.ChannelLayoffs,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Config is echoed to each client in its desk_status greeting.
type Config struct {
	Mode      string
	StartedAt time.Time
}

// Hub relays desk events to connected dashboards.
type Hub struct {
	bus    domain.SignalBus
	logger *slog.Logger
	cfg    Config

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub reading from bus. Call Run to start relaying.
func NewHub(bus domain.SignalBus, logger *slog.Logger, cfg Config) *Hub {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = "unknown"
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now().UTC()
	}
	return &Hub{
		bus:     bus,
		logger:  logger.With(slog.String("component", "ws_hub")),
		cfg:     cfg,
		clients: make(map[*client]struct{}),
	}
}

// Run relays every desk channel until ctx is done, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, ch := range deskChannels {
		wg.Go(func() { h.relay(ctx, ch) })
	}
	<-ctx.Done()
	wg.Wait()

	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	return ctx.Err()
}

func (h *Hub) relay(ctx context.Context, channel string) {
	events, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.ErrorContext(ctx, "ws_hub: subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-events:
			if !ok {
				h.logger.WarnContext(ctx, "ws_hub: bus channel closed", slog.String("channel", channel))
				return
			}
			h.fanOut(channel, data)
		}
	}
}

// fanOut queues data for every interested client. A client whose queue is
// full misses the event.
func (h *Hub) fanOut(channel string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.wants(channel) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws_hub: slow client, event dropped", slog.String("channel", channel))
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("ws_hub: client connected", slog.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Info("ws_hub: client disconnected", slog.Int("clients", len(h.clients)))
}

// HandleWS serves GET /ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ws_hub: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, queueSize),
		subs: make(map[string]struct{}, len(deskChannels)),
	}
	for _, ch := range deskChannels {
		c.subs[ch] = struct{}{}
	}
	c.send <- h.greeting()

	if !h.add(c) {
		conn.Close()
		return
	}
	go c.writeLoop()
	go c.readLoop()
}

func (h *Hub) greeting() []byte {
	msg, _ := json.Marshal(map[string]any{
		"type": "desk_status",
		"data": map[string]any{
			"mode":           h.cfg.Mode,
			"channels":       deskChannels,
			"uptime_seconds": max(int64(time.Since(h.cfg.StartedAt).Seconds()), 0),
		},
		"at": time.Now().UTC(),
	})
	return msg
}

// subscribeMsg changes which channels a client receives, e.g.
// {"action":"unsubscribe","channels":["wagers"]}. "*" stands for all.
type subscribeMsg struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	subs map[string]struct{}
}

func (c *client) wants(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, one := c.subs[channel]
	_, all := c.subs["*"]
	return one || all
}

func (c *client) apply(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range msg.Channels {
		switch msg.Action {
		case "subscribe":
			c.subs[ch] = struct{}{}
		case "unsubscribe":
			delete(c.subs, ch)
		}
	}
}

func (c *client) readLoop() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws_hub: read failed", slog.String("error", err.Error()))
			}
			return
		}
		var msg subscribeMsg
		if json.Unmarshal(raw, &msg) == nil {
			c.apply(msg)
		}
	}
}

func (c *client) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind = websocket.PingMessage
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeTimeout))
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ping.C:
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}
