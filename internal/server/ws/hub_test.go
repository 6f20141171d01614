package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

type fakeBus struct {
	chans map[string]chan []byte
}

func newFakeBus() *fakeBus {
	b := &fakeBus{chans: make(map[string]chan []byte)}
	for _, ch := range deskChannels {
		b.chans[ch] = make(chan []byte, 8)
	}
	return b
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.chans[channel] <- payload
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	return b.chans[channel], nil
}

func TestClientWants(t *testing.T) {
	tests := []struct {
		subs    []string
		channel string
		want    bool
	}{
		{[]string{"wagers"}, "wagers", true},
		{[]string{"wagers"}, "rounds", false},
		{[]string{"*"}, "layoffs", true},
		{nil, "wagers", false},
	}
	for _, tt := range tests {
		c := &client{subs: make(map[string]struct{})}
		for _, s := range tt.subs {
			c.subs[s] = struct{}{}
		}
		if got := c.wants(tt.channel); got != tt.want {
			t.Errorf("subs %v channel %q: got %v, want %v", tt.subs, tt.channel, got, tt.want)
		}
	}
}

func TestClientApply(t *testing.T) {
	c := &client{subs: map[string]struct{}{"wagers": {}, "rounds": {}}}
	c.apply(subscribeMsg{Action: "unsubscribe", Channels: []string{"wagers"}})
	c.apply(subscribeMsg{Action: "subscribe", Channels: []string{"layoffs"}})
	c.apply(subscribeMsg{Action: "bogus", Channels: []string{"wagers"}})

	if c.wants("wagers") {
		t.Error("wagers should be unsubscribed")
	}
	if !c.wants("rounds") || !c.wants("layoffs") {
		t.Errorf("unexpected subscriptions: %v", c.subs)
	}
}

func TestHubRelaysBusEvents(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(bus, slog.New(slog.DiscardHandler), Config{Mode: "server"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("frame type = %d, want text", kind)
	}
	var status struct {
		Type string `json:"type"`
		Data struct {
			Mode string `json:"mode"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Type != "desk_status" || status.Data.Mode != "server" {
		t.Errorf("status = %+v", status)
	}

	evt := `{"type":"wagers_placed","round_id":"r1"}`
	if err := bus.Publish(ctx, domain.ChannelWagers, []byte(evt)); err != nil {
		t.Fatal(err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if string(data) != evt {
		t.Errorf("event = %s, want %s", data, evt)
	}
}
