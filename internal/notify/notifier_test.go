package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingSender struct {
	name  string
	err   error
	calls int
}

func (s *recordingSender) Send(context.Context, string, string) error {
	s.calls++
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func TestNotifierFilter(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		event  string
		want   int
	}{
		{"no filter", nil, "round_resolved", 1},
		{"allowed", []string{"round_resolved", " layoff_recorded "}, "layoff_recorded", 1},
		{"filtered", []string{"round_resolved"}, "layoff_recorded", 0},
		{"blank entries ignored", []string{""}, "layoff_recorded", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSender{name: "rec"}
			n := NewNotifier([]Sender{s}, tt.events, slog.New(slog.DiscardHandler))
			if err := n.Notify(context.Background(), tt.event, "t", "m"); err != nil {
				t.Fatalf("Notify: %v", err)
			}
			if s.calls != tt.want {
				t.Errorf("calls = %d, want %d", s.calls, tt.want)
			}
		})
	}
}

func TestNotifierContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	bad := &recordingSender{name: "bad", err: boom}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.New(slog.DiscardHandler))

	err := n.Notify(context.Background(), "round_resolved", "t", "m")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if good.calls != 1 {
		t.Errorf("good sender calls = %d, want 1", good.calls)
	}
}

func TestTelegramSender(t *testing.T) {
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "42").WithBaseURL(srv.URL + "/")
	if err := s.Send(context.Background(), "Round resolved", "GOV 2026-01-16"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if got["chat_id"] != "42" || got["text"] != "*Round resolved*\nGOV 2026-01-16" {
		t.Errorf("payload = %v", got)
	}
}

func TestDiscordSenderStatus(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusNoContent, false},
		{http.StatusTooManyRequests, true},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("slow down"))
		}))
		err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
		srv.Close()
		if (err != nil) != tt.wantErr {
			t.Errorf("status %d: err = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		if err != nil && !strings.HasPrefix(err.Error(), "discord: unexpected status 429") {
			t.Errorf("err = %q", err)
		}
	}
}
