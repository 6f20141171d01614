package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("ledger: place: %w", domain.ErrRoundNotAccepting), http.StatusBadRequest},
		{domain.ErrWagerNotActive, http.StatusBadRequest},
		{domain.ErrAgentInactive, http.StatusBadRequest},
		{domain.ErrRoundResolved, http.StatusConflict},
		{domain.ErrDuplicateRound, http.StatusConflict},
		{domain.ErrLockHeld, http.StatusLocked},
		{domain.ErrRoundNotFound, http.StatusNotFound},
		{domain.Validationf("bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rounds", nil)
	writeError(rec, req, slog.New(slog.DiscardHandler), errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "internal server error" || body.Reason != "internal" {
		t.Errorf("body = %+v", body)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"code":"A01","name":"One"}`, false},
		{"missing name", `{"code":"A01"}`, true},
		{"unknown field", `{"code":"A01","name":"One","extra":1}`, true},
		{"malformed", `{"code":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/agents", strings.NewReader(tt.body))
			var dst createAgentRequest
			err := decode(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decode err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err %v is not a validation error", err)
			}
		})
	}
}

func TestParseListOpts(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 50, 0},
		{"limit=10&offset=20", 10, 20},
		{"limit=9999", 500, 0},
		{"limit=-1&offset=-5", 50, 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/audit?"+tt.query, nil)
		opts := parseListOpts(req)
		if opts.Limit != tt.wantLimit || opts.Offset != tt.wantOffset {
			t.Errorf("%q: got %d/%d, want %d/%d", tt.query, opts.Limit, opts.Offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
