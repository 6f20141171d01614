package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/server/handler"
	"github.com/alanyoungcy/lottodesk/internal/service"
	"github.com/alanyoungcy/lottodesk/internal/store/memory"
)

func newTestServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	db := memory.New()

	book := service.NewRateBook(db, service.EngineConfig{
		WinBasis:     domain.WinBasisGross,
		DefaultLimit: decimal.NewFromInt(5000),
		DefaultPayRates: map[domain.BetKind]decimal.Decimal{
			domain.BetThreeTop:  decimal.NewFromInt(900),
			domain.BetThreeTod:  decimal.NewFromInt(150),
			domain.BetTwoTop:    decimal.NewFromInt(90),
			domain.BetTwoBottom: decimal.NewFromInt(90),
			domain.BetRunTop:    decimal.NewFromInt(3),
			domain.BetRunBottom: decimal.NewFromInt(4),
		},
		ResolveLockTTL: time.Minute,
	}, nil, logger)
	products := service.NewProductService(db, logger)
	agents := service.NewAgentService(db, logger)
	rounds := service.NewRoundService(db, book, nil, service.Hooks{}, logger)
	ledger := service.NewLedgerService(db, book, service.Hooks{}, logger)
	exposure := service.NewExposureService(db, book, nil, logger)
	layoffs := service.NewLayoffService(db, exposure, service.Hooks{}, logger)

	handlers := Handlers{
		Health:   handler.NewHealthHandler(nil, logger),
		Products: handler.NewProductHandler(products, book, logger),
		Agents:   handler.NewAgentHandler(agents, logger),
		Rounds:   handler.NewRoundHandler(rounds, products, nil, logger),
		Wagers:   handler.NewWagerHandler(ledger, logger),
		Exposure: handler.NewExposureHandler(exposure, logger),
		Layoffs:  handler.NewLayoffHandler(layoffs, logger),
		Audit:    handler.NewAuditHandler(db.Stores().Audit, logger),
	}
	srv := NewServer(Config{APIKey: apiKey}, handlers, nil, nil, logger)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t   *testing.T
	url string
	key string
}

func (c client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, c.url+path, &buf)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator", "desk-1")
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type errResp struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func TestDeskFlow(t *testing.T) {
	ts := newTestServer(t, "")
	c := client{t: t, url: ts.URL}

	var product domain.Product
	if code := c.do("POST", "/api/products", map[string]any{
		"code": "gov", "name": "Government", "draw_days": []int{1, 16}, "close_time": "14:30",
	}, nil); code != http.StatusBadRequest {
		t.Fatalf("draw day 16: status %d, want 400", code)
	}
	if code := c.do("POST", "/api/products", map[string]any{
		"code": "gov", "name": "Government", "close_time": "14:30",
	}, &product); code != http.StatusCreated {
		t.Fatalf("create product: status %d", code)
	}

	var agent domain.Agent
	if code := c.do("POST", "/api/agents", map[string]any{"code": "a01", "name": "Agent One"}, &agent); code != http.StatusCreated {
		t.Fatalf("create agent: status %d", code)
	}
	if code := c.do("PUT", "/api/agents/"+agent.ID+"/discounts", map[string]any{
		"product_id": product.ID, "pct": "10",
	}, &agent); code != http.StatusOK {
		t.Fatalf("set discount: status %d", code)
	}

	var round domain.Round
	if code := c.do("POST", "/api/rounds", map[string]any{
		"product_id": "GOV", "draw_date": "2026-01-16",
	}, &round); code != http.StatusCreated {
		t.Fatalf("create round: status %d", code)
	}
	var dup errResp
	if code := c.do("POST", "/api/rounds", map[string]any{
		"product_id": product.ID, "draw_date": "2026-01-16",
	}, &dup); code != http.StatusConflict || dup.Reason != "duplicate" {
		t.Fatalf("duplicate round: status %d reason %q", code, dup.Reason)
	}

	var placed service.PlaceResult
	if code := c.do("POST", "/api/rounds/"+round.ID+"/wagers", map[string]any{
		"agent_id": agent.ID,
		"lines": []map[string]any{
			{"number": "123", "bet_kind": "THREE_TOP", "stake": "100"},
			{"number": "45", "bet_kind": "TWO_BOTTOM", "stake": "50"},
			{"number": "9", "bet_kind": "TWO_TOP", "stake": "10"},
		},
	}, &placed); code != http.StatusCreated {
		t.Fatalf("place: status %d", code)
	}
	if placed.Count != 2 || len(placed.Skipped) != 1 || placed.Skipped[0].Index != 2 {
		t.Fatalf("place result = count %d skipped %+v", placed.Count, placed.Skipped)
	}
	if !placed.Wagers[0].NetStake.Equal(decimal.NewFromInt(90)) {
		t.Errorf("net stake = %s, want 90", placed.Wagers[0].NetStake)
	}

	var exp struct {
		Rows []domain.Exposure `json:"rows"`
	}
	if code := c.do("GET", "/api/exposure?round_id="+round.ID+"&sort=payout", nil, &exp); code != http.StatusOK {
		t.Fatalf("exposure: status %d", code)
	}
	if len(exp.Rows) != 2 || exp.Rows[0].Number != "123" {
		t.Fatalf("exposure rows = %+v", exp.Rows)
	}

	if code := c.do("POST", "/api/rounds/"+round.ID+"/close", nil, &round); code != http.StatusOK {
		t.Fatalf("close: status %d", code)
	}
	var closed errResp
	if code := c.do("POST", "/api/rounds/"+round.ID+"/wagers", map[string]any{
		"agent_id": agent.ID,
		"lines":    []map[string]any{{"number": "77", "bet_kind": "TWO_TOP", "stake": "10"}},
	}, &closed); code != http.StatusBadRequest || closed.Reason != "round_closed" {
		t.Fatalf("place after close: status %d reason %q", code, closed.Reason)
	}

	var report service.ResolveReport
	if code := c.do("POST", "/api/rounds/"+round.ID+"/result", map[string]any{
		"three_top": "123", "two_bottom": "45",
	}, &report); code != http.StatusOK {
		t.Fatalf("result: status %d", code)
	}
	if report.Settled != 2 || report.Winners != 2 {
		t.Errorf("report = %+v", report)
	}
	var again errResp
	if code := c.do("POST", "/api/rounds/"+round.ID+"/result", map[string]any{
		"three_top": "999", "two_bottom": "00",
	}, &again); code != http.StatusConflict || again.Reason != "already_resolved" {
		t.Errorf("second result: status %d reason %q", code, again.Reason)
	}

	var w domain.Wager
	if code := c.do("GET", "/api/wagers/"+placed.Wagers[0].ID, nil, &w); code != http.StatusOK {
		t.Fatalf("get wager: status %d", code)
	}
	if w.Status != domain.WagerWon {
		t.Errorf("wager status = %s, want WON", w.Status)
	}

	var missing errResp
	if code := c.do("GET", "/api/wagers/nope", nil, &missing); code != http.StatusNotFound || missing.Reason != "not_found" {
		t.Errorf("missing wager: status %d reason %q", code, missing.Reason)
	}
}

func TestLayoffRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	c := client{t: t, url: ts.URL}

	var product domain.Product
	c.do("POST", "/api/products", map[string]any{"code": "hanoi", "name": "Hanoi"}, &product)
	var round domain.Round
	if code := c.do("POST", "/api/rounds", map[string]any{
		"product_id": product.ID, "draw_date": "2026-02-01",
	}, &round); code != http.StatusCreated {
		t.Fatalf("create round: status %d", code)
	}

	var l domain.Layoff
	if code := c.do("POST", "/api/rounds/"+round.ID+"/layoffs", map[string]any{
		"number": "12", "bet_kind": "two_top", "total_amount": "8000", "limit_amount": "5000",
		"destination": "upline",
	}, &l); code != http.StatusCreated {
		t.Fatalf("record: status %d", code)
	}
	if !l.ExcessAmount.Equal(decimal.NewFromInt(3000)) || l.Status != domain.LayoffPending || l.Operator != "desk-1" {
		t.Errorf("layoff = %+v", l)
	}

	if code := c.do("POST", "/api/layoffs/"+l.ID+"/sent", nil, &l); code != http.StatusOK || l.Status != domain.LayoffSent {
		t.Fatalf("mark sent: status %d layoff %+v", code, l)
	}
	var again errResp
	if code := c.do("POST", "/api/layoffs/"+l.ID+"/sent", nil, &again); code != http.StatusConflict || again.Reason != "not_active" {
		t.Errorf("mark sent twice: status %d reason %q", code, again.Reason)
	}

	var list struct {
		Layoffs []domain.Layoff `json:"layoffs"`
	}
	c.do("GET", "/api/rounds/"+round.ID+"/layoffs", nil, &list)
	if len(list.Layoffs) != 1 {
		t.Errorf("layoffs = %d, want 1", len(list.Layoffs))
	}
}

func TestAuthAndHealth(t *testing.T) {
	ts := newTestServer(t, "secret")

	if code := (client{t: t, url: ts.URL}).do("GET", "/api/health", nil, nil); code != http.StatusOK {
		t.Errorf("health without key: status %d, want 200", code)
	}
	if code := (client{t: t, url: ts.URL}).do("GET", "/api/products", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("products without key: status %d, want 401", code)
	}
	if code := (client{t: t, url: ts.URL, key: "secret"}).do("GET", "/api/products", nil, nil); code != http.StatusOK {
		t.Errorf("products with key: status %d, want 200", code)
	}
}

func TestArchiveUnavailable(t *testing.T) {
	ts := newTestServer(t, "")
	var body errResp
	code := (client{t: t, url: ts.URL}).do("POST", "/api/rounds/r1/archive", nil, &body)
	if code != http.StatusServiceUnavailable || body.Reason != "unavailable" {
		t.Errorf("archive without storage: status %d reason %q", code, body.Reason)
	}
}
