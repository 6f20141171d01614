package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/store/memory"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decp(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events map[string][][]byte
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.events == nil {
		b.events = make(map[string][][]byte)
	}
	b.events[channel] = append(b.events[channel], payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (b *fakeBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[channel])
}

type fakeCache struct {
	mu          sync.Mutex
	rows        map[string][]domain.Exposure
	hits        int
	invalidated int
}

func (c *fakeCache) Get(_ context.Context, roundID string) ([]domain.Exposure, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.rows[roundID]
	if ok {
		c.hits++
	}
	return append([]domain.Exposure(nil), rows...), ok, nil
}

func (c *fakeCache) Set(_ context.Context, roundID string, rows []domain.Exposure) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rows == nil {
		c.rows = make(map[string][]domain.Exposure)
	}
	c.rows[roundID] = append([]domain.Exposure(nil), rows...)
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, roundID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, roundID)
	c.invalidated++
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(_ context.Context, event, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// desk wires every service over one in-memory database.
type desk struct {
	db       *memory.DB
	book     *RateBook
	products *ProductService
	agents   *AgentService
	rounds   *RoundService
	ledger   *LedgerService
	exposure *ExposureService
	layoffs  *LayoffService
	locks    *fakeLocks
	bus      *fakeBus
	cache    *fakeCache
	notifier *fakeNotifier

	product domain.Product
	agent   domain.Agent
	round   domain.Round
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		WinBasis:     domain.WinBasisGross,
		DefaultLimit: dec(5000),
		DefaultPayRates: map[domain.BetKind]decimal.Decimal{
			domain.BetThreeTop:  dec(900),
			domain.BetThreeTod:  dec(150),
			domain.BetTwoTop:    dec(90),
			domain.BetTwoBottom: dec(90),
			domain.BetRunTop:    dec(3),
			domain.BetRunBottom: dec(4),
		},
		ResolveLockTTL: time.Minute,
	}
}

func newDesk(t *testing.T) *desk {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	d := &desk{
		db:       memory.New(),
		locks:    &fakeLocks{},
		bus:      &fakeBus{},
		cache:    &fakeCache{},
		notifier: &fakeNotifier{},
	}
	hooks := Hooks{Bus: d.bus, Cache: d.cache, Notifier: d.notifier}
	d.book = NewRateBook(d.db, testEngineConfig(), d.cache, logger)
	d.products = NewProductService(d.db, logger)
	d.agents = NewAgentService(d.db, logger)
	d.rounds = NewRoundService(d.db, d.book, d.locks, hooks, logger)
	d.ledger = NewLedgerService(d.db, d.book, hooks, logger)
	d.exposure = NewExposureService(d.db, d.book, d.cache, logger)
	d.layoffs = NewLayoffService(d.db, d.exposure, hooks, logger)

	var err error
	d.product, err = d.products.Create(ctx, ProductInput{Code: "gov", Name: "Government Lottery", CloseTime: "14:30"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	d.agent, err = d.agents.Create(ctx, "a01", "Agent One")
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	d.agent, err = d.agents.SetDiscount(ctx, d.agent.ID, d.product.ID, dec(10))
	if err != nil {
		t.Fatalf("set discount: %v", err)
	}
	d.round, err = d.rounds.Create(ctx, d.product.ID, "2026-01-16")
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	return d
}

func line(number, kind string, stake int64) RawLine {
	return RawLine{Number: number, BetKind: kind, Stake: decp(stake)}
}

func (d *desk) place(t *testing.T, lines ...RawLine) []domain.Wager {
	t.Helper()
	res, err := d.ledger.PlaceWagers(context.Background(), PlaceRequest{
		RoundID:  d.round.ID,
		AgentID:  d.agent.ID,
		Lines:    lines,
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("PlaceWagers: %v", err)
	}
	return res.Wagers
}
