// Package memory implements the domain stores in process memory. It backs
// tests and single-node development runs; data is lost on exit.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

type state struct {
	products   map[string]domain.Product
	rounds     map[string]domain.Round
	agents     map[string]domain.Agent
	wagers     map[string]domain.Wager
	wagerOrder []string
	batches    map[string]domain.WagerBatch
	wagerAudit []domain.WagerAudit
	payRates   map[domain.RateKey]domain.PayRate
	limits     map[domain.RateKey]domain.GlobalLimit
	layoffs    map[string]domain.Layoff
	layoffSeq  []string
	auditLog   []domain.AuditEntry
	seq        int64
}

func newState() *state {
	return &state{
		products: make(map[string]domain.Product),
		rounds:   make(map[string]domain.Round),
		agents:   make(map[string]domain.Agent),
		wagers:   make(map[string]domain.Wager),
		batches:  make(map[string]domain.WagerBatch),
		payRates: make(map[domain.RateKey]domain.PayRate),
		limits:   make(map[domain.RateKey]domain.GlobalLimit),
		layoffs:  make(map[string]domain.Layoff),
	}
}

// clone copies every container. Stored values are replaced, never mutated
// in place, so element-level sharing is safe.
func (s *state) clone() *state {
	return &state{
		products:   maps.Clone(s.products),
		rounds:     maps.Clone(s.rounds),
		agents:     maps.Clone(s.agents),
		wagers:     maps.Clone(s.wagers),
		wagerOrder: append([]string(nil), s.wagerOrder...),
		batches:    maps.Clone(s.batches),
		wagerAudit: append([]domain.WagerAudit(nil), s.wagerAudit...),
		payRates:   maps.Clone(s.payRates),
		limits:     maps.Clone(s.limits),
		layoffs:    maps.Clone(s.layoffs),
		layoffSeq:  append([]string(nil), s.layoffSeq...),
		auditLog:   append([]domain.AuditEntry(nil), s.auditLog...),
		seq:        s.seq,
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// DB is an in-memory domain.Transactor. Transactions are serialized: InTx
// holds the database lock for the duration of fn and works on a snapshot
// that replaces the live state only when fn succeeds.
type DB struct {
	mu   sync.Mutex
	data *state
}

var _ domain.Transactor = (*DB)(nil)

// New creates an empty database.
func New() *DB {
	return &DB{data: newState()}
}

// view routes store calls either to the live state under the database lock
// or to a transaction snapshot the caller already holds the lock for.
type view struct {
	db *DB
	tx *state
}

func (v *view) read(fn func(s *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	return fn(v.db.data)
}

func (v *view) stores() domain.Stores {
	return domain.Stores{
		Products: &productStore{v},
		Rounds:   &roundStore{v},
		Agents:   &agentStore{v},
		Wagers:   &wagerStore{v},
		Settings: &settingsStore{v},
		Layoffs:  &layoffStore{v},
		Audit:    &auditStore{v},
	}
}

// Stores returns stores that each lock the database per call.
func (db *DB) Stores() domain.Stores {
	return (&view{db: db}).stores()
}

// InTx runs fn against a snapshot and commits it when fn returns nil.
// Store calls through DB.Stores from inside fn deadlock.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := db.data.clone()
	if err := fn(ctx, (&view{db: db, tx: snap}).stores()); err != nil {
		return err
	}
	db.data = snap
	return nil
}

func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}
