package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// WagerStore implements domain.WagerStore using PostgreSQL.
type WagerStore struct {
	db Querier
}

// NewWagerStore creates a WagerStore on a pool or transaction.
func NewWagerStore(db Querier) *WagerStore {
	return &WagerStore{db: db}
}

var _ domain.WagerStore = (*WagerStore)(nil)

const wagerSelectCols = `id, round_id, agent_id, batch_id, number, bet_kind,
	stake::text, discount_pct::text, discount_amt::text, net_stake::text, pay_rate::text,
	status, is_win, win_amount::text,
	cancelled_by, cancelled_at, cancel_reason,
	edited_by, edited_at, edit_reason,
	settled_at, created_at`

func scanWager(row rowScanner) (domain.Wager, error) {
	var w domain.Wager
	var kind, status string
	err := row.Scan(
		&w.ID, &w.RoundID, &w.AgentID, &w.BatchID, &w.Number, &kind,
		&w.Stake, &w.DiscountPct, &w.DiscountAmt, &w.NetStake, &w.PayRate,
		&status, &w.IsWin, &w.WinAmount,
		&w.CancelledBy, &w.CancelledAt, &w.CancelReason,
		&w.EditedBy, &w.EditedAt, &w.EditReason,
		&w.SettledAt, &w.CreatedAt,
	)
	if err != nil {
		return domain.Wager{}, err
	}
	w.BetKind = domain.BetKind(kind)
	w.Status = domain.WagerStatus(status)
	return w, nil
}

// CreateBatch inserts the batch header and its wagers. Run it inside a
// transaction so a failed line leaves nothing behind.
func (s *WagerStore) CreateBatch(ctx context.Context, batch domain.WagerBatch, wagers []domain.Wager) error {
	if batch.ID != "" {
		const insertBatch = `
			INSERT INTO wager_batches (id, round_id, agent_id, note, lines, total_stake, total_net, operator, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err := s.db.Exec(ctx, insertBatch,
			batch.ID, batch.RoundID, batch.AgentID, batch.Note, batch.Lines,
			batch.TotalStake.String(), batch.TotalNet.String(), batch.Operator, batch.CreatedAt,
		)
		if err != nil {
			return storeErr("create batch "+batch.ID, err)
		}
	}

	const insertWager = `
		INSERT INTO wagers (
			id, round_id, agent_id, batch_id, number, bet_kind,
			stake, discount_pct, discount_amt, net_stake, pay_rate,
			status, is_win, win_amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	for _, w := range wagers {
		_, err := s.db.Exec(ctx, insertWager,
			w.ID, w.RoundID, w.AgentID, w.BatchID, w.Number, string(w.BetKind),
			w.Stake.String(), w.DiscountPct.String(), w.DiscountAmt.String(), w.NetStake.String(), w.PayRate.String(),
			string(w.Status), w.IsWin, w.WinAmount.String(), w.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Validationf("wager %s already exists", w.ID)
			}
			return storeErr("create wager "+w.ID, err)
		}
	}
	return nil
}

// GetBatch retrieves a batch header.
func (s *WagerStore) GetBatch(ctx context.Context, id string) (domain.WagerBatch, error) {
	const query = `
		SELECT id, round_id, agent_id, note, lines, total_stake::text, total_net::text, operator, created_at
		FROM wager_batches WHERE id = $1`
	var b domain.WagerBatch
	err := s.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.RoundID, &b.AgentID, &b.Note, &b.Lines,
		&b.TotalStake, &b.TotalNet, &b.Operator, &b.CreatedAt,
	)
	if err != nil {
		return domain.WagerBatch{}, getErr("get batch "+id, err, domain.ErrNotFound)
	}
	return b, nil
}

func (s *WagerStore) get(ctx context.Context, id, suffix string) (domain.Wager, error) {
	w, err := scanWager(s.db.QueryRow(ctx, `SELECT `+wagerSelectCols+` FROM wagers WHERE id = $1`+suffix, id))
	if err != nil {
		return domain.Wager{}, getErr("get wager "+id, err, domain.ErrWagerNotFound)
	}
	return w, nil
}

// GetByID retrieves a wager without locking it.
func (s *WagerStore) GetByID(ctx context.Context, id string) (domain.Wager, error) {
	return s.get(ctx, id, "")
}

// GetForUpdate retrieves a wager and holds its row lock until the
// surrounding transaction ends.
func (s *WagerStore) GetForUpdate(ctx context.Context, id string) (domain.Wager, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

// Update writes the mutable fields of a wager: pricing after an edit and
// the cancel/edit bookkeeping.
func (s *WagerStore) Update(ctx context.Context, w domain.Wager) error {
	const query = `
		UPDATE wagers SET
			stake         = $2,
			discount_amt  = $3,
			net_stake     = $4,
			status        = $5,
			cancelled_by  = $6,
			cancelled_at  = $7,
			cancel_reason = $8,
			edited_by     = $9,
			edited_at     = $10,
			edit_reason   = $11
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		w.ID, w.Stake.String(), w.DiscountAmt.String(), w.NetStake.String(), string(w.Status),
		w.CancelledBy, w.CancelledAt, w.CancelReason,
		w.EditedBy, w.EditedAt, w.EditReason,
	)
	if err != nil {
		return storeErr("update wager "+w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWagerNotFound
	}
	return nil
}

// ListByRound returns a round's wagers in placement order.
func (s *WagerStore) ListByRound(ctx context.Context, roundID string, f domain.WagerFilter) ([]domain.Wager, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + wagerSelectCols + ` FROM wagers WHERE round_id = $1`)
	args := []any{roundID}
	add := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&b, " AND "+cond, len(args))
	}
	if f.AgentID != "" {
		add("agent_id = $%d", f.AgentID)
	}
	if f.BetKind != "" {
		add("bet_kind = $%d", string(f.BetKind))
	}
	if f.Number != "" {
		add("number = $%d", f.Number)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	b.WriteString(" ORDER BY seq")

	rows, err := s.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, storeErr("list wagers for round "+roundID, err)
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, storeErr("scan wager", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list wagers rows", err)
	}
	return out, nil
}

// ApplySettlements writes resolution outcomes onto the wagers they name.
func (s *WagerStore) ApplySettlements(ctx context.Context, settled []domain.Settlement, at time.Time) error {
	const query = `
		UPDATE wagers SET status = $2, is_win = $3, win_amount = $4, settled_at = $5
		WHERE id = $1`
	for _, o := range settled {
		tag, err := s.db.Exec(ctx, query, o.WagerID, string(o.Status), o.IsWin, o.WinAmount.String(), at)
		if err != nil {
			return storeErr("settle wager "+o.WagerID, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrWagerNotFound
		}
	}
	return nil
}

// CountByAgent counts every wager an agent ever placed, cancelled included.
func (s *WagerStore) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM wagers WHERE agent_id = $1`, agentID).Scan(&n); err != nil {
		return 0, storeErr("count wagers for agent "+agentID, err)
	}
	return n, nil
}

// AppendAudit adds an entry to a wager's audit trail.
func (s *WagerStore) AppendAudit(ctx context.Context, e domain.WagerAudit) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO wager_audit (wager_id, action, old_amount, new_amount, reason, operator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, query,
		e.WagerID, string(e.Action), e.OldAmount.String(), e.NewAmount.String(), e.Reason, e.Operator, e.CreatedAt,
	)
	if err != nil {
		return storeErr("append audit for wager "+e.WagerID, err)
	}
	return nil
}

// ListAudit returns a wager's audit trail oldest first.
func (s *WagerStore) ListAudit(ctx context.Context, wagerID string) ([]domain.WagerAudit, error) {
	const query = `
		SELECT id, wager_id, action, old_amount::text, new_amount::text, reason, operator, created_at
		FROM wager_audit WHERE wager_id = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, query, wagerID)
	if err != nil {
		return nil, storeErr("list audit for wager "+wagerID, err)
	}
	defer rows.Close()

	var out []domain.WagerAudit
	for rows.Next() {
		var e domain.WagerAudit
		var action string
		if err := rows.Scan(&e.ID, &e.WagerID, &action, &e.OldAmount, &e.NewAmount, &e.Reason, &e.Operator, &e.CreatedAt); err != nil {
			return nil, storeErr("scan wager audit", err)
		}
		e.Action = domain.AuditAction(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list audit rows", err)
	}
	return out, nil
}
