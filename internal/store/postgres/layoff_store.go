package postgres

import (
	"context"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// LayoffStore implements domain.LayoffStore using PostgreSQL.
type LayoffStore struct {
	db Querier
}

// NewLayoffStore creates a LayoffStore on a pool or transaction.
func NewLayoffStore(db Querier) *LayoffStore {
	return &LayoffStore{db: db}
}

var _ domain.LayoffStore = (*LayoffStore)(nil)

const layoffSelectCols = `id, round_id, number, bet_kind,
	total_amount::text, limit_amount::text, excess_amount::text, layoff_amount::text, keep_amount::text,
	destination, status, operator, created_at, sent_at`

func scanLayoff(row rowScanner) (domain.Layoff, error) {
	var l domain.Layoff
	var kind, status string
	err := row.Scan(
		&l.ID, &l.RoundID, &l.Number, &kind,
		&l.TotalAmount, &l.LimitAmount, &l.ExcessAmount, &l.LayoffAmount, &l.KeepAmount,
		&l.Destination, &status, &l.Operator, &l.CreatedAt, &l.SentAt,
	)
	if err != nil {
		return domain.Layoff{}, err
	}
	l.BetKind = domain.BetKind(kind)
	l.Status = domain.LayoffStatus(status)
	return l, nil
}

// Create appends a layoff record.
func (s *LayoffStore) Create(ctx context.Context, l domain.Layoff) error {
	const query = `
		INSERT INTO layoffs (
			id, round_id, number, bet_kind,
			total_amount, limit_amount, excess_amount, layoff_amount, keep_amount,
			destination, status, operator, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.Exec(ctx, query,
		l.ID, l.RoundID, l.Number, string(l.BetKind),
		l.TotalAmount.String(), l.LimitAmount.String(), l.ExcessAmount.String(), l.LayoffAmount.String(), l.KeepAmount.String(),
		l.Destination, string(l.Status), l.Operator, l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Validationf("layoff %s already exists", l.ID)
		}
		return storeErr("create layoff "+l.ID, err)
	}
	return nil
}

// GetByID retrieves a layoff.
func (s *LayoffStore) GetByID(ctx context.Context, id string) (domain.Layoff, error) {
	l, err := scanLayoff(s.db.QueryRow(ctx, `SELECT `+layoffSelectCols+` FROM layoffs WHERE id = $1`, id))
	if err != nil {
		return domain.Layoff{}, getErr("get layoff "+id, err, domain.ErrLayoffNotFound)
	}
	return l, nil
}

// MarkSent flips a pending layoff to SENT. Only one caller can win.
func (s *LayoffStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE layoffs SET status = 'SENT', sent_at = $2
		WHERE id = $1 AND status = 'PENDING'`
	tag, err := s.db.Exec(ctx, query, id, at)
	if err != nil {
		return storeErr("mark layoff sent "+id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrLayoffNotPending
}

// ListByRound returns a round's layoffs in recording order.
func (s *LayoffStore) ListByRound(ctx context.Context, roundID string) ([]domain.Layoff, error) {
	rows, err := s.db.Query(ctx, `SELECT `+layoffSelectCols+` FROM layoffs WHERE round_id = $1 ORDER BY seq`, roundID)
	if err != nil {
		return nil, storeErr("list layoffs for round "+roundID, err)
	}
	defer rows.Close()

	var out []domain.Layoff
	for rows.Next() {
		l, err := scanLayoff(rows)
		if err != nil {
			return nil, storeErr("scan layoff", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list layoffs rows", err)
	}
	return out, nil
}
