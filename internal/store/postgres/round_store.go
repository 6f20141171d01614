package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// RoundStore implements domain.RoundStore using PostgreSQL.
type RoundStore struct {
	db Querier
}

// NewRoundStore creates a RoundStore on a pool or transaction.
func NewRoundStore(db Querier) *RoundStore {
	return &RoundStore{db: db}
}

var _ domain.RoundStore = (*RoundStore)(nil)

const roundSelectCols = `id, product_id, draw_date, status,
	three_top, two_top, two_bottom, three_tod,
	closed_at, resolved_at, created_at`

func scanRound(row rowScanner) (domain.Round, error) {
	var r domain.Round
	var status string
	var threeTop, twoTop, twoBottom *string
	var tod []string
	err := row.Scan(
		&r.ID, &r.ProductID, &r.DrawDate, &status,
		&threeTop, &twoTop, &twoBottom, &tod,
		&r.ClosedAt, &r.ResolvedAt, &r.CreatedAt,
	)
	if err != nil {
		return domain.Round{}, err
	}
	r.Status = domain.RoundStatus(status)
	r.DrawDate = time.Date(r.DrawDate.Year(), r.DrawDate.Month(), r.DrawDate.Day(), 0, 0, 0, 0, time.UTC)
	if threeTop != nil {
		r.Result = &domain.DrawResult{ThreeTop: *threeTop, ThreeTod: tod}
		if twoTop != nil {
			r.Result.TwoTop = *twoTop
		}
		if twoBottom != nil {
			r.Result.TwoBottom = *twoBottom
		}
	}
	return r, nil
}

// Create inserts a round. A second round for the same (product, draw date)
// yields ErrDuplicateRound.
func (s *RoundStore) Create(ctx context.Context, r domain.Round) error {
	const query = `
		INSERT INTO rounds (id, product_id, draw_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.Exec(ctx, query, r.ID, r.ProductID, r.DrawDate, string(r.Status), r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRound
		}
		return storeErr("create round "+r.ID, err)
	}
	return nil
}

func (s *RoundStore) get(ctx context.Context, id, suffix string) (domain.Round, error) {
	r, err := scanRound(s.db.QueryRow(ctx, `SELECT `+roundSelectCols+` FROM rounds WHERE id = $1`+suffix, id))
	if err != nil {
		return domain.Round{}, getErr("get round "+id, err, domain.ErrRoundNotFound)
	}
	return r, nil
}

// GetByID retrieves a round without locking it.
func (s *RoundStore) GetByID(ctx context.Context, id string) (domain.Round, error) {
	return s.get(ctx, id, "")
}

// GetForUpdate retrieves a round and locks its row exclusively.
func (s *RoundStore) GetForUpdate(ctx context.Context, id string) (domain.Round, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

// GetForShare retrieves a round and holds a shared lock, which blocks a
// concurrent status change until the transaction ends.
func (s *RoundStore) GetForShare(ctx context.Context, id string) (domain.Round, error) {
	return s.get(ctx, id, " FOR SHARE")
}

// List returns rounds newest draw first, filtered by product and status.
func (s *RoundStore) List(ctx context.Context, productID string, statuses []domain.RoundStatus, opts domain.ListOpts) ([]domain.Round, error) {
	query := `SELECT ` + roundSelectCols + ` FROM rounds WHERE 1=1`
	args := []any{}
	argIdx := 1

	if productID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", argIdx)
		args = append(args, productID)
		argIdx++
	}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argIdx)
		args = append(args, names)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND draw_date >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND draw_date <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY draw_date DESC, product_id"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list rounds", err)
	}
	defer rows.Close()

	var out []domain.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, storeErr("scan round", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list rounds rows", err)
	}
	return out, nil
}

// UpdateStatus sets the status and, when closing, the closed timestamp.
func (s *RoundStore) UpdateStatus(ctx context.Context, id string, status domain.RoundStatus, at time.Time) error {
	query := `UPDATE rounds SET status = $1 WHERE id = $2`
	args := []any{string(status), id}
	if status == domain.RoundClosedForEntry {
		query = `UPDATE rounds SET status = $1, closed_at = $3 WHERE id = $2`
		args = append(args, at)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return storeErr("update round status "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}
	return nil
}

// SetResult stores the result and moves the round to RESOLVED.
func (s *RoundStore) SetResult(ctx context.Context, id string, result domain.DrawResult, at time.Time) error {
	const query = `
		UPDATE rounds SET
			status      = 'RESOLVED',
			three_top   = $2,
			two_top     = $3,
			two_bottom  = $4,
			three_tod   = $5,
			resolved_at = $6,
			closed_at   = COALESCE(closed_at, $6)
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id, result.ThreeTop, result.TwoTop, result.TwoBottom, result.ThreeTod, at)
	if err != nil {
		return storeErr("set round result "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}
	return nil
}
