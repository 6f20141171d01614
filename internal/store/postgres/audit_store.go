package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// AuditStore is the desk-wide append-only audit log.
type AuditStore struct {
	db Querier
}

var _ domain.AuditStore = (*AuditStore)(nil)

func NewAuditStore(db Querier) *AuditStore {
	return &AuditStore{db: db}
}

// Log appends one entry. detail is stored as JSONB.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO audit_log (event, detail) VALUES ($1, $2)`, event, detail,
	); err != nil {
		return storeErr("append audit "+event, err)
	}
	return nil
}

// List returns entries newest first, bounded by opts.
func (s *AuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(`SELECT id, event, detail, created_at FROM audit_log WHERE TRUE`)
	bind := func(clause string, v any) {
		args = append(args, v)
		fmt.Fprintf(&q, clause, len(args))
	}
	if opts.Since != nil {
		bind(" AND created_at >= $%d", *opts.Since)
	}
	if opts.Until != nil {
		bind(" AND created_at <= $%d", *opts.Until)
	}
	q.WriteString(" ORDER BY created_at DESC, id DESC")
	if opts.Limit > 0 {
		bind(" LIMIT $%d", opts.Limit)
	}
	if opts.Offset > 0 {
		bind(" OFFSET $%d", opts.Offset)
	}

	rows, err := s.db.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, storeErr("list audit", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditEntry, error) {
		var e domain.AuditEntry
		err := row.Scan(&e.ID, &e.Event, &e.Detail, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, storeErr("scan audit", err)
	}
	return entries, nil
}
