package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so every store can
// run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func storesFor(q Querier) domain.Stores {
	return domain.Stores{
		Products: NewProductStore(q),
		Rounds:   NewRoundStore(q),
		Agents:   NewAgentStore(q),
		Wagers:   NewWagerStore(q),
		Settings: NewSettingsStore(q),
		Layoffs:  NewLayoffStore(q),
		Audit:    NewAuditStore(q),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// storeErr wraps a driver failure as a persistence error.
func storeErr(action string, err error) error {
	return fmt.Errorf("postgres: %s: %w: %w", action, domain.ErrPersistence, err)
}

// getErr maps "no rows" to notFound and anything else to a persistence error.
func getErr(action string, err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return storeErr(action, err)
}
