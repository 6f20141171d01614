package postgres

import (
	"context"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// ProductStore implements domain.ProductStore using PostgreSQL.
type ProductStore struct {
	db Querier
}

// NewProductStore creates a ProductStore on a pool or transaction.
func NewProductStore(db Querier) *ProductStore {
	return &ProductStore{db: db}
}

var _ domain.ProductStore = (*ProductStore)(nil)

const productSelectCols = `id, code, name, draw_days, close_time, active, created_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var days []int16
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &days, &p.CloseTime, &p.Active, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	for _, d := range days {
		p.DrawDays = append(p.DrawDays, time.Weekday(d))
	}
	return p, nil
}

// Create inserts a product. A duplicate code yields ErrDuplicateProduct.
func (s *ProductStore) Create(ctx context.Context, p domain.Product) error {
	days := make([]int16, 0, len(p.DrawDays))
	for _, d := range p.DrawDays {
		days = append(days, int16(d))
	}
	const query = `
		INSERT INTO products (id, code, name, draw_days, close_time, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, query, p.ID, p.Code, p.Name, days, p.CloseTime, p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateProduct
		}
		return storeErr("create product "+p.Code, err)
	}
	return nil
}

// GetByID retrieves a product by id.
func (s *ProductStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, `SELECT `+productSelectCols+` FROM products WHERE id = $1`, id))
	if err != nil {
		return domain.Product{}, getErr("get product "+id, err, domain.ErrProductNotFound)
	}
	return p, nil
}

// GetByCode retrieves a product by its code, case-insensitively.
func (s *ProductStore) GetByCode(ctx context.Context, code string) (domain.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, `SELECT `+productSelectCols+` FROM products WHERE UPPER(code) = UPPER($1)`, code))
	if err != nil {
		return domain.Product{}, getErr("get product "+code, err, domain.ErrProductNotFound)
	}
	return p, nil
}

// List returns every product ordered by code.
func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.Query(ctx, `SELECT `+productSelectCols+` FROM products ORDER BY code`)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list products rows", err)
	}
	return out, nil
}
