package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"pos-backend/internal/infra/db"
)

var ErrNotFound = errors.New("customer not found")

type Repo struct{ pool db.PGX }

func NewRepo(pool db.PGX) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name, phone, email, address string) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1,$2,$3,$4)
		RETURNING id, name, phone, email, address, created_at
	`, name, phone, email, address)

	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, address, created_at
		FROM customers WHERE id = $1
	`, id)

	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Search ищет клиентов по части имени/телефона, без учёта регистра.
func (r *Repo) Search(ctx context.Context, q string) ([]Customer, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, email, address, created_at
		FROM customers
		WHERE LOWER(name) LIKE $1 OR phone LIKE $1
		ORDER BY name
	`, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
