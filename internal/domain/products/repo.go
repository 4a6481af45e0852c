package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"pos-backend/internal/infra/db"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrInUse — товар нельзя удалить, пока на него ссылаются движения или позиции заказов.
	ErrInUse = errors.New("product is referenced")
)

type Repo struct{ pool db.PGX }

func NewRepo(pool db.PGX) *Repo { return &Repo{pool: pool} }

const productCols = `id, sku, name, category_id, supplier_id, price, cost, stock_quantity, reorder_level, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.SupplierID,
		&p.Price, &p.Cost, &p.StockQuantity, &p.ReorderLevel,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// Остаток при создании всегда нулевой: его двигает только журнал движений.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, category_id, supplier_id, price, cost, reorder_level, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE)
		RETURNING `+productCols+`
	`, p.SKU, p.Name, p.CategoryID, p.SupplierID, p.Price, p.Cost, p.ReorderLevel)
	return scanProduct(row)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *Repo) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE sku = $1`, sku)
	return scanProduct(row)
}

// Update пишет карточку товара целиком, кроме stock_quantity —
// счётчик остатка меняется только через журнал движений.
func (r *Repo) Update(ctx context.Context, p *Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET sku=$2, name=$3, category_id=$4, supplier_id=$5, price=$6, cost=$7,
		    reorder_level=$8, active=$9, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols+`
	`, p.ID, p.SKU, p.Name, p.CategoryID, p.SupplierID, p.Price, p.Cost, p.ReorderLevel, p.Active)
	return scanProduct(row)
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET active=$2, updated_at=now() WHERE id=$1
		RETURNING `+productCols+`
	`, id, active)
	return scanProduct(row)
}

// Delete отказывает, пока на товар ссылаются движения склада или позиции заказов.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	var movements int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1`, id,
	).Scan(&movements); err != nil {
		return err
	}
	if movements > 0 {
		return fmt.Errorf("%w by %d inventory movements", ErrInUse, movements)
	}

	var items int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE product_id = $1`, id,
	).Scan(&items); err != nil {
		return err
	}
	if items > 0 {
		return fmt.Errorf("%w by %d order items", ErrInUse, items)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Search ищет товары по части названия или артикула, без учёта регистра.
func (r *Repo) Search(ctx context.Context, q string, onlyActive bool) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"

	base := `
		SELECT ` + productCols + `
		FROM products
		WHERE (LOWER(name) LIKE $1 OR LOWER(sku) LIKE $1)
	`
	if onlyActive {
		base += ` AND active = TRUE`
	}
	base += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, base, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListLowStock возвращает активные товары с остатком не выше порога дозаказа.
func (r *Repo) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE active = TRUE AND stock_quantity <= reorder_level
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.SupplierID,
			&p.Price, &p.Cost, &p.StockQuantity, &p.ReorderLevel,
			&p.Active, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
