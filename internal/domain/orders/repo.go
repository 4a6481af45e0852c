package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pos-backend/internal/domain/customers"
	"pos-backend/internal/infra/db"
	"pos-backend/internal/infra/metrics"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict — заданный вызывающим номер заказа уже занят.
	ErrConflict = errors.New("order number already taken")
)

type Repo struct {
	pool         db.PGX
	log          *slog.Logger
	customers    *customers.Repo
	numberPrefix string
}

func NewRepo(pool db.PGX, log *slog.Logger, cust *customers.Repo, numberPrefix string) *Repo {
	return &Repo{pool: pool, log: log, customers: cust, numberPrefix: numberPrefix}
}

// Create пишет заказ вместе с позициями, оплатами и отгрузками одной
// транзакцией. Итоги пересчитываются перед записью. Сгенерированный номер
// при конфликте уникальности перегенерируется до трёх раз; номер, заданный
// вызывающим, не трогаем — возвращаем ErrConflict.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Status == "" {
		o.Status = StatusDraft
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	CalculateTotals(o)

	generated := o.OrderNo == ""
	for attempt := 0; ; attempt++ {
		if generated {
			o.OrderNo = NewNumber(r.numberPrefix, time.Now())
		}
		err := r.create(ctx, o)
		if err == nil {
			metrics.OrdersWritten.WithLabelValues("create").Inc()
			return nil
		}
		if isUniqueViolation(err) {
			if generated && attempt < 2 {
				continue
			}
			metrics.WriteFailures.WithLabelValues("create").Inc()
			return fmt.Errorf("%w: %s", ErrConflict, o.OrderNo)
		}
		metrics.WriteFailures.WithLabelValues("create").Inc()
		return err
	}
}

func (r *Repo) create(ctx context.Context, o *Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (order_no, customer_id, user_id, status, placed_at, delivered_at,
		                    subtotal, tax, discount, shipping_fee, total, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`, o.OrderNo, o.CustomerID, o.UserID, string(o.Status), o.PlacedAt, o.DeliveredAt,
		o.Subtotal, o.Tax, o.Discount, o.ShippingFee, o.Total, o.Notes)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertChildren(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update переписывает шапку заказа и заменяет детей целиком:
// все существующие позиции/оплаты/отгрузки удаляются и вставляются заново.
func (r *Repo) Update(ctx context.Context, o *Order) error {
	if o.ID == 0 {
		return fmt.Errorf("order id is required")
	}
	if err := o.Validate(); err != nil {
		return err
	}
	CalculateTotals(o)

	if err := r.update(ctx, o); err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.WriteFailures.WithLabelValues("update").Inc()
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, o.OrderNo)
		}
		return err
	}
	metrics.OrdersWritten.WithLabelValues("update").Inc()
	return nil
}

func (r *Repo) update(ctx context.Context, o *Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET order_no=$2, customer_id=$3, user_id=$4, status=$5, placed_at=$6, delivered_at=$7,
		    subtotal=$8, tax=$9, discount=$10, shipping_fee=$11, total=$12, notes=$13,
		    updated_at=now()
		WHERE id=$1
	`, o.ID, o.OrderNo, o.CustomerID, o.UserID, string(o.Status), o.PlacedAt, o.DeliveredAt,
		o.Subtotal, o.Tax, o.Discount, o.ShippingFee, o.Total, o.Notes)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, q := range []string{
		`DELETE FROM order_items WHERE order_id = $1`,
		`DELETE FROM payments WHERE order_id = $1`,
		`DELETE FROM shipments WHERE order_id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, o.ID); err != nil {
			return fmt.Errorf("replace children: %w", err)
		}
	}

	if err := insertChildren(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete удаляет шапку; дети уходят каскадом по внешним ключам.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		metrics.WriteFailures.WithLabelValues("delete").Inc()
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	metrics.OrdersWritten.WithLabelValues("delete").Inc()
	return nil
}

func insertChildren(ctx context.Context, tx pgx.Tx, o *Order) error {
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, sku, unit_price, quantity, discount, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, o.ID, it.ProductID, it.ProductName, it.SKU, it.UnitPrice, it.Quantity, it.Discount, it.LineTotal); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	for i := range o.Payments {
		p := &o.Payments[i]
		p.OrderID = o.ID
		if p.PaidAt.IsZero() {
			p.PaidAt = time.Now()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (order_id, amount, method, reference, paid_at)
			VALUES ($1,$2,$3,$4,$5)
		`, o.ID, p.Amount, string(p.Method), p.Reference, p.PaidAt); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}
	for i := range o.Shipments {
		s := &o.Shipments[i]
		s.OrderID = o.ID
		if s.Status == "" {
			s.Status = ShipPending
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO shipments (order_id, provider, tracking_number, shipped_at, delivered_at, status)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, o.ID, s.Provider, s.TrackingNumber, s.ShippedAt, s.DeliveredAt, string(s.Status)); err != nil {
			return fmt.Errorf("insert shipment: %w", err)
		}
	}
	return nil
}

const orderCols = `id, order_no, customer_id, user_id, status, placed_at, delivered_at,
	subtotal, tax, discount, shipping_fee, total, notes, created_at, updated_at`

// GetByID собирает агрегат для отображения: шапка, клиент (если задан),
// позиции, оплаты, отгрузки — отдельными запросами, без транзакции.
func (r *Repo) GetByID(ctx context.Context, id int64) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != nil {
		c, err := r.customers.GetByID(ctx, *o.CustomerID)
		if err != nil && !errors.Is(err, customers.ErrNotFound) {
			return nil, err
		}
		o.Customer = c
	}

	if o.Items, err = r.itemsByOrder(ctx, id); err != nil {
		return nil, err
	}
	if o.Payments, err = r.paymentsByOrder(ctx, id); err != nil {
		return nil, err
	}
	if o.Shipments, err = r.shipmentsByOrder(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) GetByNumber(ctx context.Context, orderNo string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT id FROM orders WHERE order_no = $1`, orderNo)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Search ищет по номеру заказа, примечаниям и имени клиента. Возвращает
// только шапки, без детей.
func (r *Repo) Search(ctx context.Context, q string) ([]Order, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"

	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.order_no, o.customer_id, o.user_id, o.status, o.placed_at, o.delivered_at,
		       o.subtotal, o.tax, o.discount, o.shipping_fee, o.total, o.notes, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE LOWER(o.order_no) LIKE $1 OR LOWER(o.notes) LIKE $1 OR LOWER(c.name) LIKE $1
		ORDER BY o.placed_at DESC
	`, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *Repo) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q", status)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderCols+` FROM orders WHERE status = $1 ORDER BY placed_at DESC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.CustomerID, &o.UserID, &o.Status, &o.PlacedAt, &o.DeliveredAt,
		&o.Subtotal, &o.Tax, &o.Discount, &o.ShippingFee, &o.Total, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNo, &o.CustomerID, &o.UserID, &o.Status, &o.PlacedAt, &o.DeliveredAt,
			&o.Subtotal, &o.Tax, &o.Discount, &o.ShippingFee, &o.Total, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) itemsByOrder(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, sku, unit_price, quantity, discount, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SKU,
			&it.UnitPrice, &it.Quantity, &it.Discount, &it.LineTotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) paymentsByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, amount, method, reference, paid_at
		FROM payments WHERE order_id = $1 ORDER BY paid_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) shipmentsByOrder(ctx context.Context, orderID int64) ([]Shipment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, provider, tracking_number, shipped_at, delivered_at, status
		FROM shipments WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Shipment
	for rows.Next() {
		var s Shipment
		if err := rows.Scan(&s.ID, &s.OrderID, &s.Provider, &s.TrackingNumber,
			&s.ShippedAt, &s.DeliveredAt, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
