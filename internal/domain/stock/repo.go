package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"pos-backend/internal/domain/products"
	"pos-backend/internal/infra/db"
	"pos-backend/internal/infra/metrics"
)

var (
	ErrNotFound        = errors.New("movement not found")
	ErrProductNotFound = errors.New("movement references unknown product")
)

// Alerter получает сигнал о низком остатке после успешного коммита.
type Alerter interface {
	Notify(name, sku string, qty, reorder int64)
}

// Repo — журнал движений склада. Единственный законный путь изменения
// products.stock_quantity: каждая запись/правка/удаление движения двигает
// счётчик атомарным UPDATE в той же транзакции.
type Repo struct {
	pool     db.PGX
	log      *slog.Logger
	products *products.Repo
	alerts   Alerter
}

func NewRepo(pool db.PGX, log *slog.Logger, prod *products.Repo, alerts Alerter) *Repo {
	return &Repo{pool: pool, log: log, products: prod, alerts: alerts}
}

type stockState struct {
	name    string
	sku     string
	qty     int64
	reorder int64
}

// applyDelta двигает счётчик строго инкрементом, без read-modify-write в
// приложении: параллельные движения по одному товару не теряют обновлений.
func applyDelta(ctx context.Context, tx pgx.Tx, productID, change int64) (stockState, error) {
	var st stockState
	err := tx.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING name, sku, stock_quantity, reorder_level
	`, productID, change).Scan(&st.name, &st.sku, &st.qty, &st.reorder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return st, fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
		}
		return st, fmt.Errorf("apply stock delta: %w", err)
	}
	return st, nil
}

// Record вставляет движение и применяет его change_qty к остатку товара.
// Обе записи коммитятся вместе; нет товара — откат целиком.
func (r *Repo) Record(ctx context.Context, m *Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO inventory_movements (product_id, change_qty, kind, reference_type, reference_id, note, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, m.ProductID, m.ChangeQty, string(m.Kind), m.ReferenceType, m.ReferenceID, m.Note, m.CreatedBy)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_record").Inc()
		return fmt.Errorf("insert movement: %w", err)
	}

	st, err := applyDelta(ctx, tx, m.ProductID, m.ChangeQty)
	if err != nil {
		metrics.WriteFailures.WithLabelValues("movement_record").Inc()
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_record").Inc()
		return err
	}

	metrics.MovementsRecorded.WithLabelValues(string(m.Kind)).Inc()
	r.alertIfLow(st)
	return nil
}

// Update правит движение и компенсирует счётчики: по тому же товару
// применяется разница new−old, при смене товара старый откатывается,
// новый двигается на полный new. Всё в одной транзакции.
func (r *Repo) Update(ctx context.Context, m *Movement) error {
	if m.ID == 0 {
		return fmt.Errorf("movement id is required")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// FOR UPDATE: параллельная правка того же движения считала бы разницу
	// от одного и того же старого значения и задвоила бы компенсацию.
	var oldProductID, oldQty int64
	err = tx.QueryRow(ctx, `
		SELECT product_id, change_qty FROM inventory_movements WHERE id = $1 FOR UPDATE
	`, m.ID).Scan(&oldProductID, &oldQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		metrics.WriteFailures.WithLabelValues("movement_update").Inc()
		return fmt.Errorf("load movement: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE inventory_movements
		SET product_id=$2, change_qty=$3, kind=$4, reference_type=$5, reference_id=$6, note=$7
		WHERE id=$1
	`, m.ID, m.ProductID, m.ChangeQty, string(m.Kind), m.ReferenceType, m.ReferenceID, m.Note); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_update").Inc()
		return fmt.Errorf("update movement: %w", err)
	}

	var low []stockState
	for _, d := range replaceDeltas(oldProductID, oldQty, m.ProductID, m.ChangeQty) {
		st, err := applyDelta(ctx, tx, d.productID, d.change)
		if err != nil {
			metrics.WriteFailures.WithLabelValues("movement_update").Inc()
			return err
		}
		low = append(low, st)
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_update").Inc()
		return err
	}

	for _, st := range low {
		r.alertIfLow(st)
	}
	return nil
}

// Delete удаляет движение и откатывает его эффект на остатке (−change_qty).
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var productID, qty int64
	err = tx.QueryRow(ctx, `
		SELECT product_id, change_qty FROM inventory_movements WHERE id = $1 FOR UPDATE
	`, id).Scan(&productID, &qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		metrics.WriteFailures.WithLabelValues("movement_delete").Inc()
		return fmt.Errorf("load movement: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_movements WHERE id = $1`, id); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_delete").Inc()
		return fmt.Errorf("delete movement: %w", err)
	}
	st, err := applyDelta(ctx, tx, productID, -qty)
	if err != nil {
		metrics.WriteFailures.WithLabelValues("movement_delete").Inc()
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.WriteFailures.WithLabelValues("movement_delete").Inc()
		return err
	}

	r.alertIfLow(st)
	return nil
}

func (r *Repo) alertIfLow(st stockState) {
	if r.alerts == nil {
		return
	}
	if st.qty <= st.reorder {
		r.alerts.Notify(st.name, st.sku, st.qty, st.reorder)
	}
}

const movementCols = `id, product_id, change_qty, kind, reference_type, reference_id, note, created_by, created_at`

// GetByID возвращает движение с подгруженной карточкой товара.
func (r *Repo) GetByID(ctx context.Context, id int64) (*Movement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementCols+` FROM inventory_movements WHERE id = $1`, id)
	var m Movement
	err := row.Scan(&m.ID, &m.ProductID, &m.ChangeQty, &m.Kind, &m.ReferenceType,
		&m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p, err := r.products.GetByID(ctx, m.ProductID)
	if err != nil && !errors.Is(err, products.ErrNotFound) {
		return nil, err
	}
	m.Product = p
	return &m, nil
}

func (r *Repo) ListByProduct(ctx context.Context, productID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+movementCols+` FROM inventory_movements
		WHERE product_id = $1 ORDER BY created_at, id
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ChangeQty, &m.Kind, &m.ReferenceType,
			&m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Journal — движения за период с названиями товаров, для отчёта.
func (r *Repo) Journal(ctx context.Context, from, to time.Time) ([]JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.product_id, m.change_qty, m.kind, m.reference_type, m.reference_id,
		       m.note, m.created_by, m.created_at, p.name, p.sku
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.created_at >= $1 AND m.created_at < $2
		ORDER BY m.created_at, m.id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ChangeQty, &e.Kind, &e.ReferenceType,
			&e.ReferenceID, &e.Note, &e.CreatedBy, &e.CreatedAt, &e.ProductName, &e.ProductSKU); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumByProduct — сумма change_qty по товару. Инвариант журнала: значение
// всегда совпадает с products.stock_quantity.
func (r *Repo) SumByProduct(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(change_qty), 0) FROM inventory_movements WHERE product_id = $1
	`, productID).Scan(&sum)
	return sum, err
}
