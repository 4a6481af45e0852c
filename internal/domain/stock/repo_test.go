package stock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/domain/products"
)

type fakeAlerter struct {
	calls int
	sku   string
	qty   int64
}

func (f *fakeAlerter) Notify(_, sku string, qty, _ int64) {
	f.calls++
	f.sku = sku
	f.qty = qty
}

func newTestRepo(t *testing.T, alerts Alerter) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepo(mock, log, products.NewRepo(mock), alerts), mock
}

func stockRows(qty, reorder int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"name", "sku", "stock_quantity", "reorder_level"}).
		AddRow("Кофе зерновой", "SKU-7", qty, reorder)
}

func TestRecordAppliesDeltaInOneTx(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WithArgs(int64(7), int64(-3), "sale", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(-3)).
		WillReturnRows(stockRows(7, 0))
	mock.ExpectCommit()

	m := &Movement{ProductID: 7, ChangeQty: -3, Kind: KindSale}
	require.NoError(t, r.Record(context.Background(), m))
	require.Equal(t, int64(1), m.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRollsBackWhenProductMissing(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(99), int64(5)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	m := &Movement{ProductID: 99, ChangeQty: 5, Kind: KindPurchase}
	err := r.Record(context.Background(), m)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRejectsInvalidMovement(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	// валидация до любого SQL
	require.Error(t, r.Record(context.Background(), &Movement{ProductID: 7, ChangeQty: 0, Kind: KindSale}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFiresLowStockAlert(t *testing.T) {
	alerts := &fakeAlerter{}
	r, mock := newTestRepo(t, alerts)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), time.Now()))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(-3)).
		WillReturnRows(stockRows(2, 5))
	mock.ExpectCommit()

	require.NoError(t, r.Record(context.Background(), &Movement{ProductID: 7, ChangeQty: -3, Kind: KindSale}))
	require.Equal(t, 1, alerts.calls)
	require.Equal(t, "SKU-7", alerts.sku)
	require.Equal(t, int64(2), alerts.qty)
}

func TestUpdateAppliesDifferenceOnly(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	// -3 -> -5: остаток двигается ещё на -2, а не на -5 заново
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, change_qty FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "change_qty"}).AddRow(int64(7), int64(-3)))
	mock.ExpectExec(`UPDATE inventory_movements`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(-2)).
		WillReturnRows(stockRows(5, 0))
	mock.ExpectCommit()

	m := &Movement{ID: 1, ProductID: 7, ChangeQty: -5, Kind: KindSale}
	require.NoError(t, r.Update(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReversesOldProductWhenChanged(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, change_qty FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "change_qty"}).AddRow(int64(7), int64(-3)))
	mock.ExpectExec(`UPDATE inventory_movements`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(stockRows(10, 0))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(9), int64(4)).
		WillReturnRows(stockRows(4, 0))
	mock.ExpectCommit()

	m := &Movement{ID: 1, ProductID: 9, ChangeQty: 4, Kind: KindAdjustment}
	require.NoError(t, r.Update(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownMovement(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, change_qty FROM inventory_movements`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := r.Update(context.Background(), &Movement{ID: 42, ProductID: 7, ChangeQty: 1, Kind: KindReturn})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReversesEffect(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	// удаление движения -3 возвращает остатку +3
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, change_qty FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "change_qty"}).AddRow(int64(7), int64(-3)))
	mock.ExpectExec(`DELETE FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(stockRows(10, 0))
	mock.ExpectCommit()

	require.NoError(t, r.Delete(context.Background(), 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRollsBackOnStockFailure(t *testing.T) {
	r, mock := newTestRepo(t, nil)

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, change_qty FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "change_qty"}).AddRow(int64(7), int64(-3)))
	mock.ExpectExec(`DELETE FROM inventory_movements`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`UPDATE products`).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := r.Delete(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
