package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRow — строка реестра заказов за период. Плоская выборка для отчёта.
type RegisterRow struct {
	OrderNo      string
	Status       Status
	PlacedAt     time.Time
	CustomerName string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	ShippingFee  decimal.Decimal
	Total        decimal.Decimal
}

func (r *Repo) Register(ctx context.Context, from, to time.Time) ([]RegisterRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_no, o.status, o.placed_at, COALESCE(c.name,''),
		       o.subtotal, o.tax, o.discount, o.shipping_fee, o.total
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.placed_at >= $1 AND o.placed_at < $2
		ORDER BY o.placed_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var rr RegisterRow
		if err := rows.Scan(&rr.OrderNo, &rr.Status, &rr.PlacedAt, &rr.CustomerName,
			&rr.Subtotal, &rr.Tax, &rr.Discount, &rr.ShippingFee, &rr.Total); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
