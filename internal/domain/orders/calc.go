package orders

import "github.com/shopspring/decimal"

// CalculateTotals пересчитывает line_total каждой позиции, затем subtotal
// и total заказа. Вызывается перед каждой записью агрегата. Идемпотентна.
//
// line_total позиции не бывает отрицательным, а вот total заказа — может:
// скидка уровня заказа вычитается без ограничения снизу.
func CalculateTotals(o *Order) {
	subtotal := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		lt := it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)).Sub(it.Discount)
		if lt.IsNegative() {
			lt = decimal.Zero
		}
		it.LineTotal = lt
		subtotal = subtotal.Add(lt)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.Tax).Sub(o.Discount).Add(o.ShippingFee)
}
