package report

import (
	"bytes"
	"strconv"

	"github.com/xuri/excelize/v2"

	"pos-backend/internal/domain/orders"
	"pos-backend/internal/domain/stock"
)

const timeLayout = "2006-01-02 15:04:05"

func writeSheet(f *excelize.File, header []interface{}, rows [][]interface{}) error {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// BuildMovements собирает журнал движений склада в xlsx.
func BuildMovements(entries []stock.JournalEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := []interface{}{
		"id", "created_at", "sku", "product", "kind", "change_qty", "reference", "note",
	}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		ref := e.ReferenceType
		if e.ReferenceID != nil {
			ref = refString(e.ReferenceType, *e.ReferenceID)
		}
		rows = append(rows, []interface{}{
			e.ID,
			e.CreatedAt.Format(timeLayout),
			e.ProductSKU,
			e.ProductName,
			string(e.Kind),
			e.ChangeQty,
			ref,
			e.Note,
		})
	}
	if err := writeSheet(f, header, rows); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildOrders собирает реестр заказов за период в xlsx.
func BuildOrders(rows []orders.RegisterRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := []interface{}{
		"order_no", "status", "placed_at", "customer",
		"subtotal", "tax", "discount", "shipping_fee", "total",
	}
	data := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		data = append(data, []interface{}{
			r.OrderNo,
			string(r.Status),
			r.PlacedAt.Format(timeLayout),
			r.CustomerName,
			r.Subtotal.String(),
			r.Tax.String(),
			r.Discount.String(),
			r.ShippingFee.String(),
			r.Total.String(),
		})
	}
	if err := writeSheet(f, header, data); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func refString(t string, id int64) string {
	if t == "" {
		return strconv.FormatInt(id, 10)
	}
	return t + "#" + strconv.FormatInt(id, 10)
}
