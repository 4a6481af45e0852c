package stock

// delta — одно изменение счётчика остатка конкретного товара.
type delta struct {
	productID int64
	change    int64
}

// replaceDeltas считает компенсирующие изменения счётчиков при правке
// движения: тот же товар — применяем разницу new−old, товар сменился —
// откатываем старый на −old и двигаем новый на +new.
func replaceDeltas(oldProductID, oldQty, newProductID, newQty int64) []delta {
	if oldProductID == newProductID {
		d := newQty - oldQty
		if d == 0 {
			return nil
		}
		return []delta{{productID: oldProductID, change: d}}
	}
	return []delta{
		{productID: oldProductID, change: -oldQty},
		{productID: newProductID, change: newQty},
	}
}
