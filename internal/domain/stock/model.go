package stock

import (
	"fmt"
	"time"

	"pos-backend/internal/domain/products"
)

type Kind string

const (
	KindPurchase   Kind = "purchase"
	KindSale       Kind = "sale"
	KindAdjustment Kind = "adjustment"
	KindReturn     Kind = "return"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindSale, KindAdjustment, KindReturn:
		return true
	}
	return false
}

// Movement — строка журнала движений. Журнал append-only; правка и удаление
// существуют, но обязаны компенсировать счётчик остатка (см. Repo).
// change_qty подписан: плюс — приход, минус — расход.
type Movement struct {
	ID            int64
	ProductID     int64
	ChangeQty     int64
	Kind          Kind
	ReferenceType string
	ReferenceID   *int64
	Note          string
	CreatedBy     *int64
	CreatedAt     time.Time

	// Product заполняется только на чтении (GetByID).
	Product *products.Product
}

func (m *Movement) Validate() error {
	if m.ProductID <= 0 {
		return fmt.Errorf("product id is required")
	}
	if m.ChangeQty == 0 {
		return fmt.Errorf("change qty must not be zero")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("unknown movement kind %q", m.Kind)
	}
	return nil
}

// JournalEntry — движение с данными товара, для журналов и отчёта.
type JournalEntry struct {
	Movement
	ProductName string
	ProductSKU  string
}
