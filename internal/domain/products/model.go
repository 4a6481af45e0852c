package products

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64
	SKU           string
	Name          string
	CategoryID    *int64
	SupplierID    *int64
	Price         decimal.Decimal
	Cost          decimal.Decimal
	StockQuantity int64
	ReorderLevel  int64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price must be >= 0")
	}
	if p.Cost.IsNegative() {
		return fmt.Errorf("cost must be >= 0")
	}
	if p.ReorderLevel < 0 {
		return fmt.Errorf("reorder level must be >= 0")
	}
	return nil
}
