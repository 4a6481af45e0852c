package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const defaultNumberPrefix = "SO"

// NewNumber генерирует номер заказа вида SO-20250901-0412.
// Суффикс случайный, уникальность обеспечивает констрейнт на orders.order_no
// плюс повторная генерация при конфликте в Create.
func NewNumber(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), rand.IntN(10000))
}
