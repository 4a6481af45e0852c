package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pos-backend/internal/domain/customers"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusShipped,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PayCash         PaymentMethod = "cash"
	PayCard         PaymentMethod = "card"
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayWallet       PaymentMethod = "wallet"
	PayOther        PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayBankTransfer, PayWallet, PayOther:
		return true
	}
	return false
}

type ShipmentStatus string

const (
	ShipPending   ShipmentStatus = "pending"
	ShipShipped   ShipmentStatus = "shipped"
	ShipInTransit ShipmentStatus = "in_transit"
	ShipDelivered ShipmentStatus = "delivered"
	ShipReturned  ShipmentStatus = "returned"
	ShipCancelled ShipmentStatus = "cancelled"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipPending, ShipShipped, ShipInTransit, ShipDelivered,
		ShipReturned, ShipCancelled:
		return true
	}
	return false
}

// Order — агрегат: шапка заказа плюс позиции, оплаты и отгрузки.
// Пишется и переписывается одной транзакцией.
type Order struct {
	ID          int64
	OrderNo     string
	CustomerID  *int64
	UserID      *int64
	Status      Status
	PlacedAt    time.Time
	DeliveredAt *time.Time
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items     []Item
	Payments  []Payment
	Shipments []Shipment

	// Customer заполняется только на чтении (GetByID).
	Customer *customers.Customer
}

// Item денормализует product_name/sku/unit_price на момент продажи,
// чтобы история заказов не менялась вместе с карточкой товара.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   *int64
	ProductName string
	SKU         string
	UnitPrice   decimal.Decimal
	Quantity    int64
	Discount    decimal.Decimal
	LineTotal   decimal.Decimal
}

type Payment struct {
	ID        int64
	OrderID   int64
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference string
	PaidAt    time.Time
}

type Shipment struct {
	ID             int64
	OrderID        int64
	Provider       string
	TrackingNumber string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	Status         ShipmentStatus
}

func (o *Order) Validate() error {
	if o.Status != "" && !o.Status.Valid() {
		return fmt.Errorf("unknown order status %q", o.Status)
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be > 0", i+1)
		}
		if it.Discount.IsNegative() {
			return fmt.Errorf("item %d: discount must be >= 0", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must be >= 0", i+1)
		}
	}
	for i := range o.Payments {
		p := &o.Payments[i]
		if !p.Method.Valid() {
			return fmt.Errorf("payment %d: unknown method %q", i+1, p.Method)
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("payment %d: amount must be >= 0", i+1)
		}
	}
	for i := range o.Shipments {
		if s := o.Shipments[i].Status; s != "" && !s.Valid() {
			return fmt.Errorf("shipment %d: unknown status %q", i+1, s)
		}
	}
	return nil
}
