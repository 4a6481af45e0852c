package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderValidate(t *testing.T) {
	ok := &Order{
		Status: StatusPending,
		Items: []Item{
			{ProductName: "Coffee", UnitPrice: dec("100"), Quantity: 2},
		},
		Payments:  []Payment{{Amount: dec("200"), Method: PayCard}},
		Shipments: []Shipment{{Provider: "CDEK", Status: ShipPending}},
	}
	require.NoError(t, ok.Validate())

	cases := []struct {
		name  string
		order Order
	}{
		{"unknown status", Order{Status: "opened"}},
		{"zero quantity", Order{Items: []Item{{UnitPrice: dec("10"), Quantity: 0}}}},
		{"negative quantity", Order{Items: []Item{{UnitPrice: dec("10"), Quantity: -1}}}},
		{"negative item discount", Order{Items: []Item{{UnitPrice: dec("10"), Quantity: 1, Discount: dec("-1")}}}},
		{"negative unit price", Order{Items: []Item{{UnitPrice: dec("-10"), Quantity: 1}}}},
		{"unknown payment method", Order{Payments: []Payment{{Amount: dec("10"), Method: "crypto"}}}},
		{"negative payment amount", Order{Payments: []Payment{{Amount: dec("-10"), Method: PayCash}}}},
		{"unknown shipment status", Order{Shipments: []Shipment{{Status: "lost"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.order.Validate())
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusPaid, StatusShipped,
		StatusCompleted, StatusCancelled, StatusRefunded} {
		require.True(t, s.Valid(), string(s))
	}
	require.False(t, Status("archived").Valid())
}
