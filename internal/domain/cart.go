package domain

import "github.com/shopspring/decimal"

type CheckoutStatus string

const (
	CheckoutSuccess CheckoutStatus = "success"
)

type CartItem struct {
	ID       int64    `json:"id"`
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// Subtotal is price * quantity. An item whose product is missing counts as zero.
func (it CartItem) Subtotal() decimal.Decimal {
	if it.Product == nil {
		return decimal.Zero
	}
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func (it CartItem) ProductName() string {
	if it.Product == nil {
		return ""
	}
	return it.Product.Name
}

// CartTotal sums the subtotals of items. It is always derived from the list
// being displayed and never stored.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type CheckoutResult struct {
	Status CheckoutStatus `json:"status"`
}

func (r CheckoutResult) Succeeded() bool {
	return r.Status == CheckoutSuccess
}

type LoginResult struct {
	Token string `json:"token"`
}

// Ack is a success acknowledgment. Message is optional; Raw keeps whatever the
// server sent.
type Ack struct {
	Message string
	Raw     map[string]any
}
