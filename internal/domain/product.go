package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
}

// FormatPrice renders an amount the way the storefront displays money: a
// dollar sign and exactly two decimals.
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
