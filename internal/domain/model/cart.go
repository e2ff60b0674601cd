package model

import "github.com/shopspring/decimal"

// Cart is the read model served by GET /api/cart. It is never persisted as a row.
type Cart struct {
	UserID string          `json:"userId"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// NewCart prices the lines with the current catalog price.
// Lines whose product was deleted are left out. Out-of-stock lines stay
// visible (product.inStock=false) but are not counted in Total.
func NewCart(userID string, items []CartItem) Cart {
	lines := make([]CartItem, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if it.Product.ID == 0 {
			continue
		}
		lines = append(lines, it)
		if !it.Product.InStock {
			continue
		}
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return Cart{UserID: userID, Items: lines, Total: total}
}
