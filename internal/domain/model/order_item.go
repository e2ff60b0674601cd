package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem freezes a cart line at checkout. Later catalog price changes do not touch it.
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"orderId"`
	ProductID   int64           `gorm:"not null;index" json:"productId"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"productName"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// Subtotal is price × quantity.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}
