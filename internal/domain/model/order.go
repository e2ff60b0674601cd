package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Next returns the only status an order may move to from s.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusProcessing, true
	case OrderStatusProcessing:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered:
		return true
	}
	return false
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string          `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_orders_user_idempotency" json:"userId"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Status          OrderStatus     `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	DeliveryAddress string          `gorm:"type:text;not null" json:"deliveryAddress"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
