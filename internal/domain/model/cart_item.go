package model

import "time"

// CartItem is one (user, product) line of a shopper's cart.
// Price is not stored here: it is captured from the catalog at checkout.
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_items_user_product" json:"userId"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"productId"`
	Quantity  int64     `gorm:"not null;check:chk_cart_items_quantity,quantity > 0" json:"quantity"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
