package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. The admin panel calls these "food items".
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_products_price,price >= 0" json:"price"`
	ImageURL    string          `gorm:"column:image_url;type:varchar(512)" json:"imageUrl"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	InStock     bool            `gorm:"not null;index" json:"inStock"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
