package repository

import (
	"context"

	"creditmart/internal/domain/model"
)

type ProductListQuery struct {
	Category          string
	Q                 string
	IncludeOutOfStock bool
}

// 商品 = food items in the admin panel.
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 削除済みは含めない
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
