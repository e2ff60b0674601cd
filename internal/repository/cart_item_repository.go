package repository

import (
	"context"

	"creditmart/internal/domain/model"
)

type CartItemRepository interface {
	// ListByUserID returns the user's lines with the current product row attached.
	// A line whose product was deleted comes back with a zero Product.
	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)

	// 同一商品はプラス: inserts the line or adds qty to the existing one in a single statement.
	AddOrIncrement(ctx context.Context, userID string, productID int64, qty int64) error

	// UpdateQuantity sets the quantity of a line owned by userID, ErrNotFound otherwise.
	UpdateQuantity(ctx context.Context, userID string, cartItemID int64, qty int64) error

	// DeleteByID removes a line owned by userID. Missing lines are not an error.
	DeleteByID(ctx context.Context, userID string, cartItemID int64) error

	// DeleteByIDs removes exactly the given lines of userID (the ones checkout read).
	DeleteByIDs(ctx context.Context, userID string, ids []int64) (int64, error)
}
