package usecase

import (
	"context"
	"errors"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	repo "creditmart/internal/repository"

	"go.uber.org/zap"
)

const maxCartQuantity = 999

// CartUsecase は /api/cart の業務ロジック
type CartUsecase struct {
	items    repo.CartItemRepository
	products repo.ProductRepository
	cache    CartCache
	metrics  CartMetrics
}

func NewCartUsecase(
	items repo.CartItemRepository,
	products repo.ProductRepository,
	cache CartCache,
	metrics CartMetrics,
) *CartUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &CartUsecase{
		items:    items,
		products: products,
		cache:    cache,
		metrics:  metrics,
	}
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart は明細をキャッシュから読み、価格は毎回いまの商品行から付ける
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	if userID == "" {
		return model.Cart{}, NewUnauthorizedError("unauthorized")
	}

	if u.cache != nil {
		lines, err := u.cache.Get(ctx, userID)
		if err == nil {
			u.metrics.CartCacheResult("hit")
			if err := u.attachProducts(ctx, lines); err != nil {
				return model.Cart{}, NewStorageError(err)
			}
			return model.NewCart(userID, lines), nil
		}
		u.metrics.CartCacheResult("miss")
	}

	items, err := u.items.ListByUserID(ctx, userID)
	if err != nil {
		return model.Cart{}, NewStorageError(err)
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, userID, items); err != nil {
			u.metrics.CartCacheResult("error")
			logging.FromContext(ctx).Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return model.NewCart(userID, items), nil
}

// 削除済み商品は見つからないのでゼロ値のまま（NewCartで除外）
func (u *CartUsecase) attachProducts(ctx context.Context, lines []model.CartItem) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for i := range lines {
		lines[i].Product = byID[lines[i].ProductID]
	}
	return nil
}

// AddToCart はカートに追加（同一商品は数量加算）
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (model.Cart, error) {
	if userID == "" {
		return model.Cart{}, NewUnauthorizedError("unauthorized")
	}
	if in.ProductID <= 0 {
		return model.Cart{}, NewValidationError("invalid productId")
	}
	if in.Quantity < 1 || in.Quantity > maxCartQuantity {
		return model.Cart{}, NewValidationError("quantity must be between 1 and 999")
	}

	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return model.Cart{}, NewStorageError(err)
	}
	if !p.InStock {
		return model.Cart{}, NewValidationError("product is out of stock")
	}

	if err := u.items.AddOrIncrement(ctx, userID, in.ProductID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrConstraint) {
			return model.Cart{}, NewValidationError("invalid cart item")
		}
		return model.Cart{}, NewStorageError(err)
	}

	u.invalidate(ctx, userID)
	return u.GetCart(ctx, userID)
}

// 数量変更（他人の明細は404）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID string, cartItemID int64, in UpdateCartItemInput) (model.Cart, error) {
	if userID == "" {
		return model.Cart{}, NewUnauthorizedError("unauthorized")
	}
	if cartItemID <= 0 {
		return model.Cart{}, NewValidationError("invalid id")
	}
	if in.Quantity < 1 || in.Quantity > maxCartQuantity {
		return model.Cart{}, NewValidationError("invalid quantity")
	}

	if err := u.items.UpdateQuantity(ctx, userID, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Cart{}, NewNotFoundError("cart item not found")
		}
		return model.Cart{}, NewStorageError(err)
	}

	u.invalidate(ctx, userID)
	return u.GetCart(ctx, userID)
}

// 明細削除。無くてもエラーにしない
func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID string, cartItemID int64) (model.Cart, error) {
	if userID == "" {
		return model.Cart{}, NewUnauthorizedError("unauthorized")
	}
	if cartItemID <= 0 {
		return model.Cart{}, NewValidationError("invalid id")
	}

	if err := u.items.DeleteByID(ctx, userID, cartItemID); err != nil {
		return model.Cart{}, NewStorageError(err)
	}

	u.invalidate(ctx, userID)
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) invalidate(ctx context.Context, userID string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, userID); err != nil {
		u.metrics.CartCacheResult("error")
		logging.FromContext(ctx).Warn("cart cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}
}
