package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	repo "creditmart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// numeric(12,2) の上限
var maxPrice = decimal.New(1, 10)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
	}
}

// GET /api/products の入力
type ListProductsInput struct {
	Category string
	Q        string
}

// 在庫ありだけを名前順で返す
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	if utf8.RuneCountInString(in.Q) > 100 {
		return nil, NewValidationError("q too long")
	}
	if utf8.RuneCountInString(in.Category) > 100 {
		return nil, NewValidationError("category too long")
	}

	items, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Category: strings.TrimSpace(in.Category),
		Q:        strings.TrimSpace(in.Q),
	})
	if err != nil {
		return nil, NewStorageError(err)
	}
	return items, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return model.Product{}, NewStorageError(err)
	}
	return p, nil
}

// 管理画面の food item 入力
type FoodItemInput struct {
	Name        string
	Description string
	Price       string
	ImageURL    string
	Category    string
	InStock     *bool
}

func (in FoodItemInput) toProduct() (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewValidationError("name required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return model.Product{}, NewValidationError("name too long")
	}
	category := strings.TrimSpace(in.Category)
	if utf8.RuneCountInString(category) > 100 {
		return model.Product{}, NewValidationError("category too long")
	}
	if utf8.RuneCountInString(in.ImageURL) > 512 {
		return model.Product{}, NewValidationError("imageUrl too long")
	}

	price, err := ParsePrice(in.Price)
	if err != nil {
		return model.Product{}, err
	}

	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	return model.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Category:    category,
		InStock:     inStock,
	}, nil
}

// ParsePrice accepts a non-negative decimal string with at most two decimals.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("price required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("price must be a decimal string")
	}
	if d.IsNegative() {
		return decimal.Zero, NewValidationError("price must be >= 0")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, NewValidationError("price must have at most 2 decimals")
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, NewValidationError("price too large")
	}
	return d, nil
}

// 在庫切れも含めて全部
func (u *ProductUsecase) AdminListFoodItems(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Category:          strings.TrimSpace(in.Category),
		Q:                 strings.TrimSpace(in.Q),
		IncludeOutOfStock: true,
	})
	if err != nil {
		return nil, NewStorageError(err)
	}
	return items, nil
}

func (u *ProductUsecase) AdminCreateFoodItem(ctx context.Context, adminUserID string, in FoodItemInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, NewUnauthorizedError("unauthorized")
	}
	p, err := in.toProduct()
	if err != nil {
		return model.Product{}, err
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		if errors.Is(err, repo.ErrConstraint) {
			return model.Product{}, NewValidationError("invalid food item")
		}
		return model.Product{}, NewStorageError(err)
	}

	logging.FromContext(ctx).Info("food item created",
		zap.Int64("product_id", created.ID),
		zap.String("actor_user_id", adminUserID),
	)
	return created, nil
}

// 価格変更は既存注文に影響しない（order_items に確定済み）
func (u *ProductUsecase) AdminUpdateFoodItem(ctx context.Context, adminUserID string, productID int64, in FoodItemInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, NewUnauthorizedError("unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id")
	}
	p, err := in.toProduct()
	if err != nil {
		return model.Product{}, err
	}
	p.ID = productID

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("food item not found")
		}
		if err != nil {
			return NewStorageError(err)
		}

		if err := r.Products().Update(ctx, p); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("food item not found")
			}
			return NewStorageError(err)
		}

		updated, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return NewStorageError(err)
		}

		// 監査ログ（同じトランザクション）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   strconv.FormatInt(productID, 10),
			BeforeJSON:   productAuditJSON(before),
			AfterJSON:    productAuditJSON(updated),
		}); err != nil {
			return NewStorageError(err)
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

func (u *ProductUsecase) AdminDeleteFoodItem(ctx context.Context, adminUserID string, productID int64) error {
	if adminUserID == "" {
		return NewUnauthorizedError("unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("food item not found")
		}
		if err != nil {
			return NewStorageError(err)
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("food item not found")
			}
			return NewStorageError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   strconv.FormatInt(productID, 10),
			BeforeJSON:   productAuditJSON(before),
			AfterJSON:    "{}",
		}); err != nil {
			return NewStorageError(err)
		}
		return nil
	})
}

func productAuditJSON(p model.Product) string {
	b, err := json.Marshal(map[string]any{
		"name":     p.Name,
		"price":    p.Price,
		"category": p.Category,
		"inStock":  p.InStock,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}
