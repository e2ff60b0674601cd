package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	repo "creditmart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxDeliveryAddressLen = 500
	maxIdempotencyKeyLen  = 255
)

type OrderUsecase struct {
	tx      repo.TransactionManager
	cache   CartCache
	metrics OrderMetrics
}

func NewOrderUsecase(tx repo.TransactionManager, cache CartCache, metrics OrderMetrics) *OrderUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &OrderUsecase{tx: tx, cache: cache, metrics: metrics}
}

type PlaceOrderInput struct {
	DeliveryAddress string
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          string            `json:"userId"`
	Status          model.OrderStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	DeliveryAddress string            `json:"deliveryAddress"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	Items           []OrderItemOutput `json:"items"`
}

// PlaceOrder converts the cart into an order and debits the credit line in one transaction.
// Either everything commits or nothing does.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}
	address := strings.TrimSpace(in.DeliveryAddress)
	if address == "" || utf8.RuneCountInString(address) > maxDeliveryAddressLen {
		u.metrics.OrderPlacementFailed("validation")
		return OrderOutput{}, NewValidationError("deliveryAddress is required (max 500 characters)")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		u.metrics.OrderPlacementFailed("validation")
		return OrderOutput{}, NewValidationError("invalid idempotency key")
	}

	var (
		out      OrderOutput
		replayed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果（再課金しない）
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return NewStorageError(err)
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return NewStorageError(err)
				}
				out = toOrderOutput(existing, items)
				replayed = true
				return nil
			}
		}

		lines, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewStorageError(err)
		}
		if len(lines) == 0 {
			return NewEmptyCartError()
		}

		// 価格は今この時点のものを確定させる
		total := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(lines))
		lineIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			if line.Product.ID == 0 {
				return NewValidationError("a product in your cart is no longer available")
			}
			if !line.Product.InStock {
				return NewValidationError(line.Product.Name + " is out of stock")
			}

			item := model.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Quantity:    line.Quantity,
				Price:       line.Product.Price,
			}
			orderItems = append(orderItems, item)
			lineIDs = append(lineIDs, line.ID)
			total = total.Add(item.Subtotal())
		}

		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewUnauthorizedError("unauthorized")
		}
		if err != nil {
			return NewStorageError(err)
		}
		if !user.CanAfford(total) {
			return NewInsufficientCreditError()
		}

		order := model.Order{
			UserID:          userID,
			TotalAmount:     total,
			Status:          model.OrderStatusPending,
			DeliveryAddress: address,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// 同じキーで同時に来た。もう片方が勝ったのでリトライで既存注文が返る
				return NewConflictError("order with this idempotency key is being processed")
			}
			return NewStorageError(err)
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewStorageError(err)
		}

		// 残高チェックと減算は1文で
		ok, err := r.Users().DebitCredit(ctx, userID, total)
		if err != nil {
			if errors.Is(err, repo.ErrConstraint) {
				return NewInsufficientCreditError()
			}
			return NewStorageError(err)
		}
		if !ok {
			return NewInsufficientCreditError()
		}

		// 読んだ行だけ消す（途中で追加された行はカートに残る）
		if _, err := r.CartItems().DeleteByIDs(ctx, userID, lineIDs); err != nil {
			return NewStorageError(err)
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		u.metrics.OrderPlacementFailed(failureReason(err))
		return OrderOutput{}, err
	}
	if replayed {
		logging.FromContext(ctx).Info("order replayed",
			zap.Int64("order_id", out.ID),
			zap.String("user_id", userID),
		)
		return out, nil
	}

	if u.cache != nil {
		if err := u.cache.Delete(ctx, userID); err != nil {
			logging.FromContext(ctx).Warn("cart cache delete failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	u.metrics.OrderPlaced(out.TotalAmount)
	logging.FromContext(ctx).Info("order placed",
		zap.Int64("order_id", out.ID),
		zap.String("user_id", userID),
		zap.String("total", out.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(out.Items)),
	)
	return out, nil
}

// 新しい順
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	if userID == "" {
		return []OrderOutput{}, NewUnauthorizedError("unauthorized")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return NewStorageError(err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewStorageError(err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID string, orderID int64) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return NewStorageError(err)
		}
		// 他人の注文は存在しない扱い
		if o.UserID != userID {
			return NewNotFoundError("order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewStorageError(err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientCredit):
		return "insufficient_credit"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "storage"
	}
}
