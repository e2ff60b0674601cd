package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	repo "creditmart/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewValidationError("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewValidationError("invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewValidationError("invalid status")
	}

	out := AdminOrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewStorageError(err)
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewStorageError(err)
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// UpdateStatus moves an order one step forward. Re-sending the current status is a no-op.
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID string, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID == "" {
		return OrderOutput{}, NewUnauthorizedError("unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, NewValidationError("invalid status")
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

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewStorageError(err)
			}
			out = toOrderOutput(o, items)
			return nil
		}

		// 前進のみ・1段ずつ
		next, ok := o.Status.Next()
		if !ok || next != newStatus {
			return NewValidationError("cannot change status from " + string(o.Status) + " to " + string(newStatus))
		}

		updated, err := r.Orders().UpdateStatus(ctx, orderID, o.Status, newStatus)
		if err != nil {
			return NewStorageError(err)
		}
		if !updated {
			// 別の管理者が先に更新した
			return NewConflictError("order status changed concurrently")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   strconv.FormatInt(orderID, 10),
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
		}); err != nil {
			return NewStorageError(err)
		}

		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewStorageError(err)
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

	logging.FromContext(ctx).Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(out.Status)),
		zap.String("actor_user_id", actorAdminUserID),
	)
	return out, nil
}
