package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	repo "creditmart/internal/repository"

	"go.uber.org/zap"
)

type AdminUserUsecase struct {
	tx        repo.TransactionManager
	auditLogs repo.AuditLogRepository
}

func NewAdminUserUsecase(tx repo.TransactionManager, auditLogs repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, auditLogs: auditLogs}
}

type SetCreditLimitInput struct {
	CreditLimit string
}

// SetCreditLimit changes a shopper's ceiling. Available credit follows: limit - used.
func (u *AdminUserUsecase) SetCreditLimit(ctx context.Context, actorAdminUserID string, userID string, in SetCreditLimitInput) (*model.User, error) {
	if actorAdminUserID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, NewValidationError("invalid user id")
	}
	limit, err := ParsePrice(in.CreditLimit)
	if err != nil {
		return nil, NewValidationError("creditLimit must be a non-negative amount with at most 2 decimals")
	}

	var updated *model.User
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("user not found")
		}
		if err != nil {
			return NewStorageError(err)
		}

		ok, err := r.Users().SetCreditLimit(ctx, userID, limit)
		if err != nil {
			return NewStorageError(err)
		}
		if !ok {
			return NewValidationError("credit limit cannot be lower than used credit")
		}

		updated, err = r.Users().FindByID(ctx, userID)
		if err != nil {
			return NewStorageError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateCreditLimit,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   creditAuditJSON(before),
			AfterJSON:    creditAuditJSON(updated),
		}); err != nil {
			return NewStorageError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("credit limit updated",
		zap.String("user_id", userID),
		zap.String("credit_limit", updated.CreditLimit.StringFixed(2)),
		zap.String("actor_user_id", actorAdminUserID),
	)
	return updated, nil
}

// 監査ログ一覧の入力（日時はRFC3339）
type ListAuditLogsInput struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	From         string
	To           string
	Limit        int
	Offset       int
}

func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewValidationError("invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewValidationError("invalid offset")
	}

	f := repo.AuditLogFilter{
		ActorUserID:  strings.TrimSpace(in.ActorUserID),
		Action:       model.AuditAction(strings.TrimSpace(in.Action)),
		ResourceType: model.AuditResourceType(strings.TrimSpace(in.ResourceType)),
		ResourceID:   strings.TrimSpace(in.ResourceID),
		Limit:        in.Limit,
		Offset:       in.Offset,
	}

	var ok bool
	if f.CreatedFrom, ok = parseDateTimeRFC3339(in.From); !ok && in.From != "" {
		return nil, NewValidationError("from must be RFC3339")
	}
	if f.CreatedTo, ok = parseDateTimeRFC3339(in.To); !ok && in.To != "" {
		return nil, NewValidationError("to must be RFC3339")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewValidationError("from must be before to")
	}

	logs, err := u.auditLogs.List(ctx, f)
	if err != nil {
		return nil, NewStorageError(err)
	}
	return logs, nil
}

func creditAuditJSON(u *model.User) string {
	b, err := json.Marshal(map[string]any{
		"creditLimit":     u.CreditLimit,
		"availableCredit": u.AvailableCredit,
		"usedCredit":      u.UsedCredit,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

// 期間パラメータ
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return &t, true
}
