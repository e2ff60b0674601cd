package repository

import (
	"context"
	"time"

	"creditmart/internal/domain/model"

	"github.com/shopspring/decimal"
)

// UserRepository persists users and their credit line.
// Credit columns are only ever changed through relative updates evaluated by the database.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	UpdateProfile(ctx context.Context, userID string, phoneNumber string, ippisNumber string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	//token_version + 1
	IncrementTokenVersion(ctx context.Context, userID string) error

	// DebitCredit moves amount from available to used credit.
	// It returns false without changing anything when available credit is lower than amount.
	DebitCredit(ctx context.Context, userID string, amount decimal.Decimal) (bool, error)

	// SetCreditLimit changes the ceiling and recomputes available credit from used credit.
	// It returns false when the new limit is below the outstanding used credit.
	SetCreditLimit(ctx context.Context, userID string, limit decimal.Decimal) (bool, error)
}
