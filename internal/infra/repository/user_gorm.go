package repository

import (
	"context"
	"strings"
	"time"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserGormRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

// プロフィールだけ更新する（クレジット列には触らない）
func (r *UserGormRepository) UpdateProfile(ctx context.Context, userID string, phoneNumber string, ippisNumber string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"phone_number": phoneNumber,
			"ippis_number": ippisNumber,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *UserGormRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return translateError(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error)
}

func (r *UserGormRepository) IncrementTokenVersion(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 与信が足りるときだけ減らす。
// The guard and the arithmetic run in one UPDATE so concurrent checkouts cannot both spend the same balance.
func (r *UserGormRepository) DebitCredit(ctx context.Context, userID string, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND available_credit >= ?", userID, amount).
		Updates(map[string]interface{}{
			"available_credit": gorm.Expr("available_credit - ?", amount),
			"used_credit":      gorm.Expr("used_credit + ?", amount),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UserGormRepository) SetCreditLimit(ctx context.Context, userID string, limit decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND used_credit <= ?", userID, limit).
		Updates(map[string]interface{}{
			"credit_limit":     limit,
			"available_credit": gorm.Expr("? - used_credit", limit),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
