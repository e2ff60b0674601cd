package usecase

import (
	"context"
	"time"

	"creditmart/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 平文パスワードのハッシュ化と照合
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID string, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// CartCache caches a user's cart lines (no prices). Any Get error is treated as a miss.
type CartCache interface {
	Get(ctx context.Context, userID string) ([]model.CartItem, error)
	Set(ctx context.Context, userID string, lines []model.CartItem) error
	Delete(ctx context.Context, userID string) error
}

// OrderMetrics receives checkout outcomes.
type OrderMetrics interface {
	OrderPlaced(total decimal.Decimal)
	OrderPlacementFailed(reason string)
}

// CartMetrics receives cart cache outcomes.
type CartMetrics interface {
	CartCacheResult(result string)
}

type nopMetrics struct{}

func (nopMetrics) OrderPlaced(decimal.Decimal) {}
func (nopMetrics) OrderPlacementFailed(string) {}
func (nopMetrics) CartCacheResult(string)      {}
