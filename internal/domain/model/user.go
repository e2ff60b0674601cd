package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DefaultCreditLimit is the credit line every new shopper starts with (naira).
var DefaultCreditLimit = decimal.NewFromInt(300000)

// User is a shopper (or admin) together with their salary-backed credit line.
// available_credit + used_credit = credit_limit is enforced by the database as well.
type User struct {
	ID              string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email           string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string          `gorm:"column:password_hash;not null" json:"-"`
	FirstName       string          `gorm:"type:varchar(100)" json:"firstName"`
	LastName        string          `gorm:"type:varchar(100)" json:"lastName"`
	ProfileImageURL string          `gorm:"column:profile_image_url;type:varchar(512)" json:"profileImageUrl"`
	PhoneNumber     string          `gorm:"type:varchar(30)" json:"phoneNumber"`
	IPPISNumber     string          `gorm:"column:ippis_number;type:varchar(20)" json:"ippisNumber"`
	Role            Role            `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	TokenVersion    int             `gorm:"not null;default:0" json:"-"`
	IsActive        bool            `gorm:"not null;default:true" json:"isActive"`
	CreditLimit     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:300000.00;check:chk_users_credit_balance,available_credit + used_credit = credit_limit" json:"creditLimit"`
	AvailableCredit decimal.Decimal `gorm:"type:numeric(12,2);not null;default:300000.00;check:chk_users_available_credit,available_credit >= 0" json:"availableCredit"`
	UsedCredit      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;check:chk_users_used_credit,used_credit >= 0" json:"usedCredit"`
	LastLoginAt     *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreditBalanced reports whether the ledger invariant holds for this row.
func (u User) CreditBalanced() bool {
	if u.AvailableCredit.IsNegative() || u.UsedCredit.IsNegative() {
		return false
	}
	return u.AvailableCredit.Add(u.UsedCredit).Equal(u.CreditLimit)
}

// CanAfford reports whether amount fits in the remaining credit.
func (u User) CanAfford(amount decimal.Decimal) bool {
	return u.AvailableCredit.GreaterThanOrEqual(amount)
}
