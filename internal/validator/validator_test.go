package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"
	"creditmart/internal/usecase"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in validator tests")
}

func (m *userRepoMock) FindByID(ctx context.Context, userID string) (*model.User, error) {
	panic("not used in validator tests")
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) UpdateProfile(ctx context.Context, userID, phone, ippis string) error {
	panic("not used in validator tests")
}

func (m *userRepoMock) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	panic("not used in validator tests")
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, userID string) error {
	panic("not used in validator tests")
}

func (m *userRepoMock) DebitCredit(ctx context.Context, userID string, amount decimal.Decimal) (bool, error) {
	panic("not used in validator tests")
}

func (m *userRepoMock) SetCreditLimit(ctx context.Context, userID string, limit decimal.Decimal) (bool, error) {
	panic("not used in validator tests")
}

type cartReq struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gte=1,lte=999"`
}

func TestRequestValidator_UsesJSONNames(t *testing.T) {
	rv := New()

	err := rv.Validate(cartReq{ProductID: 1, Quantity: 0})
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Equal(t, "quantity is required", he.Message)
	assert.ErrorIs(t, err, usecase.ErrValidation)

	err = rv.Validate(cartReq{ProductID: 1, Quantity: 1000})
	he, _ = usecase.AsHTTPError(err)
	assert.Equal(t, "quantity is out of range", he.Message)

	assert.NoError(t, rv.Validate(cartReq{ProductID: 1, Quantity: 2}))
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	v := playground.New()
	assert.Panics(t, func() {
		mustRegister(v, "", func(playground.FieldLevel) bool { return true })
	})
	assert.NotPanics(t, func() { New() })
}

func TestAuthValidator_Register(t *testing.T) {
	ctx := context.Background()
	rv := New()

	cases := []struct {
		name string
		in   usecase.RegisterInput
		want string
	}{
		{"bad email", usecase.RegisterInput{Email: "nope", Password: "password1"}, "email must be a valid email"},
		{"short password", usecase.RegisterInput{Email: "a@b.ng", Password: "short"}, "password must be at least 8"},
		{"ippis letters", usecase.RegisterInput{Email: "a@b.ng", Password: "password1", IPPISNumber: "12AB"}, "ippisNumber must be digits only (max 20)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewAuthValidator(rv, &userRepoMock{})
			err := v.ValidateRegister(ctx, tc.in)
			he, ok := usecase.AsHTTPError(err)
			assert.True(t, ok)
			assert.Equal(t, tc.want, he.Message)
		})
	}

	t.Run("duplicate email -> 409", func(t *testing.T) {
		users := &userRepoMock{}
		users.On("FindByEmail", ctx, "taken@b.ng").Return(&model.User{ID: "u1"}, nil)

		err := NewAuthValidator(rv, users).ValidateRegister(ctx, usecase.RegisterInput{Email: "taken@b.ng", Password: "password1"})
		assert.ErrorIs(t, err, usecase.ErrConflict)
	})

	t.Run("lookup failure -> storage", func(t *testing.T) {
		users := &userRepoMock{}
		users.On("FindByEmail", ctx, "a@b.ng").Return(nil, errors.New("db down"))

		err := NewAuthValidator(rv, users).ValidateRegister(ctx, usecase.RegisterInput{Email: "a@b.ng", Password: "password1"})
		assert.ErrorIs(t, err, usecase.ErrStorage)
	})

	t.Run("ok", func(t *testing.T) {
		users := &userRepoMock{}
		users.On("FindByEmail", ctx, "new@b.ng").Return(nil, repo.ErrNotFound)

		err := NewAuthValidator(rv, users).ValidateRegister(ctx, usecase.RegisterInput{
			Email: "new@b.ng", Password: "password1", PhoneNumber: "+234 803 000 0000", IPPISNumber: "123456",
		})
		assert.NoError(t, err)
	})
}

func TestAuthValidator_ProfileAndRefresh(t *testing.T) {
	ctx := context.Background()
	v := NewAuthValidator(New(), &userRepoMock{})

	assert.NoError(t, v.ValidateProfile(ctx, usecase.UpdateProfileInput{}))
	assert.NoError(t, v.ValidateProfile(ctx, usecase.UpdateProfileInput{PhoneNumber: "08030000000", IPPISNumber: "998877"}))
	assert.ErrorIs(t, v.ValidateProfile(ctx, usecase.UpdateProfileInput{IPPISNumber: "123456789012345678901"}), usecase.ErrValidation)
	assert.ErrorIs(t, v.ValidateProfile(ctx, usecase.UpdateProfileInput{PhoneNumber: "call me"}), usecase.ErrValidation)

	assert.ErrorIs(t, v.ValidateRefresh(ctx, " ", "ua"), usecase.ErrUnauthorized)
	assert.NoError(t, v.ValidateRefresh(ctx, "token", "ua"))
}
