package validator

import (
	"context"
	"errors"
	"strings"

	"creditmart/internal/repository"
	"creditmart/internal/usecase"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"phone"`
	IPPISNumber string `json:"ippisNumber" validate:"ippis"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"phone"`
	IPPISNumber string `json:"ippisNumber" validate:"ippis"`
}

type authValidator struct {
	rv    *RequestValidator
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(rv *RequestValidator, users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{rv: rv, users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, in usecase.RegisterInput) error {
	req := registerRequest{
		Email:       strings.TrimSpace(in.Email),
		Password:    in.Password,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		IPPISNumber: strings.TrimSpace(in.IPPISNumber),
	}
	if err := v.rv.Validate(req); err != nil {
		return err
	}

	// email重複チェック（DB の unique 制約でも弾く）
	_, err := v.users.FindByEmail(ctx, req.Email)
	if err == nil {
		return usecase.NewConflictError("email already used")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return usecase.NewStorageError(err)
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	return v.rv.Validate(loginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.NewUnauthorizedError("unauthorized")
	}
	return nil
}

func (v *authValidator) ValidateProfile(ctx context.Context, in usecase.UpdateProfileInput) error {
	return v.rv.Validate(profileRequest{
		PhoneNumber: in.PhoneNumber,
		IPPISNumber: in.IPPISNumber,
	})
}
