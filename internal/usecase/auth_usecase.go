package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"creditmart/internal/domain/model"
	"creditmart/internal/infra/logging"
	"creditmart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// refreshtokenの有効期限
const RefreshTokenTTL = 14 * 24 * time.Hour

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, in RegisterInput) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateProfile(ctx context.Context, in UpdateProfileInput) error
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	IPPISNumber string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

type UpdateProfileInput struct {
	PhoneNumber string
	IPPISNumber string
}

type AccessTokenDTO struct {
	AccessToken  string `json:"accessToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenVersion int    `json:"tokenVersion"`
}

// handlerがJSONとCookieに詰める
type LoginResult struct {
	User              *model.User
	Token             AccessTokenDTO
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

type RefreshResult struct {
	Token             AccessTokenDTO
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

type ForceLogoutResponse struct {
	UserID          string `json:"userId"`
	NewTokenVersion int    `json:"newTokenVersion"`
}

type AuthUsecase struct {
	users         repository.UserRepository
	rtRepo        repository.RefreshTokenRepository
	validator     AuthValidator
	hasher        PasswordHasher
	issuer        AccessTokenIssuer
	idGen         IDGenerator
	clock         Clock
	defaultCredit decimal.Decimal
}

func NewAuthUsecase(
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	validator AuthValidator,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
	defaultCredit decimal.Decimal,
) *AuthUsecase {
	return &AuthUsecase{
		users:         users,
		rtRepo:        rtRepo,
		validator:     validator,
		hasher:        hasher,
		issuer:        issuer,
		idGen:         idGen,
		clock:         clock,
		defaultCredit: defaultCredit,
	}
}

// 新規ユーザーはデフォルトの与信枠で作る
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateRegister(ctx, in); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, NewStorageError(err)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:              u.idGen.NewID(),
		Email:           in.Email,
		PasswordHash:    pwHash,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		PhoneNumber:     strings.TrimSpace(in.PhoneNumber),
		IPPISNumber:     strings.TrimSpace(in.IPPISNumber),
		Role:            model.RoleUser,
		IsActive:        true,
		CreditLimit:     u.defaultCredit,
		AvailableCredit: u.defaultCredit,
		UsedCredit:      decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewConflictError("email already used")
		}
		return nil, NewStorageError(err)
	}

	logging.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}

	user, err := u.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return u.startSession(ctx, user, in.UserAgent)
}

// AdminLogin is Login restricted to ADMIN accounts.
// A valid shopper password gets the same 401 as a wrong one.
func (u *AuthUsecase) AdminLogin(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}

	user, err := u.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleAdmin {
		logging.FromContext(ctx).Warn("admin login rejected", zap.String("user_id", user.ID))
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return u.startSession(ctx, user, in.UserAgent)
}

func (u *AuthUsecase) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, NewStorageError(err)
	}

	//パスワード照合（bcrypt）
	if !u.hasher.Verify(password, user.PasswordHash) {
		return nil, NewUnauthorizedError("invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewForbiddenError("user is inactive")
	}
	return user, nil
}

func (u *AuthUsecase) startSession(ctx context.Context, user *model.User, userAgent string) (*LoginResult, error) {
	now := u.clock.Now()

	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, NewStorageError(err)
	}

	//refresh token発行（DBにはhash保存）
	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, NewStorageError(err)
	}
	rt := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return nil, NewStorageError(err)
	}

	//last_login更新（失敗してもログインは通す）
	if err := u.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logging.FromContext(ctx).Warn("touch last login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	return &LoginResult{
		User:              user,
		Token:             token,
		RefreshTokenPlain: refreshPlain,
		RefreshExpiresAt:  rt.ExpiresAt,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if err != nil {
		return nil, NewStorageError(err)
	}
	if !user.IsActive {
		return nil, NewForbiddenError("user is inactive")
	}
	return user, nil
}

// 電話番号とIPPIS番号だけ更新する
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.IPPISNumber = strings.TrimSpace(in.IPPISNumber)
	if err := u.validator.ValidateProfile(ctx, in); err != nil {
		return nil, err
	}

	if err := u.users.UpdateProfile(ctx, userID, in.PhoneNumber, in.IPPISNumber); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewStorageError(err)
	}
	return u.Me(ctx, userID)
}

func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if err != nil {
		return nil, NewStorageError(err)
	}

	now := u.clock.Now()

	//期限切れ
	if rt.ExpiresAt.Before(now) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, NewUnauthorizedError("unauthorized")
	}
	if rt.RevokedAt != nil {
		return nil, NewUnauthorizedError("unauthorized")
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		u.revokeAll(ctx, rt.UserID, "refresh token replay")
		return nil, NewSecurityIncidentError()
	}

	//user_agent違い（全削除）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		u.revokeAll(ctx, rt.UserID, "refresh token user agent mismatch")
		return nil, NewSecurityIncidentError()
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if err != nil {
		return nil, NewStorageError(err)
	}
	if !user.IsActive {
		return nil, NewForbiddenError("user is inactive")
	}

	//旧tokenをusedにする（同時に2回来たら片方は負ける）
	if err := u.rtRepo.MarkUsed(ctx, rt.ID); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			u.revokeAll(ctx, rt.UserID, "refresh token raced")
			return nil, NewSecurityIncidentError()
		}
		return nil, NewStorageError(err)
	}

	newPlain, newHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, NewStorageError(err)
	}
	newRT := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: newHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := u.rtRepo.Create(ctx, newRT); err != nil {
		return nil, NewStorageError(err)
	}

	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, NewStorageError(err)
	}

	return &RefreshResult{
		Token:             token,
		RefreshTokenPlain: newPlain,
		RefreshExpiresAt:  newRT.ExpiresAt,
	}, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return NewUnauthorizedError("unauthorized")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return NewUnauthorizedError("unauthorized")
	}
	if err != nil {
		return NewStorageError(err)
	}

	//refreshを削除（失効）
	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return NewStorageError(err)
	}
	return nil
}

// token_versionを上げてアクセストークンを無効化し、refreshも全削除
func (u *AuthUsecase) ForceLogout(ctx context.Context, actorAdminUserID string, targetUserID string) (*ForceLogoutResponse, error) {
	if actorAdminUserID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, NewValidationError("invalid user id")
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewStorageError(err)
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return nil, NewStorageError(err)
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, NewStorageError(err)
	}

	logging.FromContext(ctx).Info("user force logged out",
		zap.String("user_id", targetUserID),
		zap.String("actor_user_id", actorAdminUserID),
	)
	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return false, errors.New("bootstrap admin email belongs to a non-admin user")
		}
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	pwHash, err := u.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	now := u.clock.Now()
	admin := &model.User{
		ID:              u.idGen.NewID(),
		Email:           email,
		PasswordHash:    pwHash,
		FirstName:       "Admin",
		Role:            model.RoleAdmin,
		IsActive:        true,
		CreditLimit:     decimal.Zero,
		AvailableCredit: decimal.Zero,
		UsedCredit:      decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.users.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

func (u *AuthUsecase) revokeAll(ctx context.Context, userID string, reason string) {
	logging.FromContext(ctx).Warn("security incident", zap.String("user_id", userID), zap.String("reason", reason))
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		logging.FromContext(ctx).Error("revoke refresh tokens failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (AccessTokenDTO, error) {
	signed, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return AccessTokenDTO{}, err
	}
	return AccessTokenDTO{
		AccessToken:  signed,
		ExpiresIn:    int(exp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
