package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// auth 用の fake / mock
// =====================

type memRefreshTokens struct {
	tokens map[string]*model.RefreshToken
}

func newMemRefreshTokens() *memRefreshTokens {
	return &memRefreshTokens{tokens: map[string]*model.RefreshToken{}}
}

func (r *memRefreshTokens) Create(ctx context.Context, token *model.RefreshToken) error {
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memRefreshTokens) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrRefreshTokenNotFound
}

func (r *memRefreshTokens) MarkUsed(ctx context.Context, tokenID string) error {
	t, ok := r.tokens[tokenID]
	if !ok || t.UsedAt != nil || t.RevokedAt != nil {
		return repo.ErrRefreshTokenNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

func (r *memRefreshTokens) DeleteAllByUserID(ctx context.Context, userID string) error {
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *memRefreshTokens) DeleteByID(ctx context.Context, tokenID string) error {
	if _, ok := r.tokens[tokenID]; !ok {
		return repo.ErrRefreshTokenNotFound
	}
	delete(r.tokens, tokenID)
	return nil
}

type AuthValidatorMock struct{ mock.Mock }

func (m *AuthValidatorMock) ValidateRegister(ctx context.Context, in RegisterInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *AuthValidatorMock) ValidateLogin(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

func (m *AuthValidatorMock) ValidateRefresh(ctx context.Context, refreshToken, userAgent string) error {
	return m.Called(ctx, refreshToken, userAgent).Error(0)
}

func (m *AuthValidatorMock) ValidateProfile(ctx context.Context, in UpdateProfileInput) error {
	return m.Called(ctx, in).Error(0)
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error)    { return "h:" + plain, nil }
func (plainHasher) Verify(plain string, hashed string) bool { return hashed == "h:"+plain }

type stubIssuer struct{}

func (stubIssuer) Issue(userID string, role model.Role, tv int, now time.Time) (string, time.Time, error) {
	return fmt.Sprintf("%s|%s|%d", userID, role, tv), now.Add(15 * time.Minute), nil
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type authFixture struct {
	store *memStore
	rt    *memRefreshTokens
	v     *AuthValidatorMock
	uc    *AuthUsecase
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	m := newMemStore()
	rt := newMemRefreshTokens()
	v := new(AuthValidatorMock)
	v.On("ValidateRegister", mock.Anything, mock.Anything).Return(nil).Maybe()
	v.On("ValidateLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	v.On("ValidateRefresh", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	v.On("ValidateProfile", mock.Anything, mock.Anything).Return(nil).Maybe()

	uc := NewAuthUsecase(m.Users(), rt, v, plainHasher{}, stubIssuer{}, &seqIDs{},
		fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}, dec("300000"))
	return authFixture{store: m, rt: rt, v: v, uc: uc}
}

func (f authFixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.uc.Register(context.Background(), RegisterInput{
		Email: email, Password: "password123", FirstName: "Ada", LastName: "Obi", IPPISNumber: "123456",
	})
	require.NoError(t, err)
	return u
}

func TestAuth_RegisterGrantsDefaultCredit(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "  Ada@Example.com ")

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.CreditLimit.Equal(dec("300000")))
	assert.True(t, u.AvailableCredit.Equal(dec("300000")))
	assert.True(t, u.UsedCredit.IsZero())
	assert.Equal(t, "h:password123", f.store.s.users[u.ID].PasswordHash)

	_, err := f.uc.Register(context.Background(), RegisterInput{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuth_LoginIssuesTokens(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "ada@example.com")

	res, err := f.uc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "password123", UserAgent: "ua-1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID+"|USER|0", res.Token.AccessToken)
	assert.Equal(t, 900, res.Token.ExpiresIn)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.Len(t, f.rt.tokens, 1)
	assert.NotNil(t, f.store.s.users[u.ID].LastLoginAt)

	_, err = f.uc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.uc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_AdminLoginRejectsShopper(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ada@example.com")
	ctx := context.Background()

	_, err := f.uc.AdminLogin(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := f.uc.EnsureAdmin(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.uc.EnsureAdmin(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.uc.AdminLogin(ctx, LoginInput{Email: "admin@example.com", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
	assert.True(t, res.User.CreditLimit.IsZero())

	_, err = f.uc.EnsureAdmin(ctx, "ada@example.com", "x")
	assert.Error(t, err)
}

func TestAuth_RefreshRotatesAndDetectsReplay(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ada@example.com")
	ctx := context.Background()

	login, err := f.uc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123", UserAgent: "ua-1"})
	require.NoError(t, err)

	rotated, err := f.uc.Refresh(ctx, login.RefreshTokenPlain, "ua-1")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshTokenPlain, rotated.RefreshTokenPlain)

	// 使用済みtokenの再送 → 全失効
	_, err = f.uc.Refresh(ctx, login.RefreshTokenPlain, "ua-1")
	assert.ErrorIs(t, err, ErrSecurityIncident)
	assert.Empty(t, f.rt.tokens)

	_, err = f.uc.Refresh(ctx, rotated.RefreshTokenPlain, "ua-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_RefreshUserAgentMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ada@example.com")
	ctx := context.Background()

	login, err := f.uc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123", UserAgent: "ua-1"})
	require.NoError(t, err)

	_, err = f.uc.Refresh(ctx, login.RefreshTokenPlain, "ua-2")
	assert.ErrorIs(t, err, ErrSecurityIncident)
	assert.Empty(t, f.rt.tokens)
}

func TestAuth_LogoutAndForceLogout(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "ada@example.com")
	ctx := context.Background()

	login, err := f.uc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, login.RefreshTokenPlain))
	assert.ErrorIs(t, f.uc.Logout(ctx, login.RefreshTokenPlain), ErrUnauthorized)

	_, err = f.uc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	res, err := f.uc.ForceLogout(ctx, "admin-1", u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewTokenVersion)
	assert.Empty(t, f.rt.tokens)

	_, err = f.uc.ForceLogout(ctx, "admin-1", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuth_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "ada@example.com")

	got, err := f.uc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{PhoneNumber: " 08030000000 ", IPPISNumber: "778899"})
	require.NoError(t, err)
	assert.Equal(t, "08030000000", got.PhoneNumber)
	assert.Equal(t, "778899", got.IPPISNumber)

	// 与信は変わらない
	assert.True(t, got.AvailableCredit.Equal(dec("300000")))
	f.v.AssertCalled(t, "ValidateProfile", mock.Anything, UpdateProfileInput{PhoneNumber: "08030000000", IPPISNumber: "778899"})
}
