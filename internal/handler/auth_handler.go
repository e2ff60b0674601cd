package handler

import (
	"errors"
	"net/http"
	"time"

	"creditmart/internal/config"
	"creditmart/internal/domain/model"
	"creditmart/internal/middleware"
	"creditmart/internal/repository"
	"creditmart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/auth, /api/profile, /api/admin/login
type AuthHandler struct {
	uc           *usecase.AuthUsecase
	loginLimiter echo.MiddlewareFunc // IP単位のレート制限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config, loginLimiter echo.MiddlewareFunc) *AuthHandler {
	if loginLimiter == nil {
		loginLimiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return &AuthHandler{
		uc:           uc,
		loginLimiter: loginLimiter,
		cookieSecure: cfg.IsProd(),
	}
}

// /api/auth/register のリクエストボディ。
type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	IPPISNumber string `json:"ippisNumber"`
}

// /api/auth/login と /api/admin/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type profileRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	IPPISNumber string `json:"ippisNumber"`
}

type loginResponse struct {
	User *model.User `json:"user"`
	usecase.AccessTokenDTO
}

type adminLoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"`
	User      *model.User `json:"user"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login, h.loginLimiter)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)

	authed := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}
	g.GET("/user", h.Me, authed...)
	e.PUT("/api/profile", h.UpdateProfile, authed...)

	e.POST("/api/admin/login", h.AdminLogin, h.loginLimiter)
}

// RegisterはPOST /api/auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	user, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		IPPISNumber: req.IPPISNumber,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

// LoginはPOST /api/auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// User-Agentを取得（refreshtokenに紐付ける）
	res, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}

	h.setCookies(c, res.Token, res.RefreshTokenPlain, res.RefreshExpiresAt)
	return c.JSON(http.StatusOK, loginResponse{User: res.User, AccessTokenDTO: res.Token})
}

func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.AdminLogin(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}

	h.setCookies(c, res.Token, res.RefreshTokenPlain, res.RefreshExpiresAt)
	return c.JSON(http.StatusOK, adminLoginResponse{
		Token:     res.Token.AccessToken,
		ExpiresIn: res.Token.ExpiresIn,
		User:      res.User,
	})
}

// refreshはローテーション。再利用検知時はcookieも消す
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Refresh(c.Request().Context(), refreshTokenFrom(c, req.RefreshToken), c.Request().UserAgent())
	if err != nil {
		if errors.Is(err, usecase.ErrSecurityIncident) || errors.Is(err, usecase.ErrUnauthorized) {
			clearAuthCookies(c, h.cookieSecure)
		}
		return writeError(c, err)
	}

	h.setCookies(c, res.Token, res.RefreshTokenPlain, res.RefreshExpiresAt)
	return c.JSON(http.StatusOK, res.Token)
}

// 未知のtokenでもcookieは消して200
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.uc.Logout(c.Request().Context(), refreshTokenFrom(c, req.RefreshToken))
	clearAuthCookies(c, h.cookieSecure)
	if err != nil && !errors.Is(err, usecase.ErrUnauthorized) {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

// GET /api/auth/user
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	user, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// PUT /api/profile
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		PhoneNumber: req.PhoneNumber,
		IPPISNumber: req.IPPISNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setCookies(c echo.Context, token usecase.AccessTokenDTO, refreshPlain string, refreshExp time.Time) {
	accessExp := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	setAuthCookies(c, h.cookieSecure, token.AccessToken, accessExp, refreshPlain, refreshExp)
}
