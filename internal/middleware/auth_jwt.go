package middleware

import (
	"net/http"
	"strings"

	"creditmart/internal/config"
	"creditmart/internal/infra/auth"
	"creditmart/internal/infra/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	CtxUserIDKey       = "user_id"       // string
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int

	// SessionCookieName carries the access token for browser clients.
	SessionCookieName = "session"
)

// JWT検証ミドルウェア。Bearerヘッダ、無ければ session cookie を見る
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := extractToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			// 署名・アルゴリズム・exp をまとめて検証
			claims, err := auth.ParseAccessToken(cfg.JWTSecret, rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, claims.Subject)
			c.Set(CtxUserRoleKey, claims.Role)
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			// リクエストロガーに user_id を足す
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With(zap.String("user_id", claims.Subject))
			c.SetRequest(c.Request().WithContext(logging.ContextWithLogger(ctx, l)))

			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, bool) {
	if authz := c.Request().Header.Get("Authorization"); authz != "" {
		//Bearer形式か確認してtokenを抜く
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		raw := strings.TrimSpace(parts[1])
		return raw, raw != ""
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
