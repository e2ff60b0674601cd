package handler

import (
	"net/http"
	"time"

	"creditmart/internal/middleware"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refresh_token"

// session / refresh_token をHttpOnlyでセット。prodだけSecure
func setAuthCookies(c echo.Context, secure bool, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  accessExp,
	})
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  refreshExp,
	})
}

func clearAuthCookies(c echo.Context, secure bool) {
	for _, ck := range []struct{ name, path string }{
		{middleware.SessionCookieName, "/"},
		{refreshCookieName, "/api/auth"},
	} {
		c.SetCookie(&http.Cookie{
			Name:     ck.name,
			Value:    "",
			Path:     ck.path,
			HttpOnly: true,
			Secure:   secure,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
		})
	}
}

// cookie優先、無ければbody
func refreshTokenFrom(c echo.Context, bodyToken string) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return bodyToken
}
