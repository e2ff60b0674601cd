package handler

import (
	"net/http"
	"strconv"

	"creditmart/internal/infra/logging"
	"creditmart/internal/middleware"
	"creditmart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのHTTPErrorをそのままステータスに変換。5xxの原因はログだけに出す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	l := logging.FromContext(c.Request().Context())

	if he, ok := usecase.AsHTTPError(err); ok {
		switch {
		case he.Status >= http.StatusInternalServerError:
			l.Error("request failed", zap.Int("status", he.Status), zap.Error(he.Cause))
		case he.Kind == usecase.ErrSecurityIncident:
			l.Warn("security incident", zap.String("path", c.Path()))
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	l.Error("unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// Bind + validate タグ
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewValidationError("invalid body")
	}
	return c.Validate(req)
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す
func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return n, nil
}
