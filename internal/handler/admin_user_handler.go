package handler

import (
	"net/http"

	"creditmart/internal/config"
	"creditmart/internal/repository"
	"creditmart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 与信枠・強制ログアウト・監査ログ
type AdminUserHandler struct {
	authUC  *usecase.AuthUsecase
	adminUC *usecase.AdminUserUsecase
}

func NewAdminUserHandler(authUC *usecase.AuthUsecase, adminUC *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{authUC: authUC, adminUC: adminUC}
}

type CreditLimitRequest struct {
	CreditLimit *decimal.Decimal `json:"creditLimit" validate:"required"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.PUT("/users/:id/credit-limit", h.SetCreditLimit)
	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/audit-logs", h.ListAuditLogs)
}

func (h *AdminUserHandler) SetCreditLimit(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreditLimitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	user, err := h.adminUC.SetCreditLimit(c.Request().Context(), adminID, c.Param("id"), usecase.SetCreditLimitInput{
		CreditLimit: req.CreditLimit.String(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	res, err := h.authUC.ForceLogout(c.Request().Context(), adminID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) ListAuditLogs(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeError(c, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, err)
	}

	logs, err := h.adminUC.ListAuditLogs(c.Request().Context(), usecase.ListAuditLogsInput{
		ActorUserID:  c.QueryParam("actorUserId"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   c.QueryParam("resourceId"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
