package usecase

import (
	"context"
	"testing"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOne(t *testing.T, m *memStore) OrderOutput {
	t.Helper()
	out, err := NewOrderUsecase(m, nil, nil).PlaceOrder(context.Background(), shopper, PlaceOrderInput{DeliveryAddress: "Abuja"})
	require.NoError(t, err)
	return out
}

func TestAdminOrder_StatusMovesOneStepForward(t *testing.T) {
	m := seedCheckout(t, "300000")
	order := placeOne(t, m)
	uc := NewAdminOrderUsecase(m)
	ctx := context.Background()

	out, err := uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "PROCESSING"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, out.Status)

	// 同じステータスは何もしない
	_, err = uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "processing"})
	require.NoError(t, err)
	assert.Len(t, m.s.auditLogs, 1)

	// 後戻りは不可
	_, err = uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "pending"})
	assert.ErrorIs(t, err, ErrValidation)

	out, err = uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, out.Status)

	require.Len(t, m.s.auditLogs, 2)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, m.s.auditLogs[1].Action)
	assert.Equal(t, `{"status":"processing"}`, m.s.auditLogs[1].BeforeJSON)
	assert.Equal(t, `{"status":"delivered"}`, m.s.auditLogs[1].AfterJSON)
}

func TestAdminOrder_StatusRejects(t *testing.T) {
	m := seedCheckout(t, "300000")
	order := placeOne(t, m)
	uc := NewAdminOrderUsecase(m)
	ctx := context.Background()

	// 飛び級は不可
	_, err := uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "delivered"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.UpdateStatus(ctx, "admin-1", order.ID, AdminUpdateOrderStatusInput{Status: "shipped"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.UpdateStatus(ctx, "admin-1", 999, AdminUpdateOrderStatusInput{Status: "processing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = uc.UpdateStatus(ctx, "", order.ID, AdminUpdateOrderStatusInput{Status: "processing"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, m.s.auditLogs)
}

func TestAdminOrder_List(t *testing.T) {
	m := seedCheckout(t, "300000")
	placeOne(t, m)
	uc := NewAdminOrderUsecase(m)
	ctx := context.Background()

	out, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "pending"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)
	require.Len(t, out.Items, 1)
	assert.Len(t, out.Items[0].Items, 2)

	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminUser_SetCreditLimit(t *testing.T) {
	m := seedCheckout(t, "300000")
	placeOne(t, m) // used 6200
	uc := NewAdminUserUsecase(m, m.AuditLogs())
	ctx := context.Background()

	u, err := uc.SetCreditLimit(ctx, "admin-1", shopper, SetCreditLimitInput{CreditLimit: "10000.00"})
	require.NoError(t, err)
	assert.True(t, u.CreditLimit.Equal(dec("10000")))
	assert.True(t, u.AvailableCredit.Equal(dec("3800")))
	assert.True(t, u.CreditBalanced())

	require.Len(t, m.s.auditLogs, 1)
	assert.Equal(t, model.AuditActionUpdateCreditLimit, m.s.auditLogs[0].Action)
	assert.Equal(t, shopper, m.s.auditLogs[0].ResourceID)

	// 使用済みより下げられない
	_, err = uc.SetCreditLimit(ctx, "admin-1", shopper, SetCreditLimitInput{CreditLimit: "6000"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, m.s.users[shopper].CreditLimit.Equal(dec("10000")))
	assert.Len(t, m.s.auditLogs, 1)

	_, err = uc.SetCreditLimit(ctx, "admin-1", shopper, SetCreditLimitInput{CreditLimit: "-5"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.SetCreditLimit(ctx, "admin-1", "nobody", SetCreditLimitInput{CreditLimit: "5"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminUser_ListAuditLogs(t *testing.T) {
	m := seedCheckout(t, "300000")
	uc := NewAdminUserUsecase(m, m.AuditLogs())
	ctx := context.Background()
	_, err := uc.SetCreditLimit(ctx, "admin-1", shopper, SetCreditLimitInput{CreditLimit: "400000"})
	require.NoError(t, err)

	logs, err := uc.ListAuditLogs(ctx, ListAuditLogsInput{Action: "UPDATE_CREDIT_LIMIT"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = uc.ListAuditLogs(ctx, ListAuditLogsInput{From: "yesterday"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.ListAuditLogs(ctx, ListAuditLogsInput{From: "2026-02-01T00:00:00Z", To: "2026-01-01T00:00:00Z"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.ListAuditLogs(ctx, ListAuditLogsInput{Limit: 500})
	assert.ErrorIs(t, err, ErrValidation)
}
