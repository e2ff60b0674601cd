package usecase

import (
	"context"
	"testing"

	"creditmart/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2500", "2500", true},
		{" 1200.50 ", "1200.5", true},
		{"0", "0", true},
		{"", "", false},
		{"abc", "", false},
		{"-1", "", false},
		{"1.005", "", false},
		{"10000000000", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePrice(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tc.want)), got.String())
		})
	}
}

func TestProducts_ListOnlyInStock(t *testing.T) {
	m := newMemStore()
	m.addProduct(1, "Yam", "3000", true)
	m.addProduct(2, "Garri", "900", false)
	uc := NewProductUsecase(m.Products(), m)
	ctx := context.Background()

	list, err := uc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Yam", list[0].Name)

	all, err := uc.AdminListFoodItems(ctx, ListProductsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = uc.GetProduct(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProducts_AdminUpdateWritesAudit(t *testing.T) {
	m := newMemStore()
	m.addProduct(1, "Yam", "3000", true)
	uc := NewProductUsecase(m.Products(), m)
	ctx := context.Background()
	inStock := false

	p, err := uc.AdminUpdateFoodItem(ctx, "admin-1", 1, FoodItemInput{Name: "Yam tuber", Price: "3500.00", InStock: &inStock})
	require.NoError(t, err)
	assert.Equal(t, "Yam tuber", p.Name)
	assert.False(t, p.InStock)

	require.Len(t, m.s.auditLogs, 1)
	log := m.s.auditLogs[0]
	assert.Equal(t, model.AuditActionUpdateProduct, log.Action)
	assert.Equal(t, "1", log.ResourceID)
	assert.Contains(t, log.BeforeJSON, `"price":"3000"`)
	assert.Contains(t, log.AfterJSON, `"price":"3500"`)

	_, err = uc.AdminUpdateFoodItem(ctx, "admin-1", 1, FoodItemInput{Name: "", Price: "1"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, m.s.auditLogs, 1)

	require.NoError(t, uc.AdminDeleteFoodItem(ctx, "admin-1", 1))
	assert.ErrorIs(t, uc.AdminDeleteFoodItem(ctx, "admin-1", 1), ErrNotFound)
	assert.Len(t, m.s.auditLogs, 2)
}

func TestProducts_AdminCreateDefaultsInStock(t *testing.T) {
	m := newMemStore()
	uc := NewProductUsecase(m.Products(), m)

	p, err := uc.AdminCreateFoodItem(context.Background(), "admin-1", FoodItemInput{Name: "Eggs (crate)", Price: "4200", Category: "Protein"})
	require.NoError(t, err)
	assert.True(t, p.InStock)
	assert.NotZero(t, p.ID)
}
