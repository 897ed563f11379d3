package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client, nil)
	require.NoError(t, err)
	return svc, conn
}

func createInput(sku string, qty int) CreateProductInput {
	return CreateProductInput{
		SKU:             sku,
		Name:            "Ballpoint Pen " + sku,
		CostPrice:       decimal.RequireFromString("0.40"),
		SellingPrice:    decimal.RequireFromString("1.00"),
		OpeningQuantity: qty,
	}
}

func TestCreateProductSeedsOpeningQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	tenantID := uuid.New()

	dto, err := svc.CreateProduct(context.Background(), tenantID, createInput("PEN-1", 25))
	require.NoError(t, err)

	assert.Equal(t, 25, dto.QuantityOnHand)
	assert.Equal(t, 25, dto.OpeningQuantity)
	assert.Equal(t, defaultReorderLevel, dto.ReorderLevel)
	assert.Equal(t, enums.ProductStatusActive, dto.Status)
	assert.False(t, dto.IsLowStock)
	assert.Equal(t, "60.00", dto.MarginPercentage.StringFixed(2))

	var ledgerRows int64
	require.NoError(t, conn.Model(&models.InventoryTransaction{}).Count(&ledgerRows).Error)
	assert.Zero(t, ledgerRows)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, uuid.New(), createInput("DUP-1", 1))
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, uuid.New(), createInput("DUP-1", 1))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	negative := -1
	badStatus := enums.ProductStatus("archived")

	cases := map[string]func(*CreateProductInput){
		"missing sku":      func(in *CreateProductInput) { in.SKU = "  " },
		"short name":       func(in *CreateProductInput) { in.Name = "ab" },
		"negative price":   func(in *CreateProductInput) { in.CostPrice = decimal.NewFromInt(-1) },
		"three decimals":   func(in *CreateProductInput) { in.SellingPrice = decimal.RequireFromString("1.005") },
		"negative stock":   func(in *CreateProductInput) { in.OpeningQuantity = -3 },
		"negative reorder": func(in *CreateProductInput) { in.ReorderLevel = &negative },
		"unknown status":   func(in *CreateProductInput) { in.Status = &badStatus },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := createInput("VAL-"+uuid.NewString()[:6], 1)
			mutate(&input)
			_, err := svc.CreateProduct(context.Background(), uuid.New(), input)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.CreateProduct(ctx, tenantID, createInput("UPD-1", 12))
	require.NoError(t, err)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, _, err := inventory.NewLedger().Adjust(ctx, tx, inventory.AdjustParams{
			TenantID:  tenantID,
			ProductID: created.ID,
			Delta:     -5,
			Type:      enums.TransactionTypeAdjustment,
		})
		return err
	}))

	name := "  Gel Pen  "
	price := decimal.RequireFromString("1.50")
	reorder := 8
	updated, err := svc.UpdateProduct(ctx, tenantID, created.ID, UpdateProductInput{
		Name:         &name,
		SellingPrice: &price,
		ReorderLevel: &reorder,
	})
	require.NoError(t, err)

	assert.Equal(t, "Gel Pen", updated.Name)
	assert.Equal(t, "1.50", updated.SellingPrice.StringFixed(2))
	assert.Equal(t, 7, updated.QuantityOnHand)
	assert.Equal(t, 12, updated.OpeningQuantity)
	assert.True(t, updated.IsLowStock)
	assert.Equal(t, "UPD-1", updated.SKU)
}

func TestProductAccessIsTenantScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	other := uuid.New()

	created, err := svc.CreateProduct(ctx, tenantID, createInput("TEN-1", 3))
	require.NoError(t, err)

	_, err = svc.GetProduct(ctx, other, created.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	name := "Hijacked"
	_, err = svc.UpdateProduct(ctx, other, created.ID, UpdateProductInput{Name: &name})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	err = svc.DeleteProduct(ctx, other, created.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.GetProduct(ctx, tenantID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	got, err := svc.GetProduct(ctx, tenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ballpoint Pen TEN-1", got.Name)
}

func TestDeleteProductProtection(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	unused, err := svc.CreateProduct(ctx, tenantID, createInput("DEL-1", 3))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, tenantID, unused.ID))
	_, err = svc.GetProduct(ctx, tenantID, unused.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	sold, err := svc.CreateProduct(ctx, tenantID, createInput("DEL-2", 3))
	require.NoError(t, err)
	order := &models.Order{
		TenantID:      tenantID,
		OrderNo:       "ORD-20240301-00001",
		CustomerName:  "Walk-in",
		Subtotal:      decimal.NewFromInt(1),
		TotalAmount:   decimal.NewFromInt(1),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCash,
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, conn.Omit("Items").Create(order).Error)
	require.NoError(t, conn.Create(&models.OrderItem{
		OrderID:   order.ID,
		ProductID: sold.ID,
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(1),
		LineTotal: decimal.NewFromInt(1),
	}).Error)

	err = svc.DeleteProduct(ctx, tenantID, sold.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "cannot delete product that has been used in orders", typed.Message())

	adjusted, err := svc.CreateProduct(ctx, tenantID, createInput("DEL-3", 3))
	require.NoError(t, err)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, _, err := inventory.NewLedger().Adjust(ctx, tx, inventory.AdjustParams{
			TenantID:  tenantID,
			ProductID: adjusted.ID,
			Delta:     2,
			Type:      enums.TransactionTypePurchase,
		})
		return err
	}))
	assert.True(t, pkgerrors.Is(svc.DeleteProduct(ctx, tenantID, adjusted.ID), pkgerrors.CodeConflict))
}

func TestListProductsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	inactive := enums.ProductStatusInactive
	in := createInput("LST-LOW", 2)
	_, err := svc.CreateProduct(ctx, tenantID, in)
	require.NoError(t, err)
	in = createInput("LST-OK", 50)
	in.Name = "Stapler Deluxe"
	_, err = svc.CreateProduct(ctx, tenantID, in)
	require.NoError(t, err)
	in = createInput("LST-OFF", 50)
	in.Status = &inactive
	_, err = svc.CreateProduct(ctx, tenantID, in)
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, uuid.New(), createInput("LST-FOREIGN", 1))
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	low, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{LowStock: true}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "LST-LOW", low.Items[0].SKU)

	byStatus, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{Status: &inactive}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.Equal(t, "LST-OFF", byStatus.Items[0].SKU)

	search, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{Search: "staPLER"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "LST-OK", search.Items[0].SKU)

	bySKU, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{Search: "lst-o"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, bySKU.Items, 2)
}

func TestListProductsPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 5; i++ {
		_, err := svc.CreateProduct(ctx, tenantID, createInput("PG-"+uuid.NewString()[:8], 20))
		require.NoError(t, err)
	}

	cursor := ""
	pages := 0
	for {
		page, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{}, pagination.Params{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "duplicate across pages")
			seen[item.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)

	_, err := svc.ListProducts(ctx, tenantID, ListProductsFilters{}, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.Error(t, err)

	_, conn := dbtest.Client(t)
	_, err = NewService(NewRepository(conn), nil, nil)
	assert.Error(t, err)
}
