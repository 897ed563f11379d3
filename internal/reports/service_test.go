package reports

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
)

var reportNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	conn   *gorm.DB
	tenant uuid.UUID
	seq    int
}

func newFixture(t *testing.T) (*fixture, Service) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil, func() time.Time { return reportNow })
	require.NoError(t, err)
	return &fixture{t: t, conn: conn, tenant: uuid.New()}, svc
}

func (f *fixture) product(tenantID uuid.UUID, sku string, qty, reorder int, cost, price string, status enums.ProductStatus) *models.Product {
	f.t.Helper()
	p := &models.Product{
		TenantID:        tenantID,
		SKU:             sku,
		Name:            "Item " + sku,
		CostPrice:       decimal.RequireFromString(cost),
		SellingPrice:    decimal.RequireFromString(price),
		QuantityOnHand:  qty,
		OpeningQuantity: qty,
		ReorderLevel:    reorder,
		Status:          status,
	}
	require.NoError(f.t, f.conn.Create(p).Error)
	return p
}

type line struct {
	product *models.Product
	qty     int
}

func (f *fixture) order(tenantID uuid.UUID, at time.Time, status enums.OrderStatus, method enums.PaymentMethod, tax, discount string, lines ...line) {
	f.t.Helper()
	f.seq++
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.product.SellingPrice.Mul(decimal.NewFromInt(int64(l.qty))))
	}
	taxAmount := decimal.RequireFromString(tax)
	discountAmount := decimal.RequireFromString(discount)
	order := &models.Order{
		TenantID:       tenantID,
		OrderNo:        fmt.Sprintf("ORD-%s-%05d", at.Format("20060102"), f.seq),
		CustomerName:   "Customer",
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		TotalAmount:    subtotal.Sub(discountAmount).Add(taxAmount),
		Status:         status,
		PaymentMethod:  method,
		CreatedBy:      uuid.New(),
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	require.NoError(f.t, f.conn.Omit("Items").Create(order).Error)
	for _, l := range lines {
		require.NoError(f.t, f.conn.Omit("Product").Create(&models.OrderItem{
			OrderID:   order.ID,
			ProductID: l.product.ID,
			Quantity:  l.qty,
			UnitPrice: l.product.SellingPrice,
			LineTotal: l.product.SellingPrice.Mul(decimal.NewFromInt(int64(l.qty))),
			CreatedAt: at,
		}).Error)
	}
}

func day(d, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func seedSales(f *fixture) (*models.Product, *models.Product) {
	pen := f.product(f.tenant, "PEN", 50, 10, "0.50", "2.00", enums.ProductStatusActive)
	pad := f.product(f.tenant, "PAD", 4, 5, "1.00", "3.50", enums.ProductStatusActive)

	f.order(f.tenant, day(5, 9), enums.OrderStatusCompleted, enums.PaymentMethodCash, "1.00", "0.00", line{pen, 3})
	f.order(f.tenant, day(5, 17), enums.OrderStatusCompleted, enums.PaymentMethodCard, "0.00", "0.50", line{pad, 2}, line{pen, 1})
	f.order(f.tenant, day(7, 12), enums.OrderStatusCompleted, enums.PaymentMethodCard, "0.00", "0.00", line{pen, 4})
	f.order(f.tenant, day(7, 13), enums.OrderStatusPending, enums.PaymentMethodCash, "0.00", "0.00", line{pad, 1})
	f.order(f.tenant, day(8, 13), enums.OrderStatusCancelled, enums.PaymentMethodCash, "0.00", "0.00", line{pad, 9})
	f.order(f.tenant, time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC), enums.OrderStatusCompleted, enums.PaymentMethodCash, "0.00", "0.00", line{pen, 7})

	foreign := f.product(uuid.New(), "FOREIGN", 10, 1, "1.00", "1.00", enums.ProductStatusActive)
	f.order(foreign.TenantID, day(5, 10), enums.OrderStatusCompleted, enums.PaymentMethodCash, "0.00", "0.00", line{foreign, 2})
	return pen, pad
}

func TestDailySalesCountsCompletedOrdersPerDay(t *testing.T) {
	f, svc := newFixture(t)
	seedSales(f)

	report, err := svc.DailySales(context.Background(), f.tenant, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", report.From)
	assert.Equal(t, "2024-03-20", report.To)
	require.Len(t, report.Rows, 2)

	latest := report.Rows[0]
	assert.Equal(t, Day("2024-03-07"), latest.Date)
	assert.EqualValues(t, 1, latest.OrderCount)
	assert.Equal(t, "8.00", latest.NetRevenue.StringFixed(2))

	first := report.Rows[1]
	assert.Equal(t, Day("2024-03-05"), first.Date)
	assert.EqualValues(t, 2, first.OrderCount)
	assert.Equal(t, "15.00", first.TotalRevenue.StringFixed(2))
	assert.Equal(t, "1.00", first.TotalTax.StringFixed(2))
	assert.Equal(t, "0.50", first.TotalDiscount.StringFixed(2))
	assert.Equal(t, "15.50", first.NetRevenue.StringFixed(2))

	assert.EqualValues(t, 3, report.TotalOrders)
	assert.Equal(t, "23.50", report.TotalRevenue.StringFixed(2))
}

func TestDailySalesExplicitRange(t *testing.T) {
	f, svc := newFixture(t)
	seedSales(f)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := day(5, 0)
	report, err := svc.DailySales(context.Background(), f.tenant, &from, &to)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, Day("2024-03-05"), report.Rows[0].Date)
	assert.Equal(t, Day("2024-02-27"), report.Rows[1].Date)

	_, err = svc.DailySales(context.Background(), f.tenant, &to, &from)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestTopProducts(t *testing.T) {
	f, svc := newFixture(t)
	pen, pad := seedSales(f)

	report, err := svc.TopProducts(context.Background(), f.tenant, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	assert.Equal(t, pen.ID, report.Rows[0].ProductID)
	assert.EqualValues(t, 8, report.Rows[0].TotalQuantity)
	assert.Equal(t, "16.00", report.Rows[0].TotalRevenue.StringFixed(2))
	assert.Equal(t, pad.ID, report.Rows[1].ProductID)
	assert.EqualValues(t, 2, report.Rows[1].TotalQuantity)

	limited, err := svc.TopProducts(context.Background(), f.tenant, nil, nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited.Rows, 1)
}

func TestInventorySummary(t *testing.T) {
	f, svc := newFixture(t)
	f.product(f.tenant, "A", 10, 2, "1.00", "2.50", enums.ProductStatusActive)
	f.product(f.tenant, "B", 3, 5, "2.00", "4.00", enums.ProductStatusActive)
	f.product(f.tenant, "C", 1, 5, "9.00", "9.00", enums.ProductStatusDiscontinued)
	f.product(uuid.New(), "D", 100, 1, "1.00", "1.00", enums.ProductStatusActive)

	summary, err := svc.InventorySummary(context.Background(), f.tenant)
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.Summary.TotalProducts)
	assert.EqualValues(t, 13, summary.Summary.TotalUnits)
	assert.Equal(t, "16.00", summary.Summary.TotalCostValue.StringFixed(2))
	assert.Equal(t, "37.00", summary.Summary.TotalSellingValue.StringFixed(2))
	assert.EqualValues(t, 1, summary.Summary.LowStockCount)
	assert.EqualValues(t, 2, summary.LowStockItems)
}

func TestInventorySummaryEmptyTenant(t *testing.T) {
	_, svc := newFixture(t)
	summary, err := svc.InventorySummary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, summary.Summary.TotalProducts)
	assert.True(t, summary.Summary.TotalCostValue.IsZero())
}

func TestSalesByPaymentMethod(t *testing.T) {
	f, svc := newFixture(t)
	seedSales(f)

	report, err := svc.SalesByPaymentMethod(context.Background(), f.tenant, nil, nil)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	byMethod := map[enums.PaymentMethod]PaymentMethodRow{}
	for _, row := range report.Rows {
		byMethod[row.PaymentMethod] = row
	}
	assert.EqualValues(t, 1, byMethod[enums.PaymentMethodCash].OrderCount)
	assert.Equal(t, "7.00", byMethod[enums.PaymentMethodCash].TotalAmount.StringFixed(2))
	assert.EqualValues(t, 2, byMethod[enums.PaymentMethodCard].OrderCount)
	assert.Equal(t, "16.50", byMethod[enums.PaymentMethodCard].TotalAmount.StringFixed(2))
}

func TestExportDailySalesWorkbook(t *testing.T) {
	f, svc := newFixture(t)
	seedSales(f)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportDailySales(context.Background(), f.tenant, nil, nil, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = book.Close() }()

	rows, err := book.GetRows(dailySalesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, dailySalesHeadings, rows[0])
	assert.Equal(t, "2024-03-07", rows[1][0])
	assert.Equal(t, "2024-03-05", rows[2][0])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "3", rows[3][1])
	assert.Equal(t, "23.5", rows[3][5])
}

func TestResolveRange(t *testing.T) {
	rng, err := ResolveRange(nil, nil, time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rng.From)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rng.To)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), rng.upper())
}

func TestDayScan(t *testing.T) {
	var d Day
	require.NoError(t, d.Scan(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Day("2024-03-05"), d)
	require.NoError(t, d.Scan("2024-03-06 00:00:00"))
	assert.Equal(t, Day("2024-03-06"), d)
	require.NoError(t, d.Scan([]byte("2024-03-07")))
	assert.Equal(t, Day("2024-03-07"), d)
	assert.Error(t, d.Scan(42))
}
