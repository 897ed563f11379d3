package reports

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar range in UTC.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) lower() time.Time { return r.From }

// upper is the exclusive bound: midnight after To.
func (r DateRange) upper() time.Time { return r.To.AddDate(0, 0, 1) }

// Day is a calendar date that scans from DATE() results. Postgres hands back
// a time.Time and sqlite a string.
type Day string

func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Day(v.UTC().Format(dateLayout))
	case string:
		*d = Day(truncateDate(v))
	case []byte:
		*d = Day(truncateDate(string(v)))
	case nil:
		*d = ""
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func (d Day) Value() (driver.Value, error) {
	return string(d), nil
}

func truncateDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > len(dateLayout) {
		return value[:len(dateLayout)]
	}
	return value
}

type DailySalesRow struct {
	Date          Day             `json:"date" gorm:"column:date"`
	OrderCount    int64           `json:"order_count" gorm:"column:order_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue" gorm:"column:total_revenue"`
	TotalTax      decimal.Decimal `json:"total_tax" gorm:"column:total_tax"`
	TotalDiscount decimal.Decimal `json:"total_discount" gorm:"column:total_discount"`
	NetRevenue    decimal.Decimal `json:"net_revenue" gorm:"column:net_revenue"`
}

// DailySalesReport lists completed-order totals per day, newest first.
type DailySalesReport struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Rows         []DailySalesRow `json:"data"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int64           `json:"total_orders"`
}

type TopProductRow struct {
	ProductID     uuid.UUID       `json:"id" gorm:"column:id"`
	SKU           string          `json:"sku" gorm:"column:sku"`
	Name          string          `json:"name" gorm:"column:name"`
	SellingPrice  decimal.Decimal `json:"selling_price" gorm:"column:selling_price"`
	TotalQuantity int64           `json:"total_quantity" gorm:"column:total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue" gorm:"column:total_revenue"`
}

type TopProductsReport struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rows []TopProductRow `json:"data"`
}

type InventoryTotals struct {
	TotalProducts     int64           `json:"total_products" gorm:"column:total_products"`
	TotalUnits        int64           `json:"total_units" gorm:"column:total_units"`
	TotalCostValue    decimal.Decimal `json:"total_cost_value" gorm:"column:total_cost_value"`
	TotalSellingValue decimal.Decimal `json:"total_selling_value" gorm:"column:total_selling_value"`
	LowStockCount     int64           `json:"low_stock_count" gorm:"column:low_stock_count"`
}

// InventorySummary covers active products; LowStockItems counts every status.
type InventorySummary struct {
	Summary       InventoryTotals `json:"summary"`
	LowStockItems int64           `json:"low_stock_items"`
}

type PaymentMethodRow struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method" gorm:"column:payment_method"`
	OrderCount    int64               `json:"order_count" gorm:"column:order_count"`
	TotalAmount   decimal.Decimal     `json:"total_amount" gorm:"column:total_amount"`
}

type PaymentMethodReport struct {
	From string             `json:"from"`
	To   string             `json:"to"`
	Rows []PaymentMethodRow `json:"data"`
}
