package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

const dailySalesQuery = `
SELECT DATE(created_at) AS date,
       COUNT(*) AS order_count,
       COALESCE(SUM(subtotal), 0) AS total_revenue,
       COALESCE(SUM(tax_amount), 0) AS total_tax,
       COALESCE(SUM(discount_amount), 0) AS total_discount,
       COALESCE(SUM(total_amount), 0) AS net_revenue
FROM orders
WHERE tenant_id = ?
  AND status = ?
  AND created_at >= ?
  AND created_at < ?
GROUP BY DATE(created_at)
ORDER BY DATE(created_at) DESC`

const topProductsQuery = `
SELECT p.id,
       p.sku,
       p.name,
       p.selling_price,
       SUM(oi.quantity) AS total_quantity,
       COALESCE(SUM(oi.line_total), 0) AS total_revenue
FROM order_items oi
JOIN products p ON p.id = oi.product_id
JOIN orders o ON o.id = oi.order_id
WHERE o.tenant_id = ?
  AND o.status = ?
  AND o.created_at >= ?
  AND o.created_at < ?
GROUP BY p.id, p.sku, p.name, p.selling_price
ORDER BY total_quantity DESC, p.sku ASC
LIMIT ?`

const inventoryTotalsQuery = `
SELECT COUNT(*) AS total_products,
       COALESCE(SUM(quantity_on_hand), 0) AS total_units,
       COALESCE(SUM(quantity_on_hand * cost_price), 0) AS total_cost_value,
       COALESCE(SUM(quantity_on_hand * selling_price), 0) AS total_selling_value,
       COALESCE(SUM(CASE WHEN quantity_on_hand <= reorder_level THEN 1 ELSE 0 END), 0) AS low_stock_count
FROM products
WHERE tenant_id = ?
  AND status = ?`

const paymentMethodQuery = `
SELECT payment_method,
       COUNT(*) AS order_count,
       COALESCE(SUM(total_amount), 0) AS total_amount
FROM orders
WHERE tenant_id = ?
  AND status = ?
  AND created_at >= ?
  AND created_at < ?
GROUP BY payment_method
ORDER BY payment_method`

// Repository runs the read-only report aggregations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DailySales(ctx context.Context, tenantID uuid.UUID, rng DateRange) ([]DailySalesRow, error) {
	var rows []DailySalesRow
	err := r.db.WithContext(ctx).
		Raw(dailySalesQuery, tenantID, enums.OrderStatusCompleted, rng.lower(), rng.upper()).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) TopProducts(ctx context.Context, tenantID uuid.UUID, rng DateRange, limit int) ([]TopProductRow, error) {
	var rows []TopProductRow
	err := r.db.WithContext(ctx).
		Raw(topProductsQuery, tenantID, enums.OrderStatusCompleted, rng.lower(), rng.upper(), limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) InventoryTotals(ctx context.Context, tenantID uuid.UUID) (InventoryTotals, error) {
	var totals InventoryTotals
	err := r.db.WithContext(ctx).
		Raw(inventoryTotalsQuery, tenantID, enums.ProductStatusActive).
		Scan(&totals).Error
	return totals, err
}

func (r *Repository) LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("products").
		Where("tenant_id = ? AND quantity_on_hand <= reorder_level", tenantID).
		Count(&count).Error
	return count, err
}

func (r *Repository) SalesByPaymentMethod(ctx context.Context, tenantID uuid.UUID, rng DateRange) ([]PaymentMethodRow, error) {
	var rows []PaymentMethodRow
	err := r.db.WithContext(ctx).
		Raw(paymentMethodQuery, tenantID, enums.OrderStatusCompleted, rng.lower(), rng.upper()).
		Scan(&rows).Error
	return rows, err
}
