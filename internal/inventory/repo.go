package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

const ledgerDriftQuery = `
SELECT p.id AS product_id,
       p.tenant_id,
       p.sku,
       p.opening_quantity,
       p.quantity_on_hand,
       COALESCE(SUM(t.quantity), 0) AS ledger_total
FROM products p
LEFT JOIN inventory_transactions t ON t.product_id = p.id
GROUP BY p.id, p.tenant_id, p.sku, p.opening_quantity, p.quantity_on_hand
HAVING p.opening_quantity + COALESCE(SUM(t.quantity), 0) <> p.quantity_on_hand
ORDER BY p.tenant_id, p.sku`

// Repository reads stock state. Writes go through Ledger.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads a product regardless of tenant so callers can tell a
// missing product from a foreign one.
func (r *Repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type listTransactionsQuery struct {
	TenantID  uuid.UUID
	ProductID *uuid.UUID
	Type      *enums.TransactionType
	Limit     int
	Cursor    *pagination.Cursor
}

func (r *Repository) ListTransactions(ctx context.Context, params listTransactionsQuery) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryTransaction{}).
		Preload("Product").
		Where("tenant_id = ?", params.TenantID)
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.InventoryTransaction
	err := query.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// LowStockProducts returns active products at or under their reorder level,
// lowest stock first. A nil tenant scans every tenant.
func (r *Repository) LowStockProducts(ctx context.Context, tenantID *uuid.UUID) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND quantity_on_hand <= reorder_level", enums.ProductStatusActive)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	var products []models.Product
	err := query.Order("quantity_on_hand ASC, sku ASC").Find(&products).Error
	return products, err
}

func (r *Repository) FindLedgerDrift(ctx context.Context) ([]LedgerDrift, error) {
	var rows []LedgerDrift
	if err := r.db.WithContext(ctx).Raw(ledgerDriftQuery).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
