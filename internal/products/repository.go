package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

// editableColumns are the columns UpdateProduct may write. quantity_on_hand and
// opening_quantity are owned by the ledger and creation respectively.
var editableColumns = []string{"name", "description", "cost_price", "selling_price", "reorder_level", "status", "updated_at"}

// Repository persists catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without tenant filtering so callers can tell
// a foreign product from a missing one.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select(editableColumns).
		Updates(product).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// IsReferenced reports whether any order line or ledger row points at the product.
func (r *Repository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryTransaction{}).
		Where("product_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type productListQuery struct {
	TenantID uuid.UUID
	Status   *enums.ProductStatus
	LowStock bool
	Search   string
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *Repository) ListProducts(ctx context.Context, params productListQuery) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ?", params.TenantID)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.LowStock {
		query = query.Where("quantity_on_hand <= reorder_level")
	}
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(sku) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Product
	err := query.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}
