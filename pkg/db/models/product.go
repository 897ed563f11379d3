package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

// Product is a tenant-owned catalog entry with its current stock level.
// QuantityOnHand only moves through the inventory ledger; OpeningQuantity is the
// seed it started from and never changes.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index:idx_products_tenant_status,priority:1"`
	SKU             string              `gorm:"column:sku;not null;uniqueIndex:idx_products_sku"`
	Name            string              `gorm:"column:name;not null"`
	Description     *string             `gorm:"column:description"`
	CostPrice       decimal.Decimal     `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SellingPrice    decimal.Decimal     `gorm:"column:selling_price;type:numeric(12,2);not null"`
	QuantityOnHand  int                 `gorm:"column:quantity_on_hand;not null;default:0"`
	OpeningQuantity int                 `gorm:"column:opening_quantity;not null;default:0"`
	ReorderLevel    int                 `gorm:"column:reorder_level;not null;default:10"`
	Status          enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active';index:idx_products_tenant_status,priority:2"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the product is at or under its reorder level.
func (p Product) IsLowStock() bool {
	return p.QuantityOnHand <= p.ReorderLevel
}

// MarginPercentage returns (selling - cost) / selling * 100 rounded to two places.
// A zero cost yields zero.
func (p Product) MarginPercentage() decimal.Decimal {
	if p.CostPrice.IsZero() || p.SellingPrice.IsZero() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.CostPrice).
		Div(p.SellingPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
