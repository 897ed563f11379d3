package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

// InventoryTransaction is an append-only stock movement. Quantity is the signed
// delta applied to the product's quantity_on_hand.
type InventoryTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TenantID    uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index:idx_inventory_tx_tenant_product,priority:1"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index:idx_inventory_tx_tenant_product,priority:2"`
	Type        enums.TransactionType `gorm:"column:type;type:inventory_transaction_type;not null"`
	Quantity    int                   `gorm:"column:quantity;not null"`
	ReferenceNo *string               `gorm:"column:reference_no"`
	Notes       *string               `gorm:"column:notes"`
	CreatedBy   *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime;index:idx_inventory_tx_tenant_product,priority:3"`
	Product     *Product              `gorm:"foreignKey:ProductID"`
}

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
