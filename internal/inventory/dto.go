package inventory

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

// AdjustStockInput is a manual stock correction. Delta is signed.
type AdjustStockInput struct {
	ProductID uuid.UUID
	Delta     int
	Reason    *string
}

type AdjustStockResult struct {
	Product     *models.Product
	Transaction *models.InventoryTransaction
}

type TransactionFilters struct {
	ProductID *uuid.UUID
	Type      *enums.TransactionType
}

type TransactionList = pagination.Page[models.InventoryTransaction]

// LedgerDrift is a product whose on-hand quantity disagrees with its history.
type LedgerDrift struct {
	ProductID       uuid.UUID `gorm:"column:product_id"`
	TenantID        uuid.UUID `gorm:"column:tenant_id"`
	SKU             string    `gorm:"column:sku"`
	OpeningQuantity int       `gorm:"column:opening_quantity"`
	QuantityOnHand  int       `gorm:"column:quantity_on_hand"`
	LedgerTotal     int       `gorm:"column:ledger_total"`
}

// Expected is the quantity the transaction history implies.
func (d LedgerDrift) Expected() int {
	return d.OpeningQuantity + d.LedgerTotal
}
