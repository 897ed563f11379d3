package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
)

// guardedAdjustSQL applies delta only while the result stays non-negative.
// Under Postgres row locking a concurrent writer re-evaluates the predicate
// against the committed quantity, so two decrements can never oversell.
const guardedAdjustSQL = `
UPDATE products
SET quantity_on_hand = quantity_on_hand + ?, updated_at = ?
WHERE id = ? AND tenant_id = ? AND quantity_on_hand + ? >= 0
RETURNING quantity_on_hand`

// AdjustParams describes one stock movement.
type AdjustParams struct {
	TenantID    uuid.UUID
	ProductID   uuid.UUID
	Delta       int
	Type        enums.TransactionType
	ReferenceNo *string
	Notes       *string
	ActorID     *uuid.UUID
}

// InsufficientStockDetails is attached to INSUFFICIENT_STOCK errors.
type InsufficientStockDetails struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Available   int       `json:"available"`
	Requested   int       `json:"requested"`
}

// NewInsufficientStockError builds the coded error shared by the ledger and
// the order pre-check.
func NewInsufficientStockError(product *models.Product, requested int) error {
	return pkgerrors.New(
		pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s", product.Name),
	).WithDetails(InsufficientStockDetails{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.QuantityOnHand,
		Requested:   requested,
	})
}

// Ledger is the only writer of products.quantity_on_hand after creation.
type Ledger struct {
	now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: func() time.Time { return time.Now().UTC() }}
}

// Adjust moves the product's stock by params.Delta and appends the matching
// transaction, both on tx. Nothing is written when the result would go negative.
func (l *Ledger) Adjust(ctx context.Context, tx *gorm.DB, params AdjustParams) (int, *models.InventoryTransaction, error) {
	if tx == nil {
		return 0, nil, errors.New("transaction required")
	}
	if !params.Type.IsValid() {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", params.Type))
	}
	if params.Delta == 0 {
		return 0, nil, pkgerrors.New(pkgerrors.CodeInvalidAdjustment, "quantity change cannot be zero")
	}
	now := l.now()

	var updated []struct {
		QuantityOnHand int
	}
	if err := tx.WithContext(ctx).
		Raw(guardedAdjustSQL, params.Delta, now, params.ProductID, params.TenantID, params.Delta).
		Scan(&updated).Error; err != nil {
		// The products CHECK constraint backs up the guard. The transaction is
		// unusable after it fires, so the product is not reloaded.
		if db.IsCheckViolation(err) {
			return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock").
				WithDetails(InsufficientStockDetails{ProductID: params.ProductID, Requested: -params.Delta})
		}
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}

	if len(updated) == 0 {
		var product models.Product
		err := tx.WithContext(ctx).
			Where("id = ? AND tenant_id = ?", params.ProductID, params.TenantID).
			First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err != nil {
			return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		return 0, nil, NewInsufficientStockError(&product, -params.Delta)
	}

	entry := &models.InventoryTransaction{
		TenantID:    params.TenantID,
		ProductID:   params.ProductID,
		Type:        params.Type,
		Quantity:    params.Delta,
		ReferenceNo: params.ReferenceNo,
		Notes:       params.Notes,
		CreatedBy:   params.ActorID,
		CreatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert inventory transaction")
	}

	return updated[0].QuantityOnHand, entry, nil
}
