package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one line of an order as carried in order events.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderEvent is the payload for order_created, order_cancelled and
// order_completed. Lines let consumers restock after a cancellation.
type OrderEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	TenantID      uuid.UUID       `json:"tenantId"`
	OrderNo       string          `json:"orderNo"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Discount      decimal.Decimal `json:"discountAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LowStockEvent is the payload for inventory_low_stock.
type LowStockEvent struct {
	ProductID      uuid.UUID `json:"productId"`
	TenantID       uuid.UUID `json:"tenantId"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	QuantityOnHand int       `json:"quantityOnHand"`
	ReorderLevel   int       `json:"reorderLevel"`
}
