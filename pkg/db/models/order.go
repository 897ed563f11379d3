package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

// Order is a tenant's customer sale. Totals always satisfy
// total = subtotal - discount + tax.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_orders_tenant_order_no,priority:1;index:idx_orders_tenant_status,priority:1"`
	OrderNo         string              `gorm:"column:order_no;not null;uniqueIndex:idx_orders_tenant_order_no,priority:2"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerContact *string             `gorm:"column:customer_contact"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending';index:idx_orders_tenant_status,priority:2"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentReceived bool                `gorm:"column:payment_received;not null;default:false"`
	CreatedBy       uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index:idx_orders_tenant_status,priority:3"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable order line. UnitPrice snapshots the product's
// selling price when the order was placed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
