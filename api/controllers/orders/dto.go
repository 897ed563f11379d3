package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

type orderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductSKU  string          `json:"product_sku,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNo         string              `json:"order_no"`
	CustomerName    string              `json:"customer_name"`
	CustomerContact *string             `json:"customer_contact,omitempty"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentReceived bool                `json:"payment_received"`
	CreatedBy       uuid.UUID           `json:"created_by"`
	Items           []orderItemDTO      `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNo:         order.OrderNo,
		CustomerName:    order.CustomerName,
		CustomerContact: order.CustomerContact,
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentReceived: order.PaymentReceived,
		CreatedBy:       order.CreatedBy,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		line := orderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
		if item.Product != nil {
			line.ProductSKU = item.Product.SKU
			line.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

type createOrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type createOrderRequest struct {
	CustomerName    string                   `json:"customer_name" validate:"required,min=2,max=255"`
	CustomerContact *string                  `json:"customer_contact,omitempty" validate:"omitempty,max=20"`
	Items           []createOrderLineRequest `json:"items" validate:"required,min=1,max=100,dive"`
	PaymentMethod   string                   `json:"payment_method" validate:"required"`
	DiscountAmount  *decimal.Decimal         `json:"discount_amount,omitempty" validate:"omitempty,money"`
	TaxAmount       *decimal.Decimal         `json:"tax_amount,omitempty" validate:"omitempty,money"`
	PaymentReceived bool                     `json:"payment_received"`
}
