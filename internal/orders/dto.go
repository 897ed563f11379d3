package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

// CreateOrderInput is the validated payload for a new order.
type CreateOrderInput struct {
	CustomerName    string
	CustomerContact *string
	Items           []OrderLineInput
	PaymentMethod   enums.PaymentMethod
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	PaymentReceived bool
}

type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ListOrdersFilters narrows the order listing. Dates are inclusive calendar days.
type ListOrdersFilters struct {
	Status   *enums.OrderStatus
	FromDate *time.Time
	ToDate   *time.Time
}

type OrderList = pagination.Page[models.Order]

type lineQuote struct {
	product   *models.Product
	quantity  int
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
}

type orderTotals struct {
	subtotal decimal.Decimal
	total    decimal.Decimal
}

func computeTotals(lines []lineQuote, discount, tax decimal.Decimal) orderTotals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.lineTotal)
	}
	return orderTotals{
		subtotal: subtotal,
		total:    subtotal.Sub(discount).Add(tax),
	}
}
