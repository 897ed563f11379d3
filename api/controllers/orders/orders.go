package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/api/middleware"
	"github.com/angelmondragon/bizops-backend/api/responses"
	"github.com/angelmondragon/bizops-backend/api/validators"
	internalorders "github.com/angelmondragon/bizops-backend/internal/orders"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

// List returns the tenant's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), actor.TenantID, filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.Page[OrderDTO]{
			Items:      make([]OrderDTO, 0, len(list.Items)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Items {
			page.Items = append(page.Items, newOrderDTO(&list.Items[i]))
		}
		responses.WriteSuccess(w, page)
	}
}

// Detail returns one order with its lines.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), actor.TenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDTO(order))
	}
}

// Create places an order. Stock, numbering and the order_created event commit
// together or not at all.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), actor.TenantID, actor.UserID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderDTO(order))
	}
}

// Cancel moves a pending order to cancelled. Stock is not returned.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(s internalorders.Service) transitionFunc { return s.CancelOrder })
}

// Complete moves a pending order to completed.
func Complete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(s internalorders.Service) transitionFunc { return s.CompleteOrder })
}

type transitionFunc func(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*models.Order, error)

func transition(svc internalorders.Service, logg *logger.Logger, pick func(internalorders.Service) transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := pick(svc)(r.Context(), actor.TenantID, actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDTO(order))
	}
}

func (p createOrderRequest) toInput() (internalorders.CreateOrderInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(p.PaymentMethod))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	items := make([]internalorders.OrderLineInput, 0, len(p.Items))
	for _, item := range p.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, internalorders.OrderLineInput{ProductID: productID, Quantity: item.Quantity})
	}

	input := internalorders.CreateOrderInput{
		CustomerName:    strings.TrimSpace(p.CustomerName),
		CustomerContact: p.CustomerContact,
		Items:           items,
		PaymentMethod:   method,
		DiscountAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		PaymentReceived: p.PaymentReceived,
	}
	if p.DiscountAmount != nil {
		input.DiscountAmount = *p.DiscountAmount
	}
	if p.TaxAmount != nil {
		input.TaxAmount = *p.TaxAmount
	}
	return input, nil
}

func buildFilters(r *http.Request) (internalorders.ListOrdersFilters, error) {
	var filters internalorders.ListOrdersFilters
	status, err := validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus)
	if err != nil {
		return filters, err
	}
	from, err := validators.ParseQueryDate(r, "from_date")
	if err != nil {
		return filters, err
	}
	to, err := validators.ParseQueryDate(r, "to_date")
	if err != nil {
		return filters, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "to_date must not be before from_date")
	}
	filters.Status = status
	filters.FromDate = from
	filters.ToDate = to
	return filters, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
}

func requireActor(r *http.Request) (middleware.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return middleware.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	return actor, nil
}
