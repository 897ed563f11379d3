package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/metrics"
	"github.com/angelmondragon/bizops-backend/pkg/outbox"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

const (
	maxOrderLines    = 100
	maxLineQuantity  = 1000
	maxCustomerName  = 255
	minCustomerName  = 2
	maxContactLength = 20
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockLedger interface {
	Adjust(ctx context.Context, tx *gorm.DB, params inventory.AdjustParams) (int, *models.InventoryTransaction, error)
}

type sequencer interface {
	Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, now time.Time) (string, error)
}

// Service runs the order lifecycle. Tenant and actor always come in as
// arguments.
type Service interface {
	CreateOrder(ctx context.Context, tenantID, actorID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	CancelOrder(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*models.Order, error)
	CompleteOrder(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filters ListOrdersFilters, params pagination.Params) (*OrderList, error)
}

type ServiceParams struct {
	Repository *Repository
	TxRunner   txRunner
	Ledger     stockLedger
	Sequencer  sequencer
	Outbox     outboxEmitter
	Logger     *logger.Logger
	Metrics    *metrics.DomainMetrics
	Clock      func() time.Time
}

type service struct {
	repo      *Repository
	tx        txRunner
	ledger    stockLedger
	sequencer sequencer
	outbox    outboxEmitter
	logg      *logger.Logger
	metrics   *metrics.DomainMetrics
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Sequencer == nil {
		return nil, fmt.Errorf("order sequencer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repository,
		tx:        params.TxRunner,
		ledger:    params.Ledger,
		sequencer: params.Sequencer,
		outbox:    params.Outbox,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       clock,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, tenantID, actorID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		lines, err := s.quoteLines(ctx, txRepo, tenantID, input.Items)
		if err != nil {
			return err
		}
		totals := computeTotals(lines, input.DiscountAmount, input.TaxAmount)

		now := s.now()
		orderNo, err := s.sequencer.Next(ctx, tx, tenantID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order number")
		}

		order := &models.Order{
			TenantID:        tenantID,
			OrderNo:         orderNo,
			CustomerName:    input.CustomerName,
			CustomerContact: input.CustomerContact,
			Subtotal:        totals.subtotal,
			TaxAmount:       input.TaxAmount,
			DiscountAmount:  input.DiscountAmount,
			TotalAmount:     totals.total,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			PaymentReceived: input.PaymentReceived,
			CreatedBy:       actorID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		orderID = order.ID

		items := make([]models.OrderItem, len(lines))
		for i, line := range lines {
			items[i] = models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.product.ID,
				Quantity:  line.quantity,
				UnitPrice: line.unitPrice,
				LineTotal: line.lineTotal,
				CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			}
		}
		if err := txRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}

		reference := orderNo
		for _, line := range lines {
			if _, _, err := s.ledger.Adjust(ctx, tx, inventory.AdjustParams{
				TenantID:    tenantID,
				ProductID:   line.product.ID,
				Delta:       -line.quantity,
				Type:        enums.TransactionTypeSale,
				ReferenceNo: &reference,
				ActorID:     &actorID,
			}); err != nil {
				return err
			}
		}

		order.Items = items
		return s.emit(ctx, tx, enums.EventOrderCreated, order, actorID)
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.IncStockRejection("order")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.IncOrderCreated()
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	s.logOrder(ctx, "order.created", order)
	return order, nil
}

// quoteLines runs the up-front stock check and snapshots prices. Repeated
// products are checked against their combined quantity. The ledger guard
// remains the enforcement point under concurrency.
func (s *service) quoteLines(ctx context.Context, repo *Repository, tenantID uuid.UUID, items []OrderLineInput) ([]lineQuote, error) {
	products := make(map[uuid.UUID]*models.Product, len(items))
	requested := make(map[uuid.UUID]int, len(items))
	lines := make([]lineQuote, 0, len(items))

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			found, err := repo.FindTenantProduct(ctx, tenantID, item.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			product = found
			products[item.ProductID] = found
		}

		requested[item.ProductID] += item.Quantity
		if product.QuantityOnHand < requested[item.ProductID] {
			return nil, inventory.NewInsufficientStockError(product, requested[item.ProductID])
		}

		lines = append(lines, lineQuote{
			product:   product,
			quantity:  item.Quantity,
			unitPrice: product.SellingPrice,
			lineTotal: product.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines, nil
}

func (s *service) CancelOrder(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, tenantID, actorID, orderID, enums.OrderStatusCancelled)
}

func (s *service) CompleteOrder(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, tenantID, actorID, orderID, enums.OrderStatusCompleted)
}

// transition moves a pending order to a terminal status. Cancellation does not
// restock; the emitted event carries the lines for any downstream process.
func (s *service) transition(ctx context.Context, tenantID, actorID, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantOrder(ctx, txRepo, tenantID, orderID)
		if err != nil {
			return err
		}
		if !loaded.Status.CanTransitionTo(to) {
			return invalidTransition(loaded.Status, to)
		}

		now := s.now()
		ok, err := txRepo.UpdateStatus(ctx, orderID, loaded.Status, to, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return invalidTransition(loaded.Status, to)
		}
		loaded.Status = to
		loaded.UpdatedAt = now
		order = loaded

		return s.emit(ctx, tx, transitionEvent(to), loaded, actorID)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	s.metrics.IncOrderTransition(string(to))
	s.logOrder(ctx, "order."+string(to), order)
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return s.loadTenantOrder(ctx, s.repo, tenantID, orderID)
}

func (s *service) ListOrders(ctx context.Context, tenantID uuid.UUID, filters ListOrdersFilters, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	query := listOrdersQuery{
		TenantID: tenantID,
		Status:   filters.Status,
		Limit:    params.Limit,
		Cursor:   cursor,
	}
	if filters.FromDate != nil {
		from := startOfDay(*filters.FromDate)
		query.From = &from
	}
	if filters.ToDate != nil {
		to := startOfDay(*filters.ToDate).AddDate(0, 0, 1)
		query.To = &to
	}

	rows, err := s.repo.ListOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Paginate(rows, params.Limit, func(order models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
	})
	return &page, nil
}

func (s *service) loadTenantOrder(ctx context.Context, repo *Repository, tenantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
	}
	return order, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, actorID uuid.UUID) error {
	lines := make([]outbox.OrderLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = outbox.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}
	actor := actorID
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		TenantID:      order.TenantID,
		Actor:         &outbox.ActorRef{UserID: &actor, TenantID: order.TenantID},
		Data: outbox.OrderEvent{
			OrderID:       order.ID,
			TenantID:      order.TenantID,
			OrderNo:       order.OrderNo,
			Status:        string(order.Status),
			PaymentMethod: string(order.PaymentMethod),
			Subtotal:      order.Subtotal,
			TaxAmount:     order.TaxAmount,
			Discount:      order.DiscountAmount,
			TotalAmount:   order.TotalAmount,
			Lines:         lines,
			CreatedAt:     order.CreatedAt,
		},
		OccurredAt: s.now(),
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

func (s *service) logOrder(ctx context.Context, msg string, order *models.Order) {
	if s.logg == nil || order == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"tenant_id": order.TenantID.String(),
		"order_no":  order.OrderNo,
		"status":    string(order.Status),
		"total":     order.TotalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, msg)
}

func transitionEvent(to enums.OrderStatus) enums.OutboxEventType {
	if to == enums.OrderStatusCancelled {
		return enums.EventOrderCancelled
	}
	return enums.EventOrderCompleted
}

func invalidTransition(from, to enums.OrderStatus) error {
	verb := "completed"
	if to == enums.OrderStatusCancelled {
		verb = "cancelled"
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be "+verb).
		WithDetails(map[string]any{"status": from})
}

func validateCreateInput(input *CreateOrderInput) error {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	if n := len([]rune(input.CustomerName)); n < minCustomerName || n > maxCustomerName {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_name must be between 2 and 255 characters")
	}
	if input.CustomerContact != nil {
		contact := strings.TrimSpace(*input.CustomerContact)
		if contact == "" {
			input.CustomerContact = nil
		} else if len([]rune(contact)) > maxContactLength {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer_contact must be at most 20 characters")
		} else {
			input.CustomerContact = &contact
		}
	}
	if len(input.Items) == 0 || len(input.Items) > maxOrderLines {
		return pkgerrors.New(pkgerrors.CodeValidation, "items must contain between 1 and 100 entries")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if item.Quantity < 1 || item.Quantity > maxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be between 1 and 1000", i))
		}
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_method")
	}
	if input.DiscountAmount.IsNegative() || input.TaxAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_amount and tax_amount must be non-negative")
	}
	input.DiscountAmount = input.DiscountAmount.Round(2)
	input.TaxAmount = input.TaxAmount.Round(2)
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
