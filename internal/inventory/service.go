package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/metrics"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes manual stock adjustments and inventory reads.
type Service interface {
	AdjustStock(ctx context.Context, tenantID, actorID uuid.UUID, input AdjustStockInput) (*AdjustStockResult, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filters TransactionFilters, params pagination.Params) (*TransactionList, error)
	LowStockAlerts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	ledger  *Ledger
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

// ServiceParams wires the inventory service. Logger and Metrics are optional.
type ServiceParams struct {
	Repository *Repository
	TxRunner   txRunner
	Ledger     *Ledger
	Logger     *logger.Logger
	Metrics    *metrics.DomainMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	ledger := params.Ledger
	if ledger == nil {
		ledger = NewLedger()
	}
	return &service{
		repo:    params.Repository,
		tx:      params.TxRunner,
		ledger:  ledger,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *service) AdjustStock(ctx context.Context, tenantID, actorID uuid.UUID, input AdjustStockInput) (*AdjustStockResult, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAdjustment, "quantity change cannot be zero")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	notes := trimmedOrNil(input.Reason)
	var result AdjustStockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, entry, err := s.ledger.Adjust(ctx, tx, AdjustParams{
			TenantID:  tenantID,
			ProductID: input.ProductID,
			Delta:     input.Delta,
			Type:      enums.TransactionTypeAdjustment,
			Notes:     notes,
			ActorID:   &actorID,
		})
		if err != nil {
			return err
		}
		product, err := s.repo.WithTx(tx).FindProduct(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		result = AdjustStockResult{Product: product, Transaction: entry}
		return nil
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.IncStockRejection("adjustment")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}

	s.metrics.IncStockAdjustment(string(enums.TransactionTypeAdjustment))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"tenant_id":        tenantID.String(),
			"product_id":       input.ProductID.String(),
			"delta":            input.Delta,
			"quantity_on_hand": result.Product.QuantityOnHand,
		})
		s.logg.Info(logCtx, "inventory.adjusted")
	}
	return &result, nil
}

func (s *service) ListTransactions(ctx context.Context, tenantID uuid.UUID, filters TransactionFilters, params pagination.Params) (*TransactionList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}

	rows, err := s.repo.ListTransactions(ctx, listTransactionsQuery{
		TenantID:  tenantID,
		ProductID: filters.ProductID,
		Type:      filters.Type,
		Limit:     params.Limit,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}
	page := pagination.Paginate(rows, params.Limit, func(row models.InventoryTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &page, nil
}

func (s *service) LowStockAlerts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.LowStockProducts(ctx, &tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}
	return products, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
