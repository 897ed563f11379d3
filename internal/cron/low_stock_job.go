package cron

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/outbox"
)

const (
	defaultLowStockDedupTTL = 24 * time.Hour
	lowStockDedupeScope     = "low_stock"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockReader interface {
	LowStockProducts(ctx context.Context, tenantID *uuid.UUID) ([]models.Product, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	DedupeKey(scope string, parts ...string) string
}

type LowStockJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository lowStockReader
	Outbox     outboxEmitter
	Dedupe     dedupeStore
	DedupeTTL  time.Duration
}

// NewLowStockJob emits inventory_low_stock for products at or under their
// reorder level. A Redis marker keyed by product and quantity suppresses
// repeats until the quantity changes or the marker expires.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Dedupe == nil {
		return nil, fmt.Errorf("dedupe store required")
	}
	ttl := params.DedupeTTL
	if ttl <= 0 {
		ttl = defaultLowStockDedupTTL
	}
	return &lowStockJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repository,
		outbox: params.Outbox,
		dedupe: params.Dedupe,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type lowStockJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   lowStockReader
	outbox outboxEmitter
	dedupe dedupeStore
	ttl    time.Duration
	now    func() time.Time
}

func (j *lowStockJob) Name() string { return "low-stock-alerts" }

func (j *lowStockJob) Run(ctx context.Context) error {
	products, err := j.repo.LowStockProducts(ctx, nil)
	if err != nil {
		return fmt.Errorf("list low stock products: %w", err)
	}

	var (
		errs    error
		emitted int
	)
	for i := range products {
		sent, err := j.alert(ctx, &products[i])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", products[i].ID, err))
			continue
		}
		if sent {
			emitted++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_stock_products": len(products),
		"alerts_emitted":     emitted,
		"alerts_failed":      len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}

func (j *lowStockJob) alert(ctx context.Context, product *models.Product) (bool, error) {
	key := j.dedupe.DedupeKey(lowStockDedupeScope, product.TenantID.String(), product.ID.String(), strconv.Itoa(product.QuantityOnHand))
	fresh, err := j.dedupe.SetNX(ctx, key, "1", j.ttl)
	if err != nil {
		return false, fmt.Errorf("dedupe marker: %w", err)
	}
	if !fresh {
		return false, nil
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			TenantID:      product.TenantID,
			Data: outbox.LowStockEvent{
				ProductID:      product.ID,
				TenantID:       product.TenantID,
				SKU:            product.SKU,
				Name:           product.Name,
				QuantityOnHand: product.QuantityOnHand,
				ReorderLevel:   product.ReorderLevel,
			},
			OccurredAt: j.now().UTC(),
		})
	})
	if err != nil {
		if delErr := j.dedupe.Del(ctx, key); delErr != nil {
			err = multierr.Append(err, fmt.Errorf("clear dedupe marker: %w", delErr))
		}
		return false, err
	}
	return true, nil
}
