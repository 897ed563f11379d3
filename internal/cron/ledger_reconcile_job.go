package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/metrics"
)

type driftFinder interface {
	FindLedgerDrift(ctx context.Context) ([]inventory.LedgerDrift, error)
}

type LedgerReconcileJobParams struct {
	Logger     *logger.Logger
	Repository driftFinder
	Metrics    *metrics.DomainMetrics
}

// NewLedgerReconcileJob checks that every product's on-hand quantity equals its
// opening quantity plus the sum of its ledger rows. Any mismatch fails the job.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &ledgerReconcileJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
	}, nil
}

type ledgerReconcileJob struct {
	logg    *logger.Logger
	repo    driftFinder
	metrics *metrics.DomainMetrics
}

func (j *ledgerReconcileJob) Name() string { return "ledger-reconcile" }

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	drifts, err := j.repo.FindLedgerDrift(ctx)
	if err != nil {
		return fmt.Errorf("find ledger drift: %w", err)
	}
	j.metrics.SetLedgerDrift(len(drifts))

	var errs error
	for _, drift := range drifts {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"tenant_id":        drift.TenantID.String(),
			"product_id":       drift.ProductID.String(),
			"sku":              drift.SKU,
			"opening_quantity": drift.OpeningQuantity,
			"ledger_total":     drift.LedgerTotal,
			"quantity_on_hand": drift.QuantityOnHand,
			"expected":         drift.Expected(),
		})
		j.logg.Warn(logCtx, "inventory.ledger_drift")
		errs = multierr.Append(errs, fmt.Errorf("product %s (%s): on hand %d, ledger expects %d",
			drift.ProductID, drift.SKU, drift.QuantityOnHand, drift.Expected()))
	}

	j.logg.Info(j.logg.WithField(ctx, "drifted_products", len(drifts)), "ledger reconciliation complete")
	return errs
}
