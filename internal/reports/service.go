package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
)

const (
	defaultTopProducts = 10
	maxTopProducts     = 100
)

// Service serves tenant reports. Sales figures only count completed orders.
type Service interface {
	DailySales(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*DailySalesReport, error)
	TopProducts(ctx context.Context, tenantID uuid.UUID, from, to *time.Time, limit int) (*TopProductsReport, error)
	InventorySummary(ctx context.Context, tenantID uuid.UUID) (*InventorySummary, error)
	SalesByPaymentMethod(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*PaymentMethodReport, error)
	ExportDailySales(ctx context.Context, tenantID uuid.UUID, from, to *time.Time, w io.Writer) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, logg: logg, now: clock}, nil
}

// ResolveRange fills the default range (first of the month through today)
// and rejects inverted bounds.
func ResolveRange(from, to *time.Time, now time.Time) (DateRange, error) {
	now = now.UTC()
	rng := DateRange{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   truncateDay(now),
	}
	if from != nil {
		rng.From = truncateDay(*from)
	}
	if to != nil {
		rng.To = truncateDay(*to)
	}
	if rng.To.Before(rng.From) {
		return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	return rng, nil
}

func (s *service) DailySales(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*DailySalesReport, error) {
	rng, err := ResolveRange(from, to, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.DailySales(ctx, tenantID, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "daily sales report")
	}

	report := &DailySalesReport{
		From:         rng.From.Format(dateLayout),
		To:           rng.To.Format(dateLayout),
		Rows:         make([]DailySalesRow, 0, len(rows)),
		TotalRevenue: decimal.Zero,
	}
	for _, row := range rows {
		row.TotalRevenue = row.TotalRevenue.Round(2)
		row.TotalTax = row.TotalTax.Round(2)
		row.TotalDiscount = row.TotalDiscount.Round(2)
		row.NetRevenue = row.NetRevenue.Round(2)
		report.Rows = append(report.Rows, row)
		report.TotalRevenue = report.TotalRevenue.Add(row.NetRevenue)
		report.TotalOrders += row.OrderCount
	}
	return report, nil
}

func (s *service) TopProducts(ctx context.Context, tenantID uuid.UUID, from, to *time.Time, limit int) (*TopProductsReport, error) {
	rng, err := ResolveRange(from, to, s.now())
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultTopProducts
	case limit > maxTopProducts:
		limit = maxTopProducts
	}

	rows, err := s.repo.TopProducts(ctx, tenantID, rng, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top products report")
	}
	for i := range rows {
		rows[i].TotalRevenue = rows[i].TotalRevenue.Round(2)
	}
	if rows == nil {
		rows = []TopProductRow{}
	}
	return &TopProductsReport{
		From: rng.From.Format(dateLayout),
		To:   rng.To.Format(dateLayout),
		Rows: rows,
	}, nil
}

func (s *service) InventorySummary(ctx context.Context, tenantID uuid.UUID) (*InventorySummary, error) {
	totals, err := s.repo.InventoryTotals(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory summary")
	}
	lowStock, err := s.repo.LowStockCount(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "low stock count")
	}
	totals.TotalCostValue = totals.TotalCostValue.Round(2)
	totals.TotalSellingValue = totals.TotalSellingValue.Round(2)
	return &InventorySummary{Summary: totals, LowStockItems: lowStock}, nil
}

func (s *service) SalesByPaymentMethod(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*PaymentMethodReport, error) {
	rng, err := ResolveRange(from, to, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.SalesByPaymentMethod(ctx, tenantID, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales by payment method")
	}
	for i := range rows {
		rows[i].TotalAmount = rows[i].TotalAmount.Round(2)
	}
	if rows == nil {
		rows = []PaymentMethodRow{}
	}
	return &PaymentMethodReport{
		From: rng.From.Format(dateLayout),
		To:   rng.To.Format(dateLayout),
		Rows: rows,
	}, nil
}

func (s *service) ExportDailySales(ctx context.Context, tenantID uuid.UUID, from, to *time.Time, w io.Writer) error {
	report, err := s.DailySales(ctx, tenantID, from, to)
	if err != nil {
		return err
	}
	if err := writeDailySalesWorkbook(report, w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render daily sales workbook")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"tenant_id": tenantID.String(),
			"from":      report.From,
			"to":        report.To,
			"rows":      len(report.Rows),
		}), "reports.daily_sales_exported")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
