package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const dailySalesSheet = "Daily Sales"

var dailySalesHeadings = []string{"Date", "Orders", "Revenue", "Tax", "Discount", "Net Revenue"}

// writeDailySalesWorkbook renders the report as one sheet with a totals row.
func writeDailySalesWorkbook(report *DailySalesReport, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dailySalesSheet); err != nil {
		return err
	}

	for i, heading := range dailySalesHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(dailySalesSheet, cell, heading); err != nil {
			return err
		}
	}

	row := 2
	for _, r := range report.Rows {
		values := []any{
			string(r.Date),
			r.OrderCount,
			r.TotalRevenue.InexactFloat64(),
			r.TotalTax.InexactFloat64(),
			r.TotalDiscount.InexactFloat64(),
			r.NetRevenue.InexactFloat64(),
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	if err := setRow(f, row, []any{"Total", report.TotalOrders, nil, nil, nil, report.TotalRevenue.InexactFloat64()}); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(dailySalesSheet, cell, &values); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}
