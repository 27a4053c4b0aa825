package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
)

const (
	SheetSummary  = "Summary"
	SheetOpen     = "Open Positions"
	SheetClosed   = "Closed Positions"
	SheetActivity = "Activity"
	SheetVolume   = "Daily Volume"
)

// XLSX writes one sheet per table plus a summary sheet. Amounts are numeric
// cells so they can be summed in the spreadsheet.
type XLSX struct{}

func (XLSX) Format() Format { return FormatXLSX }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Write(w io.Writer, v analytics.View) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	summary := make([][]any, 0, 12)
	for _, row := range SummaryRows(v) {
		summary = append(summary, []any{row[0], row[1]})
	}
	if err := writeSheet(f, SheetSummary, header, []string{"Metric", "Value"}, summary, []float64{22, 60}); err != nil {
		return err
	}

	open := make([][]any, 0, len(v.Positions))
	for _, r := range v.Positions {
		open = append(open, []any{
			r.Market, r.Outcome, r.Size.InexactFloat64(), r.AvgPrice.InexactFloat64(), r.CurPrice.InexactFloat64(),
			r.Value.InexactFloat64(), r.PnL.InexactFloat64(), r.PnLPct.InexactFloat64(), r.EndDate, r.URL,
		})
	}
	if err := writeSheet(f, SheetOpen, header,
		[]string{"Market", "Outcome", "Size", "Avg price", "Current price", "Value", "PnL", "PnL %", "End date", "Link"},
		open, []float64{50, 12, 12, 10, 12, 14, 14, 10, 14, 50}); err != nil {
		return err
	}

	closed := make([][]any, 0, len(v.Closed))
	for _, r := range v.Closed {
		at := ""
		if r.ClosedAt != nil {
			at = r.ClosedAt.UTC().Format("2006-01-02 15:04:05")
		}
		closed = append(closed, []any{
			r.Market, r.Outcome, r.AvgPrice.InexactFloat64(), r.TotalBought.InexactFloat64(),
			r.CostBasis.InexactFloat64(), r.RealizedPnL.InexactFloat64(), at, r.URL,
		})
	}
	if err := writeSheet(f, SheetClosed, header,
		[]string{"Market", "Outcome", "Avg price", "Total bought", "Cost basis", "Realized PnL", "Closed at", "Link"},
		closed, []float64{50, 12, 10, 14, 14, 14, 20, 50}); err != nil {
		return err
	}

	activity := make([][]any, 0, len(v.Activity))
	for _, r := range v.Activity {
		at := ""
		if !r.Time.IsZero() {
			at = r.Time.UTC().Format("2006-01-02 15:04:05")
		}
		activity = append(activity, []any{
			at, r.Kind, r.Market, r.Side, r.Size.InexactFloat64(), r.Price.InexactFloat64(), r.USDC.InexactFloat64(), r.TxHash,
		})
	}
	if err := writeSheet(f, SheetActivity, header,
		[]string{"Time", "Type", "Market", "Side", "Size", "Price", "USDC", "Transaction"},
		activity, []float64{20, 12, 50, 8, 12, 10, 14, 68}); err != nil {
		return err
	}

	volume := make([][]any, 0, len(v.Volume))
	for _, p := range v.Volume {
		volume = append(volume, []any{p.Date, p.Trades, p.Volume.InexactFloat64(), p.SMA})
	}
	if err := writeSheet(f, SheetVolume, header,
		[]string{"Date", "Trades", "Volume", "Moving average"},
		volume, []float64{12, 10, 16, 16}); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]any, widths []float64) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil {
		return err
	} else if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
