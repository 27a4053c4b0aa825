package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
)

// PDF renders a portrait A4 report with the summary and the three tables.
type PDF struct {
	// Now stamps the report; defaults to time.Now.
	Now func() time.Time
}

func (PDF) Format() Format      { return FormatPDF }
func (PDF) ContentType() string { return "application/pdf" }

type pdfColumn struct {
	title string
	width float64
	align string
}

func (p PDF) Write(w io.Writer, v analytics.View) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Polymarket portfolio "+v.Address, true)
	doc.SetCreator("pmexport", true)
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, "Polymarket portfolio", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 5, fmt.Sprintf("Generated %s", now().UTC().Format(time.RFC1123)), "", 1, "L", false, 0, "")
	doc.Ln(4)

	section(doc, "Summary")
	doc.SetFont("Helvetica", "", 10)
	for _, row := range SummaryRows(v) {
		doc.CellFormat(45, 6, tr(row[0]), "", 0, "L", false, 0, "")
		doc.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	section(doc, "Open positions")
	table(doc, tr, []pdfColumn{
		{"Market", 80, "L"}, {"Outcome", 22, "L"}, {"Size", 22, "R"}, {"Value", 32, "R"}, {"PnL", 32, "R"},
	}, len(v.Positions), func(i int) []string {
		r := v.Positions[i]
		return []string{r.Market, r.Outcome, r.Size.StringFixed(2), Money(r.Value), Money(r.PnL)}
	})

	section(doc, "Closed positions")
	table(doc, tr, []pdfColumn{
		{"Market", 80, "L"}, {"Outcome", 22, "L"}, {"Cost basis", 30, "R"}, {"Realized PnL", 30, "R"}, {"Closed", 26, "R"},
	}, len(v.Closed), func(i int) []string {
		r := v.Closed[i]
		closed := ""
		if r.ClosedAt != nil {
			closed = r.ClosedAt.UTC().Format("2006-01-02")
		}
		return []string{r.Market, r.Outcome, Money(r.CostBasis), Money(r.RealizedPnL), closed}
	})

	section(doc, "Activity")
	table(doc, tr, []pdfColumn{
		{"Time", 32, "L"}, {"Type", 22, "L"}, {"Market", 84, "L"}, {"Side", 14, "L"}, {"USDC", 36, "R"},
	}, len(v.Activity), func(i int) []string {
		r := v.Activity[i]
		at := ""
		if !r.Time.IsZero() {
			at = r.Time.UTC().Format("2006-01-02 15:04")
		}
		return []string{at, r.Kind, r.Market, r.Side, Money(r.USDC)}
	})

	if err := doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return doc.Output(w)
}

func section(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func table(doc *fpdf.Fpdf, tr func(string) string, cols []pdfColumn, n int, row func(int) []string) {
	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	for _, c := range cols {
		doc.CellFormat(c.width, 6, c.title, "1", 0, c.align, true, 0, "")
	}
	doc.Ln(-1)
	doc.SetFont("Helvetica", "", 8)
	if n == 0 {
		doc.CellFormat(0, 6, "No rows", "1", 1, "L", false, 0, "")
	}
	for i := 0; i < n; i++ {
		cells := row(i)
		for j, c := range cols {
			doc.CellFormat(c.width, 5, fit(doc, tr(cells[j]), c.width-2), "1", 0, c.align, false, 0, "")
		}
		doc.Ln(-1)
	}
	doc.Ln(4)
}

// fit shortens s until it is at most width mm wide in the current font.
func fit(doc *fpdf.Fpdf, s string, width float64) string {
	if doc.GetStringWidth(s) <= width {
		return s
	}
	r := []byte(s)
	for len(r) > 0 && doc.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
