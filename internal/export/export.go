// Package export writes a portfolio view as a PDF report or an XLSX workbook.
// Exporters only format what the view already holds.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ErrUnavailable is returned for a format that is unknown or switched off.
var ErrUnavailable = errors.New("export format unavailable")

type Exporter interface {
	Format() Format
	ContentType() string
	Write(w io.Writer, v analytics.View) error
}

// Filename is the download name for address in format.
func Filename(address string, format Format) string {
	return fmt.Sprintf("polymarket-%s.%s", strings.ToLower(address), format)
}

type Registry struct {
	exporters map[Format]Exporter
}

func NewRegistry(exporters ...Exporter) *Registry {
	r := &Registry{exporters: make(map[Format]Exporter, len(exporters))}
	for _, e := range exporters {
		if e != nil {
			r.exporters[e.Format()] = e
		}
	}
	return r
}

// Get returns the exporter for name, or an error wrapping ErrUnavailable.
func (r *Registry) Get(name string) (Exporter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	if r != nil {
		if e, ok := r.exporters[format]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnavailable, name)
}

func (r *Registry) Formats() []Format {
	if r == nil {
		return nil
	}
	out := make([]Format, 0, len(r.exporters))
	for f := range r.exporters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SummaryRows are the label/value pairs shown at the top of every export.
func SummaryRows(v analytics.View) [][2]string {
	rows := [][2]string{{"Address", v.Address}}
	if v.QuickValue != nil {
		rows = append(rows, [2]string{"Reported value", Money(*v.QuickValue)})
	}
	if v.Summary == nil {
		return append(rows, [2]string{"Summary", "unavailable"})
	}
	s := v.Summary
	return append(rows,
		[2]string{"Total value", Money(s.TotalValue)},
		[2]string{"Unrealized PnL", Money(s.UnrealizedPnL)},
		[2]string{"Realized PnL", Money(s.RealizedPnL)},
		[2]string{"Return", Percent(s.ReturnPct)},
		[2]string{"Win rate", fmt.Sprintf("%s (%d W / %d L)", Percent(s.WinRate), s.Wins, s.Losses)},
		[2]string{"Rank", s.Rank},
		[2]string{"Open positions", fmt.Sprintf("%d", s.OpenPositions)},
		[2]string{"Closed positions", fmt.Sprintf("%d", s.ClosedPositions)},
	)
}

func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func Percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}
