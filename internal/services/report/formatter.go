package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/oilreport/internal/models"
)

const (
	// DefaultLabelWidth fits the longest standard row label.
	DefaultLabelWidth = 35
	// DefaultValueWidth fits prices up to four integer digits.
	DefaultValueWidth = 6

	// Delimiter separates the label and value cells.
	Delimiter = " | "
)

// Row labels
const (
	LabelWTI   = "WTI crude price"
	LabelBrent = "Brent crude price"
)

// BunkerLabel returns the row label for a fuel at a port.
func BunkerLabel(port string, fuel models.Fuel) string {
	return fmt.Sprintf("%s %s bunker price", port, fuel)
}

// BuildReport assembles the rows in report order: WTI, Brent, then the
// port's VLSFO, LSMGO and HSFO.
func BuildReport(dates []time.Time, wti, brent models.PriceSeries, bunker models.BunkerPriceSet, port string) models.Report {
	rows := []models.Row{
		{Label: LabelWTI, Values: wti.Values(dates)},
		{Label: LabelBrent, Values: brent.Values(dates)},
	}
	for _, fuel := range models.AllFuels() {
		rows = append(rows, models.Row{
			Label:  BunkerLabel(port, fuel),
			Values: bunker.Series(fuel).Values(dates),
		})
	}
	return models.Report{Dates: dates, Rows: rows}
}

// Formatter renders a report as a fixed-width, pipe-delimited table.
type Formatter struct {
	LabelWidth int
	ValueWidth int
}

// NewFormatter returns a formatter with the given widths. Non-positive
// widths fall back to the defaults.
func NewFormatter(labelWidth, valueWidth int) Formatter {
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}
	if valueWidth <= 0 {
		valueWidth = DefaultValueWidth
	}
	return Formatter{LabelWidth: labelWidth, ValueWidth: valueWidth}
}

// FormatLine pads the label and each cell, left-justified, and joins them.
// Cells longer than their width are never truncated.
func (f Formatter) FormatLine(label string, cells []string) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = fmt.Sprintf("%-*s", f.ValueWidth, c)
	}
	return fmt.Sprintf("%-*s", f.LabelWidth, label) + Delimiter + strings.Join(padded, Delimiter)
}

// FormatRow renders one price row.
func (f Formatter) FormatRow(row models.Row) string {
	cells := make([]string, len(row.Values))
	for i, v := range row.Values {
		cells[i] = v.String()
	}
	return f.FormatLine(row.Label, cells)
}

// FormatHeader renders the blank-label date header.
func (f Formatter) FormatHeader(dates []time.Time) string {
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = models.DateKey(d)
	}
	return f.FormatLine("", labels)
}

// Format renders the header, a dash separator as wide as the header, and
// one line per row.
func (f Formatter) Format(r models.Report) string {
	header := f.FormatHeader(r.Dates)
	lines := make([]string, 0, len(r.Rows)+2)
	lines = append(lines, header, strings.Repeat("-", len(header)))
	for _, row := range r.Rows {
		lines = append(lines, f.FormatRow(row))
	}
	return strings.Join(lines, "\n")
}
