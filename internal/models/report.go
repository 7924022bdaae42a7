package models

import "time"

// Row is one labelled line of the report with a value per report date.
type Row struct {
	Label  string
	Values []Price
}

// Report is the derived table rendered and mailed at the end of a run.
type Report struct {
	Dates []time.Time
	Rows  []Row
}

// DateLabels returns the report dates formatted as YYYY-MM-DD.
func (r Report) DateLabels() []string {
	labels := make([]string, len(r.Dates))
	for i, d := range r.Dates {
		labels[i] = DateKey(d)
	}
	return labels
}
