package bunker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/common"
	"github.com/ternarybob/oilreport/internal/models"
)

var (
	// ErrTableNotFound means no table had both a Port and a VLSFO header.
	ErrTableNotFound = errors.New("bunker price table not found")
	// ErrRowNotFound means no body row matched the target port.
	ErrRowNotFound = errors.New("port row not found in bunker price table")
	// ErrColumnMissing means one fuel had no column in the price table.
	ErrColumnMissing = errors.New("fuel column missing")
)

// columnIndex maps header positions. Missing fuels are absent from Fuels.
type columnIndex struct {
	Port  int
	Fuels map[models.Fuel]int
}

// mapHeaders classifies each header by substring. The first column that
// matches a key wins; later duplicates are ignored.
func mapHeaders(headers []string) columnIndex {
	idx := columnIndex{Port: -1, Fuels: make(map[models.Fuel]int, 3)}
	assign := func(f models.Fuel, i int) {
		if _, ok := idx.Fuels[f]; !ok {
			idx.Fuels[f] = i
		}
	}

	for i, h := range headers {
		switch {
		case strings.Contains(h, "VLSFO"):
			assign(models.FuelVLSFO, i)
		case strings.Contains(h, "MGO"):
			assign(models.FuelLSMGO, i)
		case strings.Contains(h, "IFO380"), strings.Contains(h, "HSFO"):
			assign(models.FuelHSFO, i)
		case strings.Contains(h, "Port"):
			if idx.Port < 0 {
				idx.Port = i
			}
		}
	}
	return idx
}

// isPriceTable reports whether the headers carry both a Port and a VLSFO column.
func (c columnIndex) isPriceTable() bool {
	_, hasVLSFO := c.Fuels[models.FuelVLSFO]
	return c.Port >= 0 && hasVLSFO
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts
}

// headerRow returns the header cell texts of a table and, when they were
// taken from a body row, that row so it can be skipped.
func headerRow(table *goquery.Selection) ([]string, *goquery.Selection) {
	if thead := table.ChildrenFiltered("thead"); thead.Length() > 0 {
		return cellTexts(thead.First().Find("th")), nil
	}
	first := table.Find("tr").First()
	if first.Length() == 0 {
		return nil, nil
	}
	return cellTexts(first.ChildrenFiltered("th, td")), first
}

// TableRow is the port row found in a price table.
type TableRow struct {
	Port   string
	Prices map[models.Fuel]models.Price
	Errors map[models.Fuel]error // Per-fuel failures, the fuel is absent from Prices
}

// ParseTable finds the price table in html and reads the row for port.
// Table, column and row misses are returned as errors. A fuel whose column
// is missing or whose cell does not parse is reported in TableRow.Errors.
func ParseTable(html, port string) (*TableRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var table *goquery.Selection
	var headerNode *goquery.Selection
	var columns columnIndex
	doc.Find("table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		headers, node := headerRow(s)
		idx := mapHeaders(headers)
		if idx.isPriceTable() {
			table, headerNode, columns = s, node, idx
			return false
		}
		return true
	})
	if table == nil {
		return nil, ErrTableNotFound
	}
	rows := table.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if s.ParentsFiltered("thead").Length() > 0 {
			return false
		}
		return headerNode == nil || !headerNode.IsSelection(s)
	})

	target := strings.TrimSpace(port)
	var cells []string
	rows.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		texts := cellTexts(s.ChildrenFiltered("th, td"))
		if columns.Port < len(texts) && strings.EqualFold(texts[columns.Port], target) {
			cells = texts
			return false
		}
		return true
	})
	if cells == nil {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, target)
	}

	result := &TableRow{
		Port:   cells[columns.Port],
		Prices: make(map[models.Fuel]models.Price, 3),
		Errors: make(map[models.Fuel]error),
	}
	for _, fuel := range models.AllFuels() {
		i, ok := columns.Fuels[fuel]
		if !ok {
			result.Errors[fuel] = ErrColumnMissing
			continue
		}
		if i >= len(cells) {
			result.Errors[fuel] = fmt.Errorf("row has %d cells, %s column is %d", len(cells), fuel, i)
			continue
		}
		price, err := models.ParsePrice(cells[i])
		if err != nil {
			result.Errors[fuel] = err
			continue
		}
		result.Prices[fuel] = price
	}
	return result, nil
}

// TableExtractor scans a multi-port price table for one port.
type TableExtractor struct {
	fetcher PageFetcher
	url     string
	port    string
	timeout time.Duration
	logger  arbor.ILogger
}

// NewTableExtractor creates a table-scan extractor.
func NewTableExtractor(fetcher PageFetcher, config ExtractorConfig, logger arbor.ILogger) *TableExtractor {
	return &TableExtractor{
		fetcher: fetcher,
		url:     config.URL,
		port:    config.Port,
		timeout: config.Timeout,
		logger:  logger,
	}
}

// Extract implements Extractor.
func (e *TableExtractor) Extract(ctx context.Context, dates []time.Time) models.BunkerPriceSet {
	set := models.NewBunkerPriceSet(dates)
	latest, ok := common.LatestDate(dates)
	if !ok {
		return set
	}

	html, err := fetchWithTimeout(ctx, e.fetcher, e.url, e.timeout)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", e.url).Str("stage", "fetch").Msg("Failed to fetch bunker price page, reporting N/A")
		return set
	}

	row, err := ParseTable(html, e.port)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", e.url).Str("port", e.port).Str("stage", stageOf(err)).Msg("Bunker price table unusable, reporting N/A")
		return set
	}

	for _, fuel := range models.AllFuels() {
		if err, failed := row.Errors[fuel]; failed {
			e.logger.Warn().Err(err).Str("port", e.port).Str("fuel", string(fuel)).Str("stage", "parse").Msg("Bunker price unavailable for fuel")
			continue
		}
		set.Series(fuel).Set(latest, row.Prices[fuel])
	}

	e.logger.Info().
		Str("port", row.Port).
		Str("date", models.DateKey(latest)).
		Int("fuels", len(row.Prices)).
		Msg("Bunker prices extracted from table")

	return set
}

func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrTableNotFound):
		return "table"
	case errors.Is(err, ErrRowNotFound):
		return "row"
	}
	return "parse"
}
