package bunker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/common"
	"github.com/ternarybob/oilreport/internal/models"
)

// ErrPatternNotFound means a fuel's label, unit and price did not appear in the page text.
var ErrPatternNotFound = errors.New("bunker price pattern not found")

// fuelLabel finds every fuel label in page text. The text between one label
// and the next is that fuel's segment.
var fuelLabel = regexp.MustCompile(`(?i)\b(?:VLSFO|(?:LS)?MGO|HSFO|IFO380)\b`)

// segmentPrice matches, from the start of a segment: label, then "$/mt",
// then "$" and the price. Markdown escaping may put a backslash before "$" or ".".
var segmentPrice = regexp.MustCompile(`(?is)^\w+.{0,80}?\\?\$\s*/\s*mt.{0,40}?\\?\$\s*([0-9][0-9,]*(?:\\?\.[0-9]+)?)`)

// labelFuel maps a matched label to its fuel grade.
func labelFuel(label string) models.Fuel {
	switch strings.ToUpper(label) {
	case "VLSFO":
		return models.FuelVLSFO
	case "MGO", "LSMGO":
		return models.FuelLSMGO
	default:
		return models.FuelHSFO
	}
}

// fuelSegments splits text at each fuel label and groups the segments by
// fuel, in page order.
func fuelSegments(text string) map[models.Fuel][]string {
	segments := make(map[models.Fuel][]string, 3)
	locs := fuelLabel.FindAllStringIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fuel := labelFuel(text[loc[0]:loc[1]])
		segments[fuel] = append(segments[fuel], text[loc[0]:end])
	}
	return segments
}

// PageText converts html to plain markdown text.
func PageText(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert page to text: %w", err)
	}
	return text, nil
}

// ParsePattern pulls one current price per fuel out of page text. A fuel's
// price is only read from its own segment, up to the next fuel label. Fuels
// whose pattern misses or whose number does not parse are in the error map.
func ParsePattern(text string) (map[models.Fuel]models.Price, map[models.Fuel]error) {
	prices := make(map[models.Fuel]models.Price, 3)
	failures := make(map[models.Fuel]error)
	segments := fuelSegments(text)

	for _, fuel := range models.AllFuels() {
		var m []string
		for _, segment := range segments[fuel] {
			if m = segmentPrice.FindStringSubmatch(segment); m != nil {
				break
			}
		}
		if m == nil {
			failures[fuel] = ErrPatternNotFound
			continue
		}
		price, err := models.ParsePrice(strings.ReplaceAll(m[1], `\`, ""))
		if err != nil {
			failures[fuel] = err
			continue
		}
		prices[fuel] = price
	}
	return prices, failures
}

// PatternExtractor reads a port-specific page by textual patterns.
type PatternExtractor struct {
	fetcher PageFetcher
	url     string
	port    string
	timeout time.Duration
	logger  arbor.ILogger
}

// NewPatternExtractor creates a pattern-scan extractor. PortURL is used when
// set, otherwise URL.
func NewPatternExtractor(fetcher PageFetcher, config ExtractorConfig, logger arbor.ILogger) *PatternExtractor {
	url := config.PortURL
	if url == "" {
		url = config.URL
	}
	return &PatternExtractor{
		fetcher: fetcher,
		url:     url,
		port:    config.Port,
		timeout: config.Timeout,
		logger:  logger,
	}
}

// Extract implements Extractor. Values go to the most recent date only.
func (e *PatternExtractor) Extract(ctx context.Context, dates []time.Time) models.BunkerPriceSet {
	set := models.NewBunkerPriceSet(dates)
	latest, ok := common.LatestDate(dates)
	if !ok {
		return set
	}

	html, err := fetchWithTimeout(ctx, e.fetcher, e.url, e.timeout)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", e.url).Str("stage", "fetch").Msg("Failed to fetch bunker port page, reporting N/A")
		return set
	}

	text, err := PageText(html)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", e.url).Str("stage", "text").Msg("Failed to read bunker port page, reporting N/A")
		return set
	}

	prices, failures := ParsePattern(text)
	for _, fuel := range models.AllFuels() {
		if err, failed := failures[fuel]; failed {
			e.logger.Warn().Err(err).Str("port", e.port).Str("fuel", string(fuel)).Str("stage", "pattern").Msg("Bunker price unavailable for fuel")
			continue
		}
		set.Series(fuel).Set(latest, prices[fuel])
	}

	e.logger.Info().
		Str("port", e.port).
		Str("date", models.DateKey(latest)).
		Int("fuels", len(prices)).
		Msg("Bunker prices extracted from page text")

	return set
}
