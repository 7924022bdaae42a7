// -----------------------------------------------------------------------
// Bunker Price Extraction - page retrieval and table/pattern strategies
// -----------------------------------------------------------------------

package bunker

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/models"
)

// Strategy names an extraction approach.
type Strategy string

const (
	StrategyTable   Strategy = "table"
	StrategyPattern Strategy = "pattern"
)

// Extractor produces bunker prices for the report dates. Failures never
// escape: missing data is returned as unavailable prices.
type Extractor interface {
	Extract(ctx context.Context, dates []time.Time) models.BunkerPriceSet
}

// ExtractorConfig holds the page contract settings.
type ExtractorConfig struct {
	Strategy Strategy
	URL      string        // Multi-port price table page
	PortURL  string        // Port-specific page for pattern scanning
	Port     string        // Target port, e.g. "Singapore"
	Timeout  time.Duration // Per-request timeout, zero means none
}

// NewExtractor returns the extractor for config.Strategy.
func NewExtractor(fetcher PageFetcher, config ExtractorConfig, logger arbor.ILogger) (Extractor, error) {
	switch config.Strategy {
	case StrategyTable, "":
		return NewTableExtractor(fetcher, config, logger), nil
	case StrategyPattern:
		return NewPatternExtractor(fetcher, config, logger), nil
	}
	return nil, fmt.Errorf("unknown bunker extraction strategy %q", config.Strategy)
}

func fetchWithTimeout(ctx context.Context, fetcher PageFetcher, url string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fetcher.Fetch(ctx, url)
}

