// -----------------------------------------------------------------------
// Crude Price Service - EIA spot prices reconciled onto report dates
// -----------------------------------------------------------------------

package crude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/eia"
	"github.com/ternarybob/oilreport/internal/models"
)

// Policy decides how fetched observations map onto report dates.
type Policy string

const (
	// PolicyTailFill assigns the last N observations to the N report dates in
	// order, whatever their own dates are.
	PolicyTailFill Policy = "tail-fill"
	// PolicyIndexByDate only fills report dates that have an observation on
	// exactly that date.
	PolicyIndexByDate Policy = "index-by-date"
)

// MinLookbackDays is the shortest request window accepted.
const MinLookbackDays = 30

// windowMargin is how far before the oldest report date the request reaches,
// so tail-fill still has observations across holiday gaps.
const windowMargin = 7

// ParsePolicy validates a reconcile policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyTailFill:
		return PolicyTailFill, nil
	case PolicyIndexByDate:
		return PolicyIndexByDate, nil
	}
	return "", fmt.Errorf("unknown reconcile policy %q", s)
}

// SeriesSource returns spot price observations for a series.
// *eia.Client satisfies it.
type SeriesSource interface {
	GetSpotPrices(ctx context.Context, series string, opts ...eia.QueryOption) ([]eia.Observation, error)
}

// Config holds crude service settings.
type Config struct {
	Policy       Policy
	LookbackDays int
	Timeout      time.Duration    // Per-request timeout, zero means none
	Now          func() time.Time // Clock for the request window
}

// Service fetches crude series and reconciles them onto report dates.
type Service struct {
	source SeriesSource
	config Config
	logger arbor.ILogger
}

// NewService creates a crude price service.
func NewService(source SeriesSource, config Config, logger arbor.ILogger) *Service {
	if config.Policy == "" {
		config.Policy = PolicyTailFill
	}
	if config.LookbackDays < MinLookbackDays {
		config.LookbackDays = MinLookbackDays
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Service{
		source: source,
		config: config,
		logger: logger,
	}
}

// FetchSeries returns a series keyed over every report date. Any upstream
// failure yields an all-N/A series and a warning; it never returns an error.
func (s *Service) FetchSeries(ctx context.Context, series string, dates []time.Time) models.PriceSeries {
	result := models.NewPriceSeries(dates)
	if len(dates) == 0 {
		return result
	}

	end := s.config.Now().UTC()
	if latest := dates[len(dates)-1]; latest.After(end) {
		end = latest
	}
	start := requestStart(end, dates[0], s.config.LookbackDays)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	observations, err := s.source.GetSpotPrices(ctx, series, eia.WithDateRange(start, end))
	if err != nil {
		s.logger.Warn().Err(err).Str("series", series).Msg("Failed to fetch crude prices, reporting N/A")
		return result
	}
	if len(observations) == 0 {
		s.logger.Warn().
			Str("series", series).
			Int("lookback_days", s.config.LookbackDays).
			Msg("No crude observations returned, reporting N/A")
		return result
	}

	filled := Reconcile(s.config.Policy, dates, observations, result)

	s.logger.Info().
		Str("series", series).
		Str("policy", string(s.config.Policy)).
		Int("observations", len(observations)).
		Int("filled", filled).
		Msg("Crude prices fetched")

	return result
}

// requestStart returns the start of the EIA request window: lookbackDays
// before end, or windowMargin before the oldest report date when the report
// window reaches further back than that.
func requestStart(end, oldest time.Time, lookbackDays int) time.Time {
	start := end.AddDate(0, 0, -lookbackDays)
	if reach := oldest.AddDate(0, 0, -windowMargin); reach.Before(start) {
		start = reach
	}
	return start
}

// Reconcile writes observations into series according to policy and returns
// how many report dates received a value. Observations must be ascending.
func Reconcile(policy Policy, dates []time.Time, observations []eia.Observation, series models.PriceSeries) int {
	valid := make([]eia.Observation, 0, len(observations))
	for _, o := range observations {
		if o.Value.IsAvailable() {
			valid = append(valid, o)
		}
	}

	filled := 0
	switch policy {
	case PolicyIndexByDate:
		byDate := make(map[string]models.Price, len(valid))
		for _, o := range valid {
			byDate[models.DateKey(o.Date)] = o.Value
		}
		for _, d := range dates {
			if p, ok := byDate[models.DateKey(d)]; ok {
				series.Set(d, p)
				filled++
			}
		}
	default:
		tail := valid
		if len(tail) > len(dates) {
			tail = tail[len(tail)-len(dates):]
		}
		for i, o := range tail {
			series.Set(dates[i], o.Value)
			filled++
		}
	}
	return filled
}
