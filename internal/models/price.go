package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the key format for report dates.
const DateLayout = "2006-01-02"

// NotAvailable is the rendered form of an unavailable price.
const NotAvailable = "N/A"

// pricePlaces is the number of decimal places every price is rounded to.
const pricePlaces = 2

var priceCleaner = strings.NewReplacer(",", "", "$", "", " ", "", "\u00a0", "")

// Price is either a numeric price rounded to two decimals or the
// unavailable sentinel. The zero value is unavailable.
type Price struct {
	value decimal.Decimal
	valid bool
}

// NewPrice returns an available price rounded to two decimals.
func NewPrice(v float64) Price {
	return NewPriceFromDecimal(decimal.NewFromFloat(v))
}

// NewPriceFromDecimal returns an available price rounded to two decimals.
func NewPriceFromDecimal(d decimal.Decimal) Price {
	return Price{value: d.Round(pricePlaces), valid: true}
}

// Unavailable returns the sentinel price.
func Unavailable() Price {
	return Price{}
}

// ParsePrice parses a scraped or API price string. Thousands separators,
// currency symbols and surrounding whitespace are ignored.
func ParsePrice(s string) (Price, error) {
	cleaned := priceCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return Unavailable(), fmt.Errorf("empty price value %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Unavailable(), fmt.Errorf("invalid price value %q: %w", s, err)
	}
	return NewPriceFromDecimal(d), nil
}

// IsAvailable reports whether the price carries a value.
func (p Price) IsAvailable() bool {
	return p.valid
}

// String renders the price with exactly two decimals, or N/A.
func (p Price) String() string {
	if !p.valid {
		return NotAvailable
	}
	return p.value.StringFixed(pricePlaces)
}

// Equal compares two prices, treating all unavailable prices as equal.
func (p Price) Equal(other Price) bool {
	if p.valid != other.valid {
		return false
	}
	return !p.valid || p.value.Equal(other.value)
}

// DateKey formats a report date as a series key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// PriceSeries maps report dates (YYYY-MM-DD) to prices.
type PriceSeries map[string]Price

// NewPriceSeries returns a series keyed over every date, all unavailable.
func NewPriceSeries(dates []time.Time) PriceSeries {
	s := make(PriceSeries, len(dates))
	for _, d := range dates {
		s[DateKey(d)] = Unavailable()
	}
	return s
}

// Set stores a price for the given date.
func (s PriceSeries) Set(date time.Time, p Price) {
	s[DateKey(date)] = p
}

// Get returns the price for the date, or the sentinel when absent.
func (s PriceSeries) Get(date time.Time) Price {
	if p, ok := s[DateKey(date)]; ok {
		return p
	}
	return Unavailable()
}

// Values returns one price per date, in the order given.
func (s PriceSeries) Values(dates []time.Time) []Price {
	values := make([]Price, len(dates))
	for i, d := range dates {
		values[i] = s.Get(d)
	}
	return values
}

// AvailableCount returns the number of dates that carry a value.
func (s PriceSeries) AvailableCount() int {
	n := 0
	for _, p := range s {
		if p.IsAvailable() {
			n++
		}
	}
	return n
}
