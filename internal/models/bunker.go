package models

import "time"

// Fuel is a marine fuel grade tracked in the bunker report.
type Fuel string

const (
	FuelVLSFO Fuel = "VLSFO" // very low sulphur fuel oil
	FuelLSMGO Fuel = "LSMGO" // low sulphur marine gasoil
	FuelHSFO  Fuel = "HSFO"  // high sulphur fuel oil (IFO380)
)

// AllFuels returns the tracked fuel grades in report order.
func AllFuels() []Fuel {
	return []Fuel{FuelVLSFO, FuelLSMGO, FuelHSFO}
}

// BunkerPriceSet holds one price series per fuel grade, in USD per metric ton.
type BunkerPriceSet map[Fuel]PriceSeries

// NewBunkerPriceSet returns a set fully keyed over the dates, all unavailable.
func NewBunkerPriceSet(dates []time.Time) BunkerPriceSet {
	set := make(BunkerPriceSet, 3)
	for _, f := range AllFuels() {
		set[f] = NewPriceSeries(dates)
	}
	return set
}

// Series returns the series for a fuel. A fuel missing from the set yields
// an empty series whose lookups return the sentinel.
func (b BunkerPriceSet) Series(f Fuel) PriceSeries {
	if s, ok := b[f]; ok {
		return s
	}
	return PriceSeries{}
}
