package bunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/oilreport/internal/models"
)

const portPage = `<html><body>
<h1>Singapore Bunker Prices</h1>
<div class="fuel"><h2>VLSFO</h2><p>Price $/mt</p><p><strong>$612.50</strong></p></div>
<div class="fuel"><h2>MGO</h2><p>Price $/mt</p><p><strong>$1,745.00</strong></p></div>
<div class="fuel"><h2>IFO380</h2><p>Price $/mt</p><p><strong>$455.00</strong></p></div>
</body></html>`

func TestParsePatternFromHTML(t *testing.T) {
	text, err := PageText(portPage)
	require.NoError(t, err)

	prices, failures := ParsePattern(text)
	assert.Empty(t, failures)
	assert.Equal(t, "612.50", prices[models.FuelVLSFO].String())
	assert.Equal(t, "1745.00", prices[models.FuelLSMGO].String())
	assert.Equal(t, "455.00", prices[models.FuelHSFO].String())
}

func TestParsePatternText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantPrices map[models.Fuel]string
		wantFailed []models.Fuel
	}{
		{
			name:       "escaped markdown",
			text:       `VLSFO \$/mt \$612\.50 | LSMGO \$ / mt \$760.00 | HSFO \$/mt \$455`,
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "612.50", models.FuelLSMGO: "760.00", models.FuelHSFO: "455.00"},
		},
		{
			name:       "case insensitive labels",
			text:       "vlsfo price $/MT: $600.10\nmgo price $/mt: $700.20",
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "600.10", models.FuelLSMGO: "700.20"},
			wantFailed: []models.Fuel{models.FuelHSFO},
		},
		{
			name:       "no unit marker",
			text:       "VLSFO 612.50 MGO 760 HSFO 455",
			wantPrices: map[models.Fuel]string{},
			wantFailed: []models.Fuel{models.FuelVLSFO, models.FuelLSMGO, models.FuelHSFO},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices, failures := ParsePattern(tt.text)

			got := make(map[models.Fuel]string, len(prices))
			for f, p := range prices {
				got[f] = p.String()
			}
			assert.Equal(t, tt.wantPrices, got)
			assert.Len(t, failures, len(tt.wantFailed))
			for _, f := range tt.wantFailed {
				assert.ErrorIs(t, failures[f], ErrPatternNotFound)
			}
		})
	}
}

func TestVLSFOPatternDoesNotMatchHSFO(t *testing.T) {
	prices, failures := ParsePattern("HSFO $/mt $455.00")
	assert.Equal(t, "455.00", prices[models.FuelHSFO].String())
	assert.Contains(t, failures, models.FuelVLSFO)
	assert.Contains(t, failures, models.FuelLSMGO)
}

func TestParsePatternKeepsFuelsApart(t *testing.T) {
	const page = `<html><body>
<div class="fuel"><h2>VLSFO</h2><p>Price unavailable</p></div>
<div class="fuel"><h2>MGO</h2><p>Price $/mt</p><p><strong>$1,745.00</strong></p></div>
<div class="fuel"><h2>IFO380</h2><p>Price $/mt</p><p><strong>$455.00</strong></p></div>
</body></html>`

	text, err := PageText(page)
	require.NoError(t, err)

	prices, failures := ParsePattern(text)
	assert.NotContains(t, prices, models.FuelVLSFO)
	assert.ErrorIs(t, failures[models.FuelVLSFO], ErrPatternNotFound)
	assert.Equal(t, "1745.00", prices[models.FuelLSMGO].String())
	assert.Equal(t, "455.00", prices[models.FuelHSFO].String())
}

func TestParsePatternSegments(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantPrices map[models.Fuel]string
	}{
		{
			name:       "unpriced label borrows nothing from the next fuel",
			text:       "VLSFO see below MGO $/mt $760.00",
			wantPrices: map[models.Fuel]string{models.FuelLSMGO: "760.00"},
		},
		{
			name:       "later mention of the same fuel carries the price",
			text:       "VLSFO market news. HSFO $/mt $455 VLSFO $/mt $612.50",
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "612.50", models.FuelHSFO: "455.00"},
		},
		{
			name:       "unit without a price stops at the next label",
			text:       "VLSFO $/mt pending | LSMGO $/mt $760",
			wantPrices: map[models.Fuel]string{models.FuelLSMGO: "760.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices, _ := ParsePattern(tt.text)

			got := make(map[models.Fuel]string, len(prices))
			for f, p := range prices {
				got[f] = p.String()
			}
			assert.Equal(t, tt.wantPrices, got)
		})
	}
}
