package bunker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/oilreport/internal/models"
)

const pricesPage = `<html><body>
<table class="nav"><tr><td>Port</td><td>News</td></tr></table>
<table class="price-table">
  <thead>
    <tr><th>Port</th><th>VLSFO $/mt</th><th>Chg</th><th>MGO $/mt</th><th>Chg</th><th>IFO380 $/mt</th><th>Chg</th></tr>
  </thead>
  <tbody>
    <tr><td>Rotterdam</td><td>540.00</td><td>+2.00</td><td>690.50</td><td>-1.00</td><td>430.00</td><td>0.00</td></tr>
    <tr><td> Singapore </td><td>612.50</td><td>+3.50</td><td>1,745.00</td><td>-4.00</td><td>455.25</td><td>+1.00</td></tr>
    <tr><td>Fujairah</td><td>600.00</td><td>+1.00</td><td>780.00</td><td>+2.00</td><td>420.00</td><td>-3.00</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseTableWithThead(t *testing.T) {
	row, err := ParseTable(pricesPage, "Singapore")
	require.NoError(t, err)

	assert.Equal(t, "Singapore", row.Port)
	assert.Empty(t, row.Errors)
	assert.Equal(t, "612.50", row.Prices[models.FuelVLSFO].String())
	assert.Equal(t, "1745.00", row.Prices[models.FuelLSMGO].String())
	assert.Equal(t, "455.25", row.Prices[models.FuelHSFO].String())
}

func TestParseTableFirstRowHeaders(t *testing.T) {
	page := `<table>
	<tr><th>Port</th><th>VLSFO $/mt</th><th>LSMGO $/mt</th><th>HSFO $/mt</th></tr>
	<tr><th>Singapore</th><td>$610.00</td><td>$760.00</td><td>$450.00</td></tr>
	</table>`

	row, err := ParseTable(page, "singapore")
	require.NoError(t, err)
	assert.Equal(t, "610.00", row.Prices[models.FuelVLSFO].String())
	assert.Equal(t, "760.00", row.Prices[models.FuelLSMGO].String())
	assert.Equal(t, "450.00", row.Prices[models.FuelHSFO].String())
}

func TestParseTableHeaderRowIsNotData(t *testing.T) {
	// A port literally named "Port" must not match the header row.
	page := `<table>
	<tr><td>Port</td><td>VLSFO $/mt</td><td>MGO $/mt</td><td>HSFO $/mt</td></tr>
	<tr><td>Houston</td><td>590.00</td><td>700.00</td><td>410.00</td></tr>
	</table>`

	_, err := ParseTable(page, "Port")
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestParseTablePerFuelFailures(t *testing.T) {
	tests := []struct {
		name       string
		page       string
		wantPrices map[models.Fuel]string
		wantFailed []models.Fuel
	}{
		{
			name: "unparseable cell",
			page: `<table><thead><tr><th>Port</th><th>VLSFO $/mt</th><th>MGO $/mt</th><th>HSFO $/mt</th></tr></thead>
			<tbody><tr><td>Singapore</td><td>612.50</td><td>-</td><td>455.00</td></tr></tbody></table>`,
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "612.50", models.FuelHSFO: "455.00"},
			wantFailed: []models.Fuel{models.FuelLSMGO},
		},
		{
			name: "missing column",
			page: `<table><thead><tr><th>Port</th><th>VLSFO $/mt</th><th>MGO $/mt</th></tr></thead>
			<tbody><tr><td>Singapore</td><td>612.50</td><td>760.00</td></tr></tbody></table>`,
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "612.50", models.FuelLSMGO: "760.00"},
			wantFailed: []models.Fuel{models.FuelHSFO},
		},
		{
			name: "short row",
			page: `<table><thead><tr><th>Port</th><th>VLSFO $/mt</th><th>MGO $/mt</th><th>HSFO $/mt</th></tr></thead>
			<tbody><tr><td>Singapore</td><td>612.50</td></tr></tbody></table>`,
			wantPrices: map[models.Fuel]string{models.FuelVLSFO: "612.50"},
			wantFailed: []models.Fuel{models.FuelLSMGO, models.FuelHSFO},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := ParseTable(tt.page, "Singapore")
			require.NoError(t, err)

			got := make(map[models.Fuel]string, len(row.Prices))
			for f, p := range row.Prices {
				got[f] = p.String()
			}
			assert.Equal(t, tt.wantPrices, got)
			for _, f := range tt.wantFailed {
				assert.Error(t, row.Errors[f], "fuel %s", f)
			}
			assert.Len(t, row.Errors, len(tt.wantFailed))
		})
	}
}

func TestParseTableMisses(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantErr error
	}{
		{"no tables", `<html><body><p>Prices unavailable</p></body></html>`, ErrTableNotFound},
		{"no vlsfo column", `<table><thead><tr><th>Port</th><th>MGO $/mt</th></tr></thead><tbody><tr><td>Singapore</td><td>1</td></tr></tbody></table>`, ErrTableNotFound},
		{"no port column", `<table><thead><tr><th>Location</th><th>VLSFO $/mt</th></tr></thead></table>`, ErrTableNotFound},
		{"port absent", pricesPage, ErrRowNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := "Singapore"
			if tt.name == "port absent" {
				port = "Gibraltar"
			}
			row, err := ParseTable(tt.page, port)
			assert.Nil(t, row)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestMapHeaders(t *testing.T) {
	idx := mapHeaders([]string{"Port", "VLSFO $/mt", "MGO $/mt", "IFO380 $/mt", "VLSFO Chg"})
	assert.Equal(t, 0, idx.Port)
	assert.Equal(t, 1, idx.Fuels[models.FuelVLSFO], "first matching column wins")
	assert.Equal(t, 2, idx.Fuels[models.FuelLSMGO])
	assert.Equal(t, 3, idx.Fuels[models.FuelHSFO])
	assert.True(t, idx.isPriceTable())

	assert.False(t, mapHeaders([]string{"Port", "MGO"}).isPriceTable())
	assert.False(t, mapHeaders(nil).isPriceTable())
}

func TestStageOf(t *testing.T) {
	assert.Equal(t, "table", stageOf(ErrTableNotFound))
	assert.Equal(t, "row", stageOf(ErrRowNotFound))
	assert.Equal(t, "parse", stageOf(errors.New("other")))
}
