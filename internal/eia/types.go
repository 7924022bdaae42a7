package eia

import (
	"fmt"
	"time"

	"github.com/ternarybob/oilreport/internal/models"
)

// Observation is one daily spot price reported by EIA.
type Observation struct {
	Date   time.Time
	Period string
	Value  models.Price
}

// QueryOption represents an optional parameter for spot price queries.
type QueryOption func(*queryParams)

// queryParams holds optional query parameters.
type queryParams struct {
	Start     time.Time
	End       time.Time
	Frequency string // daily, weekly, monthly
	Direction string // asc, desc
}

// WithDateRange sets the inclusive start and end dates.
func WithDateRange(start, end time.Time) QueryOption {
	return func(p *queryParams) {
		p.Start = start
		p.End = end
	}
}

// WithFrequency sets the series frequency.
func WithFrequency(frequency string) QueryOption {
	return func(p *queryParams) {
		p.Frequency = frequency
	}
}

// WithSortDirection sets the sort direction on period (asc or desc).
func WithSortDirection(direction string) QueryOption {
	return func(p *queryParams) {
		p.Direction = direction
	}
}

// APIError represents a non-success response from the EIA API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EIA API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// SchemaError means the payload did not have the expected response.data shape.
type SchemaError struct {
	Series string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected EIA payload for series %s: %s", e.Series, e.Reason)
}
