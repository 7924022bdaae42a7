package eia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/ternarybob/oilreport/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the EIA v2 open data API.
	DefaultBaseURL = "https://api.eia.gov/v2"

	// SpotPricePath is the petroleum spot price dataset.
	SpotPricePath = "/petroleum/pri/spt/data/"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept in APIError.
	maxErrorBody = 512
)

// Client is an EIA API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit sets the minimum interval between requests. Zero disables limiting.
func WithRateLimit(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a new EIA API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:  arbor.NewLogger(),
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API and returns the raw body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("url", c.baseURL+path).
		Str("series", params.Get("facets[series][]")).
		Msg("EIA API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if e := gjson.GetBytes(body, "error"); e.Exists() {
			msg = e.String()
		}
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Endpoint:   path,
		}
	}

	return body, nil
}

// GetSpotPrices retrieves daily spot prices for one series, ascending by date.
// Records whose value is not numeric are dropped.
func (c *Client) GetSpotPrices(ctx context.Context, series string, opts ...QueryOption) ([]Observation, error) {
	params := &queryParams{
		Frequency: "daily",
		Direction: "asc",
	}
	for _, opt := range opts {
		opt(params)
	}

	query := url.Values{}
	query.Set("frequency", params.Frequency)
	query.Set("data[0]", "value")
	query.Set("facets[series][]", series)
	if !params.Start.IsZero() {
		query.Set("start", params.Start.Format(models.DateLayout))
	}
	if !params.End.IsZero() {
		query.Set("end", params.End.Format(models.DateLayout))
	}
	query.Set("sort[0][column]", "period")
	query.Set("sort[0][direction]", params.Direction)

	body, err := c.get(ctx, SpotPricePath, query)
	if err != nil {
		return nil, err
	}

	return c.parseSpotPrices(series, body)
}

func (c *Client) parseSpotPrices(series string, body []byte) ([]Observation, error) {
	if !gjson.ValidBytes(body) {
		return nil, &SchemaError{Series: series, Reason: "response is not valid JSON"}
	}

	if e := gjson.GetBytes(body, "error"); e.Exists() {
		return nil, &APIError{StatusCode: http.StatusOK, Message: e.String(), Endpoint: SpotPricePath}
	}

	data := gjson.GetBytes(body, "response.data")
	if !data.Exists() || !data.IsArray() {
		return nil, &SchemaError{Series: series, Reason: "missing response.data array"}
	}

	records := data.Array()
	observations := make([]Observation, 0, len(records))
	for i, record := range records {
		period := record.Get("period")
		value := record.Get("value")
		if !period.Exists() || !value.Exists() {
			return nil, &SchemaError{Series: series, Reason: fmt.Sprintf("record %d lacks period or value", i)}
		}

		date, err := time.Parse(models.DateLayout, period.String())
		if err != nil {
			c.logger.Debug().Str("series", series).Str("period", period.String()).Msg("Skipping record with unparseable period")
			continue
		}

		price, err := models.ParsePrice(value.String())
		if err != nil {
			c.logger.Debug().Str("series", series).Str("period", period.String()).Str("value", value.Raw).Msg("Skipping non-numeric value")
			continue
		}

		observations = append(observations, Observation{Date: date, Period: period.String(), Value: price})
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})

	return observations, nil
}

