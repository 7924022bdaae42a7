package eia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient("test-key",
		WithBaseURL(server.URL+"/v2/"),
		WithHTTPClient(server.Client()),
		WithLogger(arbor.NewLogger()),
		WithRateLimit(0),
	)
}

func TestGetSpotPricesBuildsQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotQuery = map[string]string{
			"api_key":            q.Get("api_key"),
			"frequency":          q.Get("frequency"),
			"data[0]":            q.Get("data[0]"),
			"facets[series][]":   q.Get("facets[series][]"),
			"start":              q.Get("start"),
			"end":                q.Get("end"),
			"sort[0][column]":    q.Get("sort[0][column]"),
			"sort[0][direction]": q.Get("sort[0][direction]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"data":[]}}`))
	})

	start := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	obs, err := client.GetSpotPrices(context.Background(), "RWTC", WithDateRange(start, end))
	require.NoError(t, err)
	assert.Empty(t, obs)

	assert.Equal(t, "/v2/petroleum/pri/spt/data/", gotPath)
	assert.Equal(t, map[string]string{
		"api_key":            "test-key",
		"frequency":          "daily",
		"data[0]":            "value",
		"facets[series][]":   "RWTC",
		"start":              "2025-05-17",
		"end":                "2025-06-16",
		"sort[0][column]":    "period",
		"sort[0][direction]": "asc",
	}, gotQuery)
}

func TestGetSpotPricesQueryOptions(t *testing.T) {
	var frequency, direction, start string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		frequency, direction, start = q.Get("frequency"), q.Get("sort[0][direction]"), q.Get("start")
		_, _ = w.Write([]byte(`{"response":{"data":[
			{"period":"2025-06-13","value":"72.98"},
			{"period":"2025-06-16","value":"71"}
		]}}`))
	})

	obs, err := client.GetSpotPrices(context.Background(), "RBRTE", WithFrequency("weekly"), WithSortDirection("desc"))
	require.NoError(t, err)

	assert.Equal(t, "weekly", frequency)
	assert.Equal(t, "desc", direction)
	assert.Empty(t, start)
	require.Len(t, obs, 2)
	assert.Equal(t, "2025-06-13", obs[0].Period, "observations are always returned ascending")
}

func TestGetSpotPricesParsesValues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"total":5,"data":[
			{"period":"2025-06-13","series":"RWTC","value":"72.98","units":"$/BBL"},
			{"period":"2025-06-11","series":"RWTC","value":68.154},
			{"period":"2025-06-12","series":"RWTC","value":"NA"},
			{"period":"2025-06-10","series":"RWTC","value":null},
			{"period":"2025-06-16","series":"RWTC","value":"71"}
		]}}`))
	})

	obs, err := client.GetSpotPrices(context.Background(), "RWTC")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "2025-06-11", obs[0].Period)
	assert.Equal(t, "68.15", obs[0].Value.String())
	assert.Equal(t, "2025-06-13", obs[1].Period)
	assert.Equal(t, "72.98", obs[1].Value.String())
	assert.Equal(t, "2025-06-16", obs[2].Period)
	assert.Equal(t, "71.00", obs[2].Value.String())
	assert.True(t, obs[2].Date.Equal(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)))
}

func TestGetSpotPricesErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantAPI    bool
		wantSchema bool
	}{
		{"server error", http.StatusInternalServerError, `internal failure`, true, false},
		{"forbidden with json error", http.StatusForbidden, `{"error":"API_KEY_INVALID"}`, true, false},
		{"error in ok body", http.StatusOK, `{"error":"invalid series"}`, true, false},
		{"missing data", http.StatusOK, `{"response":{"total":0}}`, false, true},
		{"data not an array", http.StatusOK, `{"response":{"data":{"period":"2025-06-16"}}}`, false, true},
		{"record without value", http.StatusOK, `{"response":{"data":[{"period":"2025-06-16"}]}}`, false, true},
		{"record without period", http.StatusOK, `{"response":{"data":[{"value":"70.1"}]}}`, false, true},
		{"not json", http.StatusOK, `<html>maintenance</html>`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			obs, err := client.GetSpotPrices(context.Background(), "RBRTE")
			require.Error(t, err)
			assert.Nil(t, obs)

			var apiErr *APIError
			var schemaErr *SchemaError
			assert.Equal(t, tt.wantAPI, errors.As(err, &apiErr), "APIError: %v", err)
			assert.Equal(t, tt.wantSchema, errors.As(err, &schemaErr), "SchemaError: %v", err)
			if tt.wantAPI {
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestGetSpotPricesTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetSpotPrices(ctx, "RWTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
