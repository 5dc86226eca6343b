package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFDCSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "Chicken Breast", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"foods": [{
				"description": "Chicken, broiler, breast, raw",
				"dataType": "Foundation",
				"foodNutrients": [
					{"nutrientNumber": "208", "value": 165},
					{"nutrientNumber": "203", "value": 31},
					{"nutrientNumber": "205", "value": 0},
					{"nutrientNumber": "204", "value": 3.6},
					{"nutrientNumber": "307", "value": 74}
				]
			}]
		}`))
	}))
	defer server.Close()

	source := NewFDCSource(server.URL, "test-key", 5*time.Second)
	payload, err := source.Fetch(context.Background(), FoodIdentity{ID: "chicken-breast", Name: "Chicken Breast"})
	require.NoError(t, err)

	require.NotNil(t, payload.Nutrients.Calories)
	assert.Equal(t, 165.0, *payload.Nutrients.Calories)
	require.NotNil(t, payload.Nutrients.Protein)
	assert.Equal(t, 31.0, *payload.Nutrients.Protein)
	require.NotNil(t, payload.Nutrients.Sodium)
	assert.Equal(t, 74.0, *payload.Nutrients.Sodium)
	assert.Nil(t, payload.Nutrients.Fiber)
	assert.Equal(t, "fdc:Foundation", payload.Provenance)
	assert.Equal(t, 1.0, payload.Confidence)
}

func TestFDCSourceBrandInQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"foods": [{"dataType": "Branded", "foodNutrients": []}]}`))
	}))
	defer server.Close()

	source := NewFDCSource(server.URL, "", 5*time.Second)
	payload, err := source.Fetch(context.Background(), FoodIdentity{Name: "Greek Yogurt", Brand: "Fage"})
	require.NoError(t, err)

	assert.Equal(t, "Fage Greek Yogurt", gotQuery)
	assert.Equal(t, 0.8, payload.Confidence)
}

func TestFDCSourceEmptyResultIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"foods": []}`))
	}))
	defer server.Close()

	source := NewFDCSource(server.URL, "", 5*time.Second)
	_, err := source.Fetch(context.Background(), FoodIdentity{Name: "Mystery Meat"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err), "empty search result should be permanent")
}

func TestFDCSourceStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"not found", http.StatusNotFound, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			source := NewFDCSource(server.URL, "", 5*time.Second)
			_, err := source.Fetch(context.Background(), FoodIdentity{Name: "anything"})
			require.Error(t, err)
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestFDCSourceMalformedResponseIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	source := NewFDCSource(server.URL, "", 5*time.Second)
	_, err := source.Fetch(context.Background(), FoodIdentity{Name: "anything"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestFDCSourceTimeoutIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	source := NewFDCSource(server.URL, "", 50*time.Millisecond)
	_, err := source.Fetch(context.Background(), FoodIdentity{Name: "slow"})
	require.Error(t, err)
	assert.True(t, IsTransient(err), "client timeout should be transient")
}
