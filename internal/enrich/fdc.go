package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Nutrient numbers from the USDA FoodData Central nutrient dictionary.
const (
	nutrientEnergy  = "208"
	nutrientProtein = "203"
	nutrientCarbs   = "205"
	nutrientFat     = "204"
	nutrientFiber   = "291"
	nutrientSugar   = "269"
	nutrientSodium  = "307"
)

// dataTypeConfidence maps a provider data type to a confidence factor.
// Lab-analyzed foundation data is trusted fully; label-derived branded
// data and survey estimates progressively less.
var dataTypeConfidence = map[string]float64{
	"Foundation": 1.0,
	"SR Legacy":  1.0,
	"Branded":    0.8,
	"Survey":     0.6,
}

// FDCSource fetches nutrition data from a FoodData Central compatible API.
type FDCSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Source = (*FDCSource)(nil)

// NewFDCSource creates a source against the given API base URL. The
// timeout bounds each individual lookup.
func NewFDCSource(baseURL, apiKey string, timeout time.Duration) *FDCSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FDCSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies this source in logs and provenance fields.
func (s *FDCSource) Name() string {
	return "fdc"
}

// searchResponse is the provider's search result payload.
type searchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		DataType      string `json:"dataType"`
		FoodNutrients []struct {
			NutrientNumber string  `json:"nutrientNumber"`
			Value          float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Fetch searches the provider for the food by name (and brand, when known)
// and maps the best match onto a Payload. Failures are classified: rate
// limits, timeouts, and server errors are transient; an unknown food or an
// unparseable response is permanent.
func (s *FDCSource) Fetch(ctx context.Context, food FoodIdentity) (*Payload, error) {
	query := food.Name
	if food.Brand != "" {
		query = food.Brand + " " + food.Name
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", "1")
	if s.apiKey != "" {
		params.Set("api_key", s.apiKey)
	}

	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewPermanentError(fmt.Errorf("create request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Network failures and timeouts are worth retrying
		return nil, NewTransientError(fmt.Errorf("fetch %q: %w", food.Name, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewPermanentError(fmt.Errorf("food %q not found", food.Name))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewTransientError(fmt.Errorf("rate limited: %s", resp.Status))
	case resp.StatusCode >= 500:
		return nil, NewTransientError(fmt.Errorf("server error: %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, NewPermanentError(fmt.Errorf("unexpected status: %s - %s", resp.Status, string(body)))
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, NewPermanentError(fmt.Errorf("malformed response: %w", err))
	}
	if len(search.Foods) == 0 {
		return nil, NewPermanentError(fmt.Errorf("food %q not found in source", food.Name))
	}

	match := search.Foods[0]
	payload := &Payload{
		Provenance: fmt.Sprintf("%s:%s", s.Name(), match.DataType),
		Confidence: confidenceFor(match.DataType),
	}
	for _, n := range match.FoodNutrients {
		v := n.Value
		switch n.NutrientNumber {
		case nutrientEnergy:
			payload.Nutrients.Calories = &v
		case nutrientProtein:
			payload.Nutrients.Protein = &v
		case nutrientCarbs:
			payload.Nutrients.Carbs = &v
		case nutrientFat:
			payload.Nutrients.Fat = &v
		case nutrientFiber:
			payload.Nutrients.Fiber = &v
		case nutrientSugar:
			payload.Nutrients.Sugar = &v
		case nutrientSodium:
			payload.Nutrients.Sodium = &v
		}
	}

	return payload, nil
}

func confidenceFor(dataType string) float64 {
	if c, ok := dataTypeConfidence[dataType]; ok {
		return c
	}
	return 0.6
}
