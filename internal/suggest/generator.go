package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

const (
	// DefaultTimeout bounds one external generation call.
	DefaultTimeout = 8 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the generator rejected the API key.
	ErrUnauthorized = errors.New("suggest: unauthorized (api key missing or invalid)")
	// ErrRateLimited indicates the generator asked us to back off.
	ErrRateLimited = errors.New("suggest: rate limited")
)

// Generator produces extra suggestion candidates from outside the rule set.
// Callers must treat any error as "no extra candidates".
type Generator interface {
	Generate(ctx context.Context, fc metrics.FinancialContext, a *metrics.SpendingAnalytics) ([]model.Suggestion, error)
}

// GenerateRequest is the JSON body posted to the generator.
type GenerateRequest struct {
	Context   metrics.FinancialContext   `json:"context"`
	Analytics *metrics.SpendingAnalytics `json:"analytics,omitempty"`
}

// GeneratedSuggestion is one candidate in the generator's response.
type GeneratedSuggestion struct {
	Rule       string   `json:"rule"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Action     string   `json:"action"`
	Priority   string   `json:"priority"`
	Confidence float64  `json:"confidence"`
	DaysGained *int     `json:"days_gained,omitempty"`
	MoneySaved *float64 `json:"money_saved,omitempty"`
}

// GenerateResponse is the generator's JSON reply.
type GenerateResponse struct {
	Suggestions []GeneratedSuggestion `json:"suggestions"`
}

// HTTPGenerator posts the financial context to a remote endpoint.
type HTTPGenerator struct {
	url     string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewHTTPGenerator returns a generator for url, or nil when url is empty.
func NewHTTPGenerator(url, apiKey string, timeout time.Duration) *HTTPGenerator {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGenerator{
		url:     url,
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Generate calls the endpoint and converts its reply into suggestions.
func (g *HTTPGenerator) Generate(ctx context.Context, fc metrics.FinancialContext, a *metrics.SpendingAnalytics) ([]model.Suggestion, error) {
	payload, err := json.Marshal(GenerateRequest{Context: fc, Analytics: a})
	if err != nil {
		return nil, fmt.Errorf("suggest: encoding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("suggest: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fueltank/1.0")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	//nolint:gosec // URL comes from the user's own config
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("suggest: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("suggest: reading response: %w", err)
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("suggest: parsing response: %w", err)
	}

	list := make([]model.Suggestion, 0, len(out.Suggestions))
	for _, gs := range out.Suggestions {
		list = append(list, model.Suggestion{
			Rule:     gs.Rule,
			Type:     model.SuggestionType(gs.Type),
			Title:    gs.Title,
			Action:   gs.Action,
			Priority: model.Priority(gs.Priority),
			Impact: model.Impact{
				DaysGained:      gs.DaysGained,
				MoneySaved:      gs.MoneySaved,
				ConfidenceScore: gs.Confidence,
			},
			Source: SourceExternal,
		})
	}
	return list, nil
}
