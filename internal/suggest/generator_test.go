package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

func TestNewHTTPGenerator_EmptyURL(t *testing.T) {
	assert.Nil(t, NewHTTPGenerator("  ", "key", 0))
}

func TestHTTPGenerator_Generate(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GenerateResponse{Suggestions: []GeneratedSuggestion{
			{Rule: "coffee", Title: "Brew at home", Priority: "high", Confidence: 0.7},
		}})
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "secret", time.Second)
	fc := metrics.FinancialContext{Salary: 1000, Balance: 500}
	list, err := g.Generate(context.Background(), fc, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Brew at home", list[0].Title)
	assert.Equal(t, model.PriorityHigh, list[0].Priority)
	assert.Equal(t, SourceExternal, list[0].Source)
	assert.InDelta(t, 500, got.Context.Balance, 0.001)
}

func TestHTTPGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewHTTPGenerator(srv.URL, "", time.Second).Generate(context.Background(), metrics.FinancialContext{}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPGenerator_BadStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL+"/boom", "", time.Second).Generate(context.Background(), metrics.FinancialContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")

	_, err = NewHTTPGenerator(srv.URL, "", time.Second).Generate(context.Background(), metrics.FinancialContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestHTTPGenerator_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewHTTPGenerator(srv.URL, "", 50*time.Millisecond).Generate(context.Background(), metrics.FinancialContext{}, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
