package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rerank-v2", req.Model)
		assert.Equal(t, "bag limit", req.Query)
		require.Len(t, req.Documents, 2)

		// Score the second document higher.
		w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.95},{"index":0,"relevance_score":0.2}]}`))
	}))
	defer srv.Close()

	r := NewHTTPReranker("key", srv.URL, "rerank-v2")

	got, err := r.Rerank(context.Background(), "bag limit", []Candidate{
		{ID: "vector:1", Content: "passage one"},
		{ID: "graph:2", Content: "passage two"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "graph:2", got[0].ID)
	assert.InDelta(t, 0.95, got[0].Score, 1e-9)
	assert.Equal(t, "vector:1", got[1].ID)
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewHTTPReranker("key", "http://unreachable.invalid", "m")

	got, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRerankServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewHTTPReranker("key", srv.URL, "m")

	_, err := r.Rerank(context.Background(), "q", []Candidate{{ID: "a", Content: "x"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRerankOutOfRangeIndexSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"index":5,"relevance_score":0.9},{"index":0,"relevance_score":0.4}]}`))
	}))
	defer srv.Close()

	r := NewHTTPReranker("key", srv.URL, "m")

	got, err := r.Rerank(context.Background(), "q", []Candidate{{ID: "a", Content: "x"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
