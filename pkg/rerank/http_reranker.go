package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPReranker talks to a Jina-style /rerank endpoint: the request carries the
// query and all candidate documents, the response scores each by index.
type HTTPReranker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Detail string `json:"detail,omitempty"`
}

func NewHTTPReranker(apiKey, baseURL, model string) *HTTPReranker {
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1/rerank"
	}
	return &HTTPReranker{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (r *HTTPReranker) ModelName() string {
	return r.model
}

func (r *HTTPReranker) Rerank(ctx context.Context, query string, candidates []Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Content
	}

	reqBody := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rerank api status %d: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var rr rerankResponse
	if err := json.Unmarshal(bodyBytes, &rr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rr.Results) == 0 {
		return nil, fmt.Errorf("%w: empty rerank results", ErrUnavailable)
	}

	results := make([]Result, 0, len(rr.Results))
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= len(candidates) {
			continue
		}
		results = append(results, Result{
			ID:    candidates[res.Index].ID,
			Score: res.RelevanceScore,
		})
	}
	return results, nil
}
