package nomic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"fishquery-be/pkg/embedding"
)

const defaultTimeout = 10 * time.Second

type NomicProvider struct {
	token    string
	baseURL  string
	model    string
	taskType string
	client   *http.Client
}

type embeddingRequest struct {
	Model    string   `json:"model"`
	Texts    []string `json:"texts"`
	TaskType string   `json:"task_type"`
}

type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Detail     string      `json:"detail,omitempty"`
}

func NewNomicProvider(token, baseURL, model, taskType string) *NomicProvider {
	return &NomicProvider{
		token:    token,
		baseURL:  baseURL,
		model:    model,
		taskType: taskType,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (p *NomicProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if taskType == "" {
		taskType = p.taskType
	}
	reqBody := embeddingRequest{
		Model:    p.model,
		Texts:    []string{text},
		TaskType: taskType,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.token))

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", embedding.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", embedding.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nomic api status %d: %s", embedding.ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var nomicResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &nomicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(nomicResp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty embeddings from nomic api", embedding.ErrUnavailable)
	}

	model := nomicResp.Model
	if model == "" {
		model = p.model
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: nomicResp.Embeddings[0],
		},
		Model: model,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
