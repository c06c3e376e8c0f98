// Copyright 2025 The EcoSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Embedder turns text into vectors for semantic retrieval
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model, used for cache keying
	Model() string
}

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint
type HTTPEmbedder struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *Logger
}

// NewHTTPEmbedder creates an embedding client, or nil when no backend URL is
// configured. A nil embedder puts the retriever in keyword mode.
func NewHTTPEmbedder(baseURL, model, apiKey string, logger *Logger) *HTTPEmbedder {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	return &HTTPEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.WithComponent("embedder"),
	}
}

// Model returns the configured embedding model name
func (e *HTTPEmbedder) Model() string {
	return e.model
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed posts the texts to the backend and returns vectors in input order
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, &BackendUnavailableError{Backend: e.model, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &BackendUnavailableError{Backend: e.model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", GetUserAgent())
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &BackendUnavailableError{Backend: e.model, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendUnavailableError{Backend: e.model, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendUnavailableError{
			Backend: e.model,
			Err:     fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode),
		}
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &BackendUnavailableError{Backend: e.model, Err: err}
	}
	if parsed.Error != nil {
		return nil, &BackendUnavailableError{
			Backend: e.model,
			Err:     fmt.Errorf("embedding endpoint error: %s", parsed.Error.Message),
		}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &BackendUnavailableError{
			Backend: e.model,
			Err:     fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data)),
		}
	}

	// Responses may arrive out of order; the index field is authoritative
	sort.Slice(parsed.Data, func(i, j int) bool {
		return parsed.Data[i].Index < parsed.Data[j].Index
	})

	vectors := make([][]float32, len(parsed.Data))
	for i, item := range parsed.Data {
		vectors[i] = item.Embedding
	}

	e.logger.Debug("Embeddings computed", "texts", len(texts))
	return vectors, nil
}

// cosineSimilarity computes cosine similarity between two dense vectors.
// Mismatched or zero-norm vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
