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
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// RetrievalMode is fixed at retriever construction: semantic when the
// embedding backend is reachable, keyword otherwise
type RetrievalMode string

const (
	ModeSemantic RetrievalMode = "semantic"
	ModeKeyword  RetrievalMode = "keyword"
)

// PolicyRetriever ranks corpus chunks against a query and assembles
// grounded prompts. A retriever holds only immutable state after
// construction, so repeated calls are pure functions of their inputs.
type PolicyRetriever struct {
	corpus   *PolicyCorpus
	mode     RetrievalMode
	embedder Embedder
	index    *keywordIndex
	topK     int
	logger   *Logger
}

// NewPolicyRetriever builds a retriever over the corpus. The embedding
// backend is probed once here by computing chunk embeddings; failure demotes
// the retriever to keyword mode and is logged, never fatal. The keyword
// index is always built since topic lookups use it in both modes.
func NewPolicyRetriever(ctx context.Context, corpus *PolicyCorpus, embedder Embedder, cache *Cache, config *Config, logger *Logger) *PolicyRetriever {
	log := logger.WithComponent("retriever")

	retriever := &PolicyRetriever{
		corpus: corpus,
		mode:   ModeKeyword,
		index:  buildKeywordIndex(corpus.Chunks()),
		topK:   config.TopK,
		logger: log,
	}

	if embedder == nil {
		log.Info("No embedding backend configured, using keyword retrieval")
		return retriever
	}

	if err := corpus.ComputeEmbeddings(ctx, embedder, cache); err != nil {
		log.Warn("Embedding backend unavailable, falling back to keyword retrieval", "error", err)
		return retriever
	}

	retriever.mode = ModeSemantic
	retriever.embedder = embedder
	log.Info("Semantic retrieval enabled", "model", embedder.Model())
	return retriever
}

// Mode reports the retrieval strategy selected at construction
func (r *PolicyRetriever) Mode() RetrievalMode {
	return r.mode
}

// Retrieve returns up to topK chunks ranked by relevance, descending, with
// ties broken by corpus order. An empty query, an empty corpus or a query
// matching nothing yields an empty result, never an error.
func (r *PolicyRetriever) Retrieve(ctx context.Context, query string, topK int) []ScoredChunk {
	if topK <= 0 || r.corpus.Len() == 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	var scores []float64
	if r.mode == ModeSemantic {
		scores = r.semanticScores(ctx, query)
	}
	if scores == nil {
		scores = r.index.scores(query)
	}

	var results []ScoredChunk
	for i, chunk := range r.corpus.Chunks() {
		if scores[i] > 0 {
			results = append(results, ScoredChunk{Chunk: chunk, Score: scores[i]})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	r.logger.LogRetrieval(string(r.mode), query, len(results))
	return results
}

// semanticScores embeds the query and scores every chunk by cosine
// similarity. A backend failure mid-call returns nil so the caller can
// degrade to keyword scoring for this query.
func (r *PolicyRetriever) semanticScores(ctx context.Context, query string) []float64 {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		r.logger.Warn("Query embedding failed, using keyword scores for this call", "error", err)
		return nil
	}

	queryVec := vectors[0]
	scores := make([]float64, r.corpus.Len())
	for i, chunk := range r.corpus.Chunks() {
		scores[i] = cosineSimilarity(queryVec, chunk.Embedding)
	}
	return scores
}

// AugmentPrompt prepends retrieved policy text to the prompt as a labeled
// context block. Deterministic for a fixed corpus and query; with no
// grounding available the prompt passes through unchanged.
func (r *PolicyRetriever) AugmentPrompt(ctx context.Context, userPrompt, query string) string {
	retrieved := r.Retrieve(ctx, query, r.topK)
	if len(retrieved) == 0 {
		return userPrompt
	}

	var b strings.Builder
	b.WriteString("POLICY CONTEXT:\n")
	for _, sc := range retrieved {
		b.WriteString("- ")
		b.WriteString(sc.Chunk.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(userPrompt)
	return b.String()
}

// PolicyContext returns guideline text for a topic. Topic lookups always use
// keyword scoring so a flaky embedding backend cannot change their output.
func (r *PolicyRetriever) PolicyContext(topic string) string {
	if r.corpus.Len() == 0 || strings.TrimSpace(topic) == "" {
		return fmt.Sprintf("No specific policies found for %q", topic)
	}

	scores := r.index.scores(topic)

	var results []ScoredChunk
	for i, chunk := range r.corpus.Chunks() {
		if scores[i] > 0 {
			results = append(results, ScoredChunk{Chunk: chunk, Score: scores[i]})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > TopicContextK {
		results = results[:TopicContextK]
	}

	if len(results) == 0 {
		return fmt.Sprintf("No specific policies found for %q", topic)
	}

	texts := make([]string, len(results))
	for i, sc := range results {
		texts[i] = sc.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}

// SearchPolicies returns chunks containing the keyword as a substring,
// in corpus order, capped
func (r *PolicyRetriever) SearchPolicies(keyword string) []PolicyChunk {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}

	var matches []PolicyChunk
	for _, chunk := range r.corpus.Chunks() {
		if strings.Contains(strings.ToLower(chunk.Text), keyword) {
			matches = append(matches, chunk)
			if len(matches) == SearchPoliciesLimit {
				break
			}
		}
	}
	return matches
}

// --- keyword index ---

type sparseVec = map[int]float64

// keywordIndex scores chunks by TF-IDF weighted token overlap, so common
// corpus words count less than distinctive ones
type keywordIndex struct {
	vocab map[string]int
	idf   []float64
	docs  []sparseVec
}

func buildKeywordIndex(chunks []PolicyChunk) *keywordIndex {
	if len(chunks) == 0 {
		return &keywordIndex{vocab: make(map[string]int)}
	}

	// Build vocabulary.
	vocab := make(map[string]int)
	for _, chunk := range chunks {
		for _, tok := range tokenize(chunk.Text) {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
	}

	// Document frequency.
	df := make([]int, len(vocab))
	docs := make([]sparseVec, len(chunks))
	n := float64(len(chunks))

	for i, chunk := range chunks {
		tf := make(map[int]int)
		for _, tok := range tokenize(chunk.Text) {
			if idx, ok := vocab[tok]; ok {
				tf[idx]++
			}
		}
		vec := make(sparseVec, len(tf))
		for idx, count := range tf {
			vec[idx] = float64(count)
			df[idx]++
		}
		docs[i] = vec
	}

	// IDF.
	idf := make([]float64, len(vocab))
	for i, d := range df {
		if d > 0 {
			idf[i] = math.Log(n/float64(d)) + 1.0
		}
	}

	// Apply TF-IDF weighting.
	for _, vec := range docs {
		for idx := range vec {
			vec[idx] *= idf[idx]
		}
	}

	return &keywordIndex{
		vocab: vocab,
		idf:   idf,
		docs:  docs,
	}
}

func (idx *keywordIndex) queryVec(query string) sparseVec {
	tf := make(map[int]int)
	for _, tok := range tokenize(query) {
		if i, ok := idx.vocab[tok]; ok {
			tf[i]++
		}
	}
	vec := make(sparseVec, len(tf))
	for i, count := range tf {
		vec[i] = float64(count) * idx.idf[i]
	}
	return vec
}

// scores returns one relevance score per indexed chunk
func (idx *keywordIndex) scores(query string) []float64 {
	scores := make([]float64, len(idx.docs))
	qvec := idx.queryVec(query)
	if len(qvec) == 0 {
		return scores
	}
	for i, dvec := range idx.docs {
		scores[i] = sparseCosine(qvec, dvec)
	}
	return scores
}

// tokenize splits text into lowercase alphanumeric runs
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func sparseCosine(a, b sparseVec) float64 {
	var dot, normA, normB float64
	for i, va := range a {
		if vb, ok := b[i]; ok {
			dot += va * vb
		}
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
