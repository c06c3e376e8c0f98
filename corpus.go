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
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"
)

// PolicyCorpus holds the sustainability knowledge base split into bounded
// retrievable chunks. Chunks are built once at load time and never mutated
// afterwards; embeddings are the only field filled in later, and only once.
type PolicyCorpus struct {
	sourceHash string
	chunks     []PolicyChunk
	logger     *Logger
}

// NewPolicyCorpus loads and chunks the knowledge base at path. A missing or
// empty knowledge base produces an empty corpus and a warning — retrieval
// stays usable and simply returns no grounding.
func NewPolicyCorpus(path string, minLen, maxLen int, logger *Logger) (*PolicyCorpus, error) {
	log := logger.WithComponent("corpus")

	corpus := &PolicyCorpus{logger: log}

	if path == "" {
		log.Warn("No policy knowledge base configured")
		return corpus, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Policy knowledge base not found", "path", path)
			return corpus, nil
		}
		return nil, &LoadError{
			Path:    path,
			Message: "cannot read policy knowledge base",
			Err:     err,
		}
	}

	text := string(data)
	sum := sha256.Sum256(data)
	corpus.sourceHash = hex.EncodeToString(sum[:])
	corpus.chunks = chunkText(text, minLen, maxLen)

	log.Info("Policy corpus loaded",
		"path", path,
		"chunks", len(corpus.chunks),
	)

	return corpus, nil
}

// Chunks returns the corpus chunks in document order. The slice is owned by
// the corpus and must not be modified.
func (c *PolicyCorpus) Chunks() []PolicyChunk {
	return c.chunks
}

// Len returns the number of chunks
func (c *PolicyCorpus) Len() int {
	return len(c.chunks)
}

// ComputeEmbeddings fills in chunk embeddings via the backend, reusing a
// cached set when the corpus and model are unchanged. Called once at startup
// so retrieval never embeds chunks per query.
func (c *PolicyCorpus) ComputeEmbeddings(ctx context.Context, embedder Embedder, cache *Cache) error {
	if len(c.chunks) == 0 {
		return nil
	}

	cacheKey := "embeddings_" + c.sourceHash + "_" + embedder.Model()

	if cache != nil {
		var cached [][]float32
		if found, err := cache.Get(cacheKey, &cached); err == nil && found && len(cached) == len(c.chunks) {
			for i := range c.chunks {
				c.chunks[i].Embedding = cached[i]
			}
			c.logger.Debug("Corpus embeddings loaded from cache", "chunks", len(c.chunks))
			return nil
		}
	}

	texts := make([]string, len(c.chunks))
	for i, chunk := range c.chunks {
		texts[i] = chunk.Text
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(c.chunks) {
		return &BackendUnavailableError{
			Backend: embedder.Model(),
			Err:     nil,
		}
	}

	for i := range c.chunks {
		c.chunks[i].Embedding = vectors[i]
	}

	if cache != nil {
		if err := cache.Set(cacheKey, vectors, EmbeddingCacheTTLHours*time.Hour); err != nil {
			c.logger.Warn("Failed to cache corpus embeddings", "error", err)
		}
	}

	c.logger.Info("Corpus embeddings computed", "chunks", len(c.chunks))
	return nil
}

// chunkText splits a document into chunks inside the [minLen, maxLen] band.
// Blank lines delimit sections; short adjacent sections merge, overlong ones
// split at sentence boundaries so chunks avoid cutting mid-sentence.
func chunkText(text string, minLen, maxLen int) []PolicyChunk {
	sections := splitSections(text)
	if len(sections) == 0 {
		return nil
	}

	var chunks []PolicyChunk
	var current strings.Builder
	currentSection := ""

	flush := func() {
		body := strings.TrimSpace(current.String())
		if body == "" {
			return
		}
		chunks = append(chunks, PolicyChunk{
			ID:      len(chunks),
			Section: currentSection,
			Text:    body,
		})
		current.Reset()
		currentSection = ""
	}

	for _, section := range sections {
		for _, piece := range splitLongSection(section, maxLen) {
			if current.Len() > 0 && current.Len()+len(piece)+1 > maxLen {
				flush()
			}
			if current.Len() == 0 {
				currentSection = sectionLabel(section)
			} else {
				current.WriteString(" ")
			}
			current.WriteString(piece)
			if current.Len() >= minLen {
				flush()
			}
		}
	}
	flush()

	return chunks
}

// splitSections breaks a document on blank-line boundaries
func splitSections(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var sections []string
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			sections = append(sections, block)
		}
	}
	return sections
}

// splitLongSection cuts a section that exceeds maxLen at sentence boundaries.
// A single sentence longer than maxLen is kept whole rather than cut mid-way.
func splitLongSection(section string, maxLen int) []string {
	if len(section) <= maxLen {
		return []string{section}
	}

	sentences := splitSentences(section)

	var pieces []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxLen {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, strings.TrimSpace(current.String()))
	}
	return pieces
}

// splitSentences performs a simple period/question/exclamation split,
// keeping the terminator with its sentence
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '?' || r == '!' {
			sentence := strings.TrimSpace(current.String())
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if trailing := strings.TrimSpace(current.String()); trailing != "" {
		sentences = append(sentences, trailing)
	}
	return sentences
}

// sectionLabel derives a short source label from a section's first line
func sectionLabel(section string) string {
	line := section
	if idx := strings.IndexByte(section, '\n'); idx >= 0 {
		line = section[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:60]
	}
	return line
}
