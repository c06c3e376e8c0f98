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
	"time"

	"github.com/google/uuid"
)

// InsightOrchestrator combines analyzer output with retrieved policy context
// and drives the generation call. Generation failures degrade to the static
// generator so a run always produces an insight; only storage errors
// propagate to the caller.
type InsightOrchestrator struct {
	retriever *PolicyRetriever
	generator Generator
	fallback  Generator
	storage   *Storage
	config    *Config
	logger    *Logger
}

// NewInsightOrchestrator wires the insight pipeline
func NewInsightOrchestrator(retriever *PolicyRetriever, generator Generator, storage *Storage, config *Config, logger *Logger) *InsightOrchestrator {
	return &InsightOrchestrator{
		retriever: retriever,
		generator: generator,
		fallback:  NewStaticGenerator(),
		storage:   storage,
		config:    config,
		logger:    logger.WithComponent("orchestrator"),
	}
}

// GenerateInsight builds the grounded prompt for an analysis result, runs
// generation and appends the insight to the log. The returned chunks are the
// policy grounding used for the prompt, for display alongside the insight.
func (o *InsightOrchestrator) GenerateInsight(ctx context.Context, result *AnalysisResult) (*InsightEntry, []ScoredChunk, error) {
	summary := dataSummary(result)
	query := retrievalQueryFor(result.Resource)

	grounding := o.retriever.Retrieve(ctx, query, o.config.TopK)
	prompt := o.retriever.AugmentPrompt(ctx, summary, query)

	text, err := o.generator.Generate(ctx, prompt, SystemPrompt, o.config.MaxTokens)
	provider := o.generator.Name()
	if err != nil {
		o.logger.Warn("Generation failed, using static fallback", "provider", provider, "error", err)
		text, _ = o.fallback.Generate(ctx, prompt, SystemPrompt, o.config.MaxTokens)
		provider = o.fallback.Name()
	}

	entry := &InsightEntry{
		ID:        uuid.NewString(),
		Resource:  result.Resource,
		CreatedAt: time.Now(),
		Text:      text,
		Grounded:  len(grounding) > 0,
	}

	o.logger.Info("Insight assembled",
		"resource", result.Resource,
		"provider", provider,
		"grounding_chunks", len(grounding),
	)

	if o.storage != nil {
		if err := o.storage.AppendInsight(entry); err != nil {
			return entry, grounding, err
		}
	}

	return entry, grounding, nil
}
