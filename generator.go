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

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Generator produces natural-language insight text from an assembled prompt.
// Implementations may fail or be unavailable; callers degrade to the static
// generator so the pipeline always yields an insight.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error)
	Name() string
}

// AnthropicGenerator calls the Anthropic Messages API
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
	logger *Logger
}

// NewAnthropicGenerator creates a generation client for the given model
func NewAnthropicGenerator(apiKey, model string, logger *Logger) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger.WithComponent("generator"),
	}
}

// Name identifies the provider in logs and reports
func (g *AnthropicGenerator) Name() string {
	return "anthropic"
}

// Generate sends the prompt and returns the first text block of the response
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &GenerationError{
			Provider: g.Name(),
			Message:  "messages request failed",
			Err:      err,
		}
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			g.logger.LogGeneration(g.Name(), len(prompt), len(block.Text))
			return block.Text, nil
		}
	}

	return "", &GenerationError{
		Provider: g.Name(),
		Message:  "no text content in response",
	}
}

// StaticGenerator returns deterministic canned guidance. It serves as the
// offline mode when no API key is configured and as the fallback when a live
// generation call fails.
type StaticGenerator struct{}

// NewStaticGenerator creates the offline generator
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// Name identifies the provider in logs and reports
func (g *StaticGenerator) Name() string {
	return "static"
}

// Generate ignores the prompt and returns fixed guidance text
func (g *StaticGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	return staticInsightText, nil
}

const staticInsightText = `Automated insight generation is unavailable; the findings above stand on their own.

Suggested starting points based on the detected patterns:
1. Review the facilities with the highest anomaly counts first; sustained readings above the threshold usually indicate equipment left running or a supply fault.
2. Compare night-time consumption against occupancy schedules. Off-hours usage above a quarter of the total typically signals idle equipment or timer misconfiguration.
3. Where leak risk is flagged HIGH, schedule a physical inspection of the facility's supply lines before the next billing cycle.
4. Re-run the analysis after any intervention to confirm the trend moves toward stable or decreasing.`
