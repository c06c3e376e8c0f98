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

const (
	// DefaultThresholdPercentile flags consumption above the 75th percentile
	DefaultThresholdPercentile = 75.0

	// Night window: [22:00, 24:00) union [00:00, 05:00)
	DefaultNightStartHour = 22
	DefaultNightEndHour   = 5

	// DefaultTrendMargin is the relative margin separating a genuine trend
	// from noise when comparing first-half and second-half means
	DefaultTrendMargin = 0.05

	// DefaultLeakRiskFraction marks a facility HIGH leak risk when its
	// anomaly count exceeds this fraction of its record count
	DefaultLeakRiskFraction = 0.20

	// Night-idle severity boundaries (count of night readings above threshold)
	NightIdleHighCount   = 10
	NightIdleMediumCount = 5
)

const (
	// Retrieval defaults
	DefaultTopK        = 3
	DefaultChunkMinLen = 200
	DefaultChunkMaxLen = 600

	// TopicContextK is the wider lookup used by PolicyContext
	TopicContextK = 5

	// SearchPoliciesLimit caps raw keyword scans over the corpus
	SearchPoliciesLimit = 10
)

const (
	DefaultEmbeddingModel = "all-minilm"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens      = 500

	// EmbeddingCacheTTLHours bounds how long precomputed corpus embeddings
	// are reused before the backend is asked again
	EmbeddingCacheTTLHours = 24 * 7
)
