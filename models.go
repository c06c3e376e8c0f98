// Copyright 2025 The EcoSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"time"
)

// ResourceType identifies the utility a record set belongs to
type ResourceType string

const (
	ResourceElectricity ResourceType = "electricity"
	ResourceWater       ResourceType = "water"
)

// Unit returns the measurement unit for the resource
func (r ResourceType) Unit() string {
	if r == ResourceWater {
		return "gallons"
	}
	return "kWh"
}

// ConsumptionRecord is a single validated consumption reading
type ConsumptionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	FacilityID string    `json:"facilityId"`
	Amount     float64   `json:"amount"` // kWh or gallons, never negative
}

// FacilityAggregate holds per-facility statistics, recomputed on every analysis run
type FacilityAggregate struct {
	FacilityID   string  `json:"facilityId"`
	Total        float64 `json:"total"`
	Mean         float64 `json:"mean"`
	Max          float64 `json:"max"`
	Count        int     `json:"count"`
	NightTotal   float64 `json:"nightTotal"`
	AnomalyCount int     `json:"anomalyCount"`
}

// AnomalyRecord represents a consumption reading above the percentile threshold
type AnomalyRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	FacilityID string    `json:"facilityId"`
	Amount     float64   `json:"amount"`
	Threshold  float64   `json:"threshold"`
	Severity   float64   `json:"severity"` // amount / threshold, > 1.0
}

// Trend labels for the first-half versus second-half comparison
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// LeakRisk is a per-facility leak-risk tier derived from anomaly density
type LeakRisk string

const (
	LeakRiskHigh LeakRisk = "HIGH"
	LeakRiskLow  LeakRisk = "LOW"
	LeakRiskNone LeakRisk = "NONE"
)

// NightIdleAssessment flags electricity consumption left running overnight
type NightIdleAssessment struct {
	HighNightCount int     `json:"highNightCount"` // night readings above the anomaly threshold
	NightSharePct  float64 `json:"nightSharePct"`  // night total as % of grand total
	Severity       string  `json:"severity"`       // HIGH, MEDIUM or LOW
}

// AnalysisResult is the aggregate output of a single analyzer run
type AnalysisResult struct {
	RunID               string                        `json:"runId"`
	Resource            ResourceType                  `json:"resource"`
	GeneratedAt         time.Time                     `json:"generatedAt"`
	Total               float64                       `json:"total"`
	Average             float64                       `json:"average"`
	Peak                float64                       `json:"peak"`
	NightTotal          float64                       `json:"nightTotal"`
	Threshold           float64                       `json:"threshold"`
	ThresholdPercentile float64                       `json:"thresholdPercentile"`
	Trend               string                        `json:"trend"`
	Anomalies           []AnomalyRecord               `json:"anomalies"` // chronological order
	Facilities          map[string]*FacilityAggregate `json:"facilities"`
	LeakRisks           map[string]LeakRisk           `json:"leakRisks,omitempty"` // water only
	NightIdle           *NightIdleAssessment          `json:"nightIdle,omitempty"` // electricity only
	RecordCount         int                           `json:"recordCount"`
	SkippedRecords      int                           `json:"skippedRecords"`
	AnomalyPercent      float64                       `json:"anomalyPercent"`
	// Chart (base64 encoded PNG image)
	UsageChart string `json:"usageChart,omitempty"`
}

// PolicyChunk is a bounded-length excerpt of the policy knowledge base, the
// unit of retrieval. Chunks are created once at corpus load and never mutated.
type PolicyChunk struct {
	ID        int       `json:"id"`
	Section   string    `json:"section"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ScoredChunk pairs a chunk with its relevance score for one retrieval call
type ScoredChunk struct {
	Chunk PolicyChunk `json:"chunk"`
	Score float64     `json:"score"`
}

// InsightEntry is one generated insight, appended to the insight log
type InsightEntry struct {
	ID        string       `json:"id"`
	Resource  ResourceType `json:"resource"`
	CreatedAt time.Time    `json:"createdAt"`
	Text      string       `json:"text"`
	Grounded  bool         `json:"grounded"` // true when policy context backed the prompt
}
