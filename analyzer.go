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
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ConsumptionAnalyzer performs statistical analysis over a consumption
// record set. The analyzer owns its records for its lifetime and treats
// them as read-only; every Analyze call builds a fresh result.
type ConsumptionAnalyzer struct {
	resource   ResourceType
	records    []ConsumptionRecord
	skipped    int
	percentile float64
	config     *Config
	logger     *Logger
}

// NewConsumptionAnalyzer loads the record set at path and prepares an
// analyzer for it. An unreadable source returns a LoadError; malformed rows
// are dropped and counted.
func NewConsumptionAnalyzer(path string, resource ResourceType, config *Config, logger *Logger) (*ConsumptionAnalyzer, error) {
	loader := NewTabularLoader(config.Columns, logger)
	records, skipped, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	return &ConsumptionAnalyzer{
		resource:   resource,
		records:    records,
		skipped:    skipped,
		percentile: config.PercentileFor(resource),
		config:     config,
		logger:     logger.WithComponent("analyzer").WithResource(resource),
	}, nil
}

// Records exposes the loaded record set for reporting. Callers must not
// mutate the returned slice.
func (a *ConsumptionAnalyzer) Records() []ConsumptionRecord {
	return a.records
}

// Analyze computes aggregate statistics, the facility breakdown, percentile
// anomalies and the trend label. An empty record set yields a zeroed result,
// never an error.
func (a *ConsumptionAnalyzer) Analyze() *AnalysisResult {
	a.logger.Info("Starting analysis", "records", len(a.records), "skipped", a.skipped)

	result := &AnalysisResult{
		RunID:               uuid.NewString(),
		Resource:            a.resource,
		GeneratedAt:         time.Now(),
		ThresholdPercentile: a.percentile,
		Trend:               TrendStable,
		Anomalies:           []AnomalyRecord{},
		Facilities:          make(map[string]*FacilityAggregate),
		RecordCount:         len(a.records),
		SkippedRecords:      a.skipped,
	}

	if len(a.records) == 0 {
		a.logger.Info("No data available, returning empty result")
		return result
	}

	// Global statistics
	a.logger.LogAnalysisStage("global_statistics")
	for _, r := range a.records {
		result.Total += r.Amount
		if r.Amount > result.Peak {
			result.Peak = r.Amount
		}
		if a.config.IsNightHour(r.Timestamp.Hour()) {
			result.NightTotal += r.Amount
		}
	}
	result.Average = result.Total / float64(len(a.records))

	// Anomaly threshold
	a.logger.LogAnalysisStage("anomaly_threshold")
	amounts := make([]float64, len(a.records))
	for i, r := range a.records {
		amounts[i] = r.Amount
	}
	result.Threshold = percentileValue(amounts, a.percentile)

	// Chronological ordering drives both anomaly output and trend splitting
	ordered := make([]ConsumptionRecord, len(a.records))
	copy(ordered, a.records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	// Anomaly detection: amount strictly above the percentile threshold.
	// Ties sit exactly at the threshold and are never flagged, so records
	// with identical amounts are included or excluded together.
	a.logger.LogAnalysisStage("anomaly_detection")
	if result.Threshold > 0 {
		for _, r := range ordered {
			if r.Amount > result.Threshold {
				severity := r.Amount / result.Threshold
				a.logger.LogAnomalyDetected(r.Timestamp.Format("2006-01-02 15:04"), r.FacilityID, severity)
				result.Anomalies = append(result.Anomalies, AnomalyRecord{
					Timestamp:  r.Timestamp,
					FacilityID: r.FacilityID,
					Amount:     r.Amount,
					Threshold:  result.Threshold,
					Severity:   severity,
				})
			}
		}
	} else {
		// Degenerate all-zero input: a zero threshold makes severity
		// meaningless, so detection is skipped
		a.logger.Debug("Zero anomaly threshold, skipping detection")
	}
	result.AnomalyPercent = float64(len(result.Anomalies)) / float64(len(a.records)) * 100

	// Facility breakdown
	a.logger.LogAnalysisStage("facility_breakdown")
	result.Facilities = a.facilityBreakdown(result)

	// Trend classification
	a.logger.LogAnalysisStage("trend_classification")
	result.Trend = a.trendDirection(ordered)

	// Resource-specific signals
	switch a.resource {
	case ResourceWater:
		a.logger.LogAnalysisStage("leak_detection")
		result.LeakRisks = a.leakRisks(result.Facilities)
	case ResourceElectricity:
		a.logger.LogAnalysisStage("night_idle_detection")
		result.NightIdle = a.nightIdle(result)
	}

	a.logger.Info("Analysis completed",
		"total", result.Total,
		"anomalies", len(result.Anomalies),
		"trend", result.Trend,
	)

	return result
}

// facilityBreakdown groups records by facility and attributes anomaly counts
func (a *ConsumptionAnalyzer) facilityBreakdown(result *AnalysisResult) map[string]*FacilityAggregate {
	facilities := make(map[string]*FacilityAggregate)

	for _, r := range a.records {
		agg, ok := facilities[r.FacilityID]
		if !ok {
			agg = &FacilityAggregate{FacilityID: r.FacilityID}
			facilities[r.FacilityID] = agg
		}
		agg.Total += r.Amount
		agg.Count++
		if r.Amount > agg.Max {
			agg.Max = r.Amount
		}
		if a.config.IsNightHour(r.Timestamp.Hour()) {
			agg.NightTotal += r.Amount
		}
	}

	for _, agg := range facilities {
		agg.Mean = agg.Total / float64(agg.Count)
	}

	for _, anomaly := range result.Anomalies {
		if agg, ok := facilities[anomaly.FacilityID]; ok {
			agg.AnomalyCount++
		}
	}

	return facilities
}

// trendDirection compares the mean of the chronological first half against
// the second half. Changes inside the configured margin stay "stable", as do
// record sets too small to split.
func (a *ConsumptionAnalyzer) trendDirection(ordered []ConsumptionRecord) string {
	if len(ordered) < 2 {
		return TrendStable
	}

	mid := len(ordered) / 2
	firstMean := meanAmount(ordered[:mid])
	secondMean := meanAmount(ordered[mid:])

	if firstMean == 0 {
		return TrendStable
	}

	relative := (secondMean - firstMean) / firstMean
	switch {
	case relative > a.config.TrendMargin:
		return TrendIncreasing
	case relative < -a.config.TrendMargin:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// leakRisks tiers each facility by anomaly density. A facility whose anomaly
// count exceeds the configured fraction of its readings is HIGH risk; any
// anomalies at all make it LOW; otherwise NONE.
func (a *ConsumptionAnalyzer) leakRisks(facilities map[string]*FacilityAggregate) map[string]LeakRisk {
	risks := make(map[string]LeakRisk, len(facilities))

	for id, agg := range facilities {
		switch {
		case agg.Count > 0 && float64(agg.AnomalyCount) > a.config.LeakRiskFraction*float64(agg.Count):
			risks[id] = LeakRiskHigh
			a.logger.Warn("Leak risk flagged",
				"facility", id,
				"anomalies", agg.AnomalyCount,
				"readings", agg.Count,
			)
		case agg.AnomalyCount > 0:
			risks[id] = LeakRiskLow
		default:
			risks[id] = LeakRiskNone
		}
	}

	return risks
}

// nightIdle assesses overnight consumption left running above the anomaly
// threshold
func (a *ConsumptionAnalyzer) nightIdle(result *AnalysisResult) *NightIdleAssessment {
	assessment := &NightIdleAssessment{Severity: "LOW"}

	if result.Threshold > 0 {
		for _, r := range a.records {
			if a.config.IsNightHour(r.Timestamp.Hour()) && r.Amount > result.Threshold {
				assessment.HighNightCount++
			}
		}
	}

	if result.Total > 0 {
		assessment.NightSharePct = result.NightTotal / result.Total * 100
	}

	switch {
	case assessment.HighNightCount > NightIdleHighCount:
		assessment.Severity = "HIGH"
	case assessment.HighNightCount > NightIdleMediumCount:
		assessment.Severity = "MEDIUM"
	}

	return assessment
}

// Statistical helper functions

// percentileValue computes the p-th percentile with linear interpolation
// between closest ranks
func percentileValue(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower < 0 {
		lower = 0
	}
	if upper >= len(sorted) {
		upper = len(sorted) - 1
	}
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// meanAmount calculates the mean consumption of a record slice
func meanAmount(records []ConsumptionRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range records {
		sum += r.Amount
	}

	return sum / float64(len(records))
}
