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
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	charts "github.com/vicanso/go-charts/v2"
)

// ChartGenerator handles chart generation
type ChartGenerator struct {
	theme string
}

// NewChartGenerator creates a new chart generator
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{
		theme: "light",
	}
}

// GenerateDailyUsageChart creates a line chart of daily consumption with the
// anomaly threshold drawn as a flat series for comparison
func (cg *ChartGenerator) GenerateDailyUsageChart(records []ConsumptionRecord, result *AnalysisResult) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no consumption data available")
	}

	daily := aggregateByDay(records)
	dates := sortedDates(daily)
	if len(dates) == 0 {
		return "", fmt.Errorf("no dates found in consumption data")
	}

	// Build series data
	var usageValues []float64
	var thresholdValues []float64
	var labels []string

	for _, date := range dates {
		labels = append(labels, date.Format("Jan 2"))
		usageValues = append(usageValues, daily[date])
		thresholdValues = append(thresholdValues, result.Threshold)
	}

	unit := result.Resource.Unit()
	values := [][]float64{usageValues, thresholdValues}
	legendLabels := []string{
		fmt.Sprintf("Daily usage (%s)", unit),
		fmt.Sprintf("Anomaly threshold (%s/reading)", unit),
	}

	// Create the chart
	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Daily %s consumption", result.Resource)),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc(legendLabels, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render usage chart: %w", err)
	}

	// Convert to base64 for embedding in the report
	buf, err := p.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// aggregateByDay groups consumption amounts by date and sums them
func aggregateByDay(records []ConsumptionRecord) map[time.Time]float64 {
	daily := make(map[time.Time]float64)
	for _, r := range records {
		date := time.Date(r.Timestamp.Year(), r.Timestamp.Month(), r.Timestamp.Day(), 0, 0, 0, 0, r.Timestamp.Location())
		daily[date] += r.Amount
	}
	return daily
}

// sortedDates extracts and sorts the keys of a daily aggregate
func sortedDates(daily map[time.Time]float64) []time.Time {
	dates := make([]time.Time, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}
