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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter generates markdown sustainability reports from analysis results
type Reporter struct {
	logger *Logger
}

// NewReporter creates a new report generator
func NewReporter(logger *Logger) *Reporter {
	return &Reporter{
		logger: logger,
	}
}

// ReportInput bundles everything one resource section needs
type ReportInput struct {
	Result    *AnalysisResult
	Insight   *InsightEntry
	Grounding []ScoredChunk
}

// GenerateReport writes a markdown report covering every analyzed resource
func (r *Reporter) GenerateReport(inputs []ReportInput, outputPath string) error {
	r.logger.Info("Generating report")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	r.writeHeader(writer)
	for _, input := range inputs {
		r.writeResourceSection(writer, input)
	}
	r.writeFooter(writer)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// writeHeader writes the report header
func (r *Reporter) writeHeader(w io.Writer) {
	fmt.Fprintf(w, "# Campus Sustainability Analysis Report\n\n")
	fmt.Fprintf(w, "**Generated:** %s\n\n", time.Now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(w, "---\n\n")
}

// writeResourceSection writes the full analysis for one resource
func (r *Reporter) writeResourceSection(w io.Writer, input ReportInput) {
	result := input.Result
	unit := result.Resource.Unit()

	fmt.Fprintf(w, "## %s Analysis\n\n", titleCase(string(result.Resource)))

	r.writeSummary(w, result, unit)
	r.writeFacilityBreakdown(w, result, unit)
	r.writeAnomalies(w, result, unit)
	r.writeResourceSignals(w, result)
	r.writeChart(w, result)
	r.writeInsight(w, input)
}

// writeSummary writes the aggregate statistics table
func (r *Reporter) writeSummary(w io.Writer, result *AnalysisResult, unit string) {
	fmt.Fprintf(w, "### Summary\n\n")

	if result.RecordCount == 0 {
		fmt.Fprintf(w, "No consumption data was available for this resource.\n\n")
		return
	}

	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Readings analyzed | %s |\n", humanize.Comma(int64(result.RecordCount)))
	if result.SkippedRecords > 0 {
		fmt.Fprintf(w, "| Malformed rows skipped | %s |\n", humanize.Comma(int64(result.SkippedRecords)))
	}
	fmt.Fprintf(w, "| Total consumption | %s %s |\n", humanize.CommafWithDigits(result.Total, 2), unit)
	fmt.Fprintf(w, "| Average per reading | %s %s |\n", humanize.CommafWithDigits(result.Average, 2), unit)
	fmt.Fprintf(w, "| Peak reading | %s %s |\n", humanize.CommafWithDigits(result.Peak, 2), unit)
	fmt.Fprintf(w, "| Night-time consumption | %s %s |\n", humanize.CommafWithDigits(result.NightTotal, 2), unit)
	fmt.Fprintf(w, "| Anomaly threshold (p%.0f) | %s %s |\n", result.ThresholdPercentile, humanize.CommafWithDigits(result.Threshold, 2), unit)
	fmt.Fprintf(w, "| Anomalies | %d (%.1f%% of readings) |\n", len(result.Anomalies), result.AnomalyPercent)
	fmt.Fprintf(w, "| Trend | %s |\n", result.Trend)
	fmt.Fprintf(w, "\n")
}

// writeFacilityBreakdown writes the per-facility table
func (r *Reporter) writeFacilityBreakdown(w io.Writer, result *AnalysisResult, unit string) {
	if len(result.Facilities) == 0 {
		return
	}

	fmt.Fprintf(w, "### Facility Breakdown\n\n")
	fmt.Fprintf(w, "| Facility | Total (%s) | Mean | Max | Readings | Night (%s) | Anomalies |\n", unit, unit)
	fmt.Fprintf(w, "|----------|-----------|------|-----|----------|-----------|----------|\n")

	for _, agg := range sortedFacilities(result.Facilities) {
		fmt.Fprintf(w, "| %s | %s | %.2f | %.2f | %d | %s | %d |\n",
			agg.FacilityID,
			humanize.CommafWithDigits(agg.Total, 2),
			agg.Mean,
			agg.Max,
			agg.Count,
			humanize.CommafWithDigits(agg.NightTotal, 2),
			agg.AnomalyCount,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeAnomalies writes the anomaly table, capped for readability
func (r *Reporter) writeAnomalies(w io.Writer, result *AnalysisResult, unit string) {
	fmt.Fprintf(w, "### Anomalies\n\n")

	if len(result.Anomalies) == 0 {
		fmt.Fprintf(w, "No anomalous readings were detected above the p%.0f threshold.\n\n", result.ThresholdPercentile)
		return
	}

	fmt.Fprintf(w, "| Timestamp | Facility | Amount (%s) | Severity |\n", unit)
	fmt.Fprintf(w, "|-----------|----------|-------------|----------|\n")

	const maxRows = 20
	for i, anomaly := range result.Anomalies {
		if i == maxRows {
			fmt.Fprintf(w, "\n*... and %d more anomalies (see the saved analysis JSON for the full list).*\n", len(result.Anomalies)-maxRows)
			break
		}
		fmt.Fprintf(w, "| %s | %s | %.2f | %.2fx |\n",
			anomaly.Timestamp.Format("2006-01-02 15:04"),
			anomaly.FacilityID,
			anomaly.Amount,
			anomaly.Severity,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeResourceSignals writes leak-risk tiers or the night-idle assessment
func (r *Reporter) writeResourceSignals(w io.Writer, result *AnalysisResult) {
	if len(result.LeakRisks) > 0 {
		fmt.Fprintf(w, "### Leak Risk\n\n")
		fmt.Fprintf(w, "| Facility | Risk |\n")
		fmt.Fprintf(w, "|----------|------|\n")
		for _, agg := range sortedFacilities(result.Facilities) {
			if risk, ok := result.LeakRisks[agg.FacilityID]; ok {
				fmt.Fprintf(w, "| %s | %s |\n", agg.FacilityID, risk)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if result.NightIdle != nil {
		fmt.Fprintf(w, "### Night-Time Idle Consumption\n\n")
		fmt.Fprintf(w, "- Night readings above threshold: **%d**\n", result.NightIdle.HighNightCount)
		fmt.Fprintf(w, "- Night share of total consumption: **%.1f%%**\n", result.NightIdle.NightSharePct)
		fmt.Fprintf(w, "- Severity: **%s**\n\n", result.NightIdle.Severity)
	}
}

// writeChart embeds the daily usage chart when one was generated
func (r *Reporter) writeChart(w io.Writer, result *AnalysisResult) {
	if result.UsageChart == "" {
		return
	}
	fmt.Fprintf(w, "### Daily Usage\n\n")
	fmt.Fprintf(w, "![Daily %s usage](data:image/png;base64,%s)\n\n", result.Resource, result.UsageChart)
}

// writeInsight writes the generated recommendation and its policy grounding
func (r *Reporter) writeInsight(w io.Writer, input ReportInput) {
	if input.Insight == nil {
		return
	}

	fmt.Fprintf(w, "### Recommendations\n\n")
	fmt.Fprintf(w, "%s\n\n", input.Insight.Text)

	if len(input.Grounding) > 0 {
		fmt.Fprintf(w, "#### Policy Grounding\n\n")
		for _, sc := range input.Grounding {
			fmt.Fprintf(w, "> %s\n>\n> — *%s* (relevance %.2f)\n\n", sc.Chunk.Text, sc.Chunk.Section, sc.Score)
		}
	}
}

// writeFooter writes the report footer
func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*Generated by ecosense %s. Recommendations are decision-support, not directives.*\n", GetVersion())
}

// titleCase uppercases the first byte of an ASCII word
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
