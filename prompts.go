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
	"sort"
	"strings"
)

// SystemPrompt frames every generation call. Recommendations are
// decision-support for administrators, never directives.
const SystemPrompt = `You are EcoSense, a sustainability decision-support system for campus facilities.
Your role is to:
1. Analyze resource consumption data and identify inefficiencies
2. Provide evidence-based explanations for consumption patterns
3. Suggest low-cost, practical interventions
4. Maintain transparency about your reasoning

Important: you provide recommendations, not enforcement. Decisions remain with administrators.
Focus on factual analysis and responsible, practical suggestions.`

// retrievalQueryFor picks the grounding query for a resource type
func retrievalQueryFor(resource ResourceType) string {
	if resource == ResourceWater {
		return "water conservation usage efficiency waste leak"
	}
	return "electricity efficiency energy consumption optimization"
}

// dataSummary renders an analysis result as the prompt body for generation
func dataSummary(result *AnalysisResult) string {
	unit := result.Resource.Unit()

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s consumption data and provide insights:\n\n", result.Resource)

	fmt.Fprintf(&b, "CONSUMPTION STATISTICS:\n")
	fmt.Fprintf(&b, "- Total Consumption: %.2f %s\n", result.Total, unit)
	fmt.Fprintf(&b, "- Average Consumption: %.2f %s\n", result.Average, unit)
	fmt.Fprintf(&b, "- Peak Consumption: %.2f %s\n", result.Peak, unit)
	nightPct := 0.0
	if result.Total > 0 {
		nightPct = result.NightTotal / result.Total * 100
	}
	fmt.Fprintf(&b, "- Night-time Consumption: %.2f %s (%.1f%% of total)\n", result.NightTotal, unit, nightPct)
	fmt.Fprintf(&b, "- Anomalies Detected: %d instances above threshold %.2f\n", len(result.Anomalies), result.Threshold)
	fmt.Fprintf(&b, "- Trend: %s\n", result.Trend)

	fmt.Fprintf(&b, "\nFACILITY DATA:\n")
	for _, agg := range sortedFacilities(result.Facilities) {
		fmt.Fprintf(&b, "- %s: total %.2f %s, mean %.2f, %d anomalies\n",
			agg.FacilityID, agg.Total, unit, agg.Mean, agg.AnomalyCount)
	}

	if len(result.Anomalies) > 0 {
		fmt.Fprintf(&b, "\nANOMALY DETAILS:\n")
		for i, anomaly := range result.Anomalies {
			if i == maxPromptAnomalies {
				fmt.Fprintf(&b, "- ... and %d more\n", len(result.Anomalies)-maxPromptAnomalies)
				break
			}
			fmt.Fprintf(&b, "- %s at %s: %.2f %s (%.1fx threshold)\n",
				anomaly.FacilityID,
				anomaly.Timestamp.Format("2006-01-02 15:04"),
				anomaly.Amount, unit, anomaly.Severity)
		}
	}

	switch result.Resource {
	case ResourceWater:
		writeLeakSection(&b, result)
	case ResourceElectricity:
		writeNightIdleSection(&b, result)
	}

	fmt.Fprintf(&b, "\nBased on this data, provide:\n")
	fmt.Fprintf(&b, "1. Key findings about consumption patterns\n")
	fmt.Fprintf(&b, "2. Facility-specific insights\n")
	fmt.Fprintf(&b, "3. Potential causes of anomalies\n")
	fmt.Fprintf(&b, "4. Practical, low-cost sustainability recommendations\n\n")
	fmt.Fprintf(&b, "Keep your response clear, factual, and actionable for campus decision-makers.")

	return b.String()
}

const maxPromptAnomalies = 15

func writeLeakSection(b *strings.Builder, result *AnalysisResult) {
	if len(result.LeakRisks) == 0 {
		return
	}

	var atRisk []string
	for facility, risk := range result.LeakRisks {
		if risk == LeakRiskHigh {
			atRisk = append(atRisk, facility)
		}
	}
	sort.Strings(atRisk)

	fmt.Fprintf(b, "\nLEAK INDICATORS:\n")
	if len(atRisk) == 0 {
		fmt.Fprintf(b, "- No facilities currently at high leak risk\n")
		return
	}
	fmt.Fprintf(b, "- Facilities at HIGH leak risk: %s\n", strings.Join(atRisk, ", "))
	fmt.Fprintf(b, "- Recommended for immediate inspection\n")
}

func writeNightIdleSection(b *strings.Builder, result *AnalysisResult) {
	if result.NightIdle == nil {
		return
	}

	fmt.Fprintf(b, "\nNIGHT-TIME IDLE ASSESSMENT:\n")
	fmt.Fprintf(b, "- Night readings above threshold: %d\n", result.NightIdle.HighNightCount)
	fmt.Fprintf(b, "- Night share of total consumption: %.1f%%\n", result.NightIdle.NightSharePct)
	fmt.Fprintf(b, "- Issue severity: %s\n", result.NightIdle.Severity)
}

// sortedFacilities returns aggregates in facility-id order for stable prompts
func sortedFacilities(facilities map[string]*FacilityAggregate) []*FacilityAggregate {
	out := make([]*FacilityAggregate, 0, len(facilities))
	for _, agg := range facilities {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FacilityID < out[j].FacilityID
	})
	return out
}
