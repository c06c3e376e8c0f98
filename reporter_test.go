package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateReport(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.md")

	result := waterResult()
	inputs := []ReportInput{
		{
			Result: result,
			Insight: &InsightEntry{
				ID:        "id-1",
				Resource:  ResourceWater,
				CreatedAt: time.Now(),
				Text:      "Inspect the dormitory supply lines.",
				Grounded:  true,
			},
			Grounding: []ScoredChunk{
				{Chunk: PolicyChunk{ID: 0, Section: "Water Conservation Policy", Text: "Report leaks within 24 hours."}, Score: 0.8},
			},
		},
	}

	if err := NewReporter(NewLogger(false)).GenerateReport(inputs, outputPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	report := string(data)

	for _, want := range []string{
		"# Campus Sustainability Analysis Report",
		"## Water Analysis",
		"### Summary",
		"### Facility Breakdown",
		"### Anomalies",
		"### Leak Risk",
		"### Recommendations",
		"Inspect the dormitory supply lines.",
		"Report leaks within 24 hours.",
		"DORM",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestGenerateReportEmptyResult(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.md")

	empty := &AnalysisResult{
		Resource:   ResourceElectricity,
		Trend:      TrendStable,
		Facilities: map[string]*FacilityAggregate{},
	}

	err := NewReporter(NewLogger(false)).GenerateReport([]ReportInput{{Result: empty}}, outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "No consumption data was available") {
		t.Fatal("expected the empty-data notice")
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"water", "Water"},
		{"electricity", "Electricity"},
		{"", ""},
		{"Water", "Water"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.input); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
