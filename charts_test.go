package main

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestAggregateByDay(t *testing.T) {
	records := []ConsumptionRecord{
		{Timestamp: ts(1, 8), Amount: 3},
		{Timestamp: ts(1, 20), Amount: 4},
		{Timestamp: ts(2, 8), Amount: 5},
	}

	daily := aggregateByDay(records)
	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}

	day1 := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if daily[day1] != 7 {
		t.Fatalf("expected day 1 total 7, got %f", daily[day1])
	}
}

func TestSortedDates(t *testing.T) {
	daily := map[time.Time]float64{
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC): 1,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC): 1,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC): 1,
	}

	dates := sortedDates(daily)
	for i := 1; i < len(dates); i++ {
		if dates[i].Before(dates[i-1]) {
			t.Fatalf("dates out of order at index %d", i)
		}
	}
}

func TestGenerateDailyUsageChart(t *testing.T) {
	records := []ConsumptionRecord{
		{Timestamp: ts(1, 8), FacilityID: "LIB", Amount: 3},
		{Timestamp: ts(2, 8), FacilityID: "LIB", Amount: 8},
		{Timestamp: ts(3, 8), FacilityID: "LIB", Amount: 5},
	}
	result := &AnalysisResult{Resource: ResourceElectricity, Threshold: 6}

	chart, err := NewChartGenerator().GenerateDailyUsageChart(records, result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chart == "" {
		t.Fatal("expected chart data")
	}
	if _, err := base64.StdEncoding.DecodeString(chart); err != nil {
		t.Fatalf("chart is not valid base64: %v", err)
	}
}

func TestGenerateDailyUsageChartEmpty(t *testing.T) {
	result := &AnalysisResult{Resource: ResourceElectricity}
	if _, err := NewChartGenerator().GenerateDailyUsageChart(nil, result); err == nil {
		t.Fatal("expected an error for empty records")
	}
}
