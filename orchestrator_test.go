package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// failingGenerator always errors, exercising the static fallback
type failingGenerator struct{}

func (g *failingGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	return "", &GenerationError{Provider: g.Name(), Message: "simulated outage"}
}

func (g *failingGenerator) Name() string {
	return "failing"
}

// recordingGenerator captures the prompt it was handed
type recordingGenerator struct {
	prompt string
	system string
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	g.prompt = prompt
	g.system = systemPrompt
	return "Generated guidance.", nil
}

func (g *recordingGenerator) Name() string {
	return "recording"
}

func waterResult() *AnalysisResult {
	return &AnalysisResult{
		RunID:       "run-1",
		Resource:    ResourceWater,
		GeneratedAt: time.Now(),
		Total:       120,
		Average:     12,
		Peak:        40,
		Threshold:   20,
		Trend:       TrendIncreasing,
		Anomalies: []AnomalyRecord{
			{Timestamp: ts(1, 9), FacilityID: "DORM", Amount: 40, Threshold: 20, Severity: 2},
		},
		Facilities: map[string]*FacilityAggregate{
			"DORM": {FacilityID: "DORM", Total: 120, Mean: 12, Max: 40, Count: 10, AnomalyCount: 1},
		},
		LeakRisks:   map[string]LeakRisk{"DORM": LeakRiskLow},
		RecordCount: 10,
	}
}

func TestGenerateInsightGrounded(t *testing.T) {
	retriever := keywordRetriever(t)
	generator := &recordingGenerator{}
	orchestrator := NewInsightOrchestrator(retriever, generator, nil, testConfig(), NewLogger(false))

	entry, grounding, err := orchestrator.GenerateInsight(context.Background(), waterResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an insight entry")
	}
	if entry.Text != "Generated guidance." {
		t.Fatalf("unexpected insight text: %q", entry.Text)
	}
	if entry.Resource != ResourceWater {
		t.Fatalf("unexpected resource: %q", entry.Resource)
	}
	if len(grounding) == 0 {
		t.Fatal("expected policy grounding for a water query over the test corpus")
	}
	if !entry.Grounded {
		t.Fatal("expected the entry marked as grounded")
	}

	if !strings.HasPrefix(generator.prompt, "POLICY CONTEXT:") {
		t.Fatal("expected the generator prompt to open with the policy context block")
	}
	if !strings.Contains(generator.prompt, "CONSUMPTION STATISTICS:") {
		t.Fatal("expected the data summary inside the generator prompt")
	}
	if generator.system != SystemPrompt {
		t.Fatal("expected the system prompt passed through")
	}
}

func TestGenerateInsightFallsBackToStatic(t *testing.T) {
	retriever := keywordRetriever(t)
	orchestrator := NewInsightOrchestrator(retriever, &failingGenerator{}, nil, testConfig(), NewLogger(false))

	entry, _, err := orchestrator.GenerateInsight(context.Background(), waterResult())
	if err != nil {
		t.Fatalf("generation failure should degrade, not error: %v", err)
	}
	if entry == nil || entry.Text != staticInsightText {
		t.Fatal("expected the static fallback text")
	}
}

func TestGenerateInsightUngrounded(t *testing.T) {
	corpus, err := NewPolicyCorpus("", 100, 400, NewLogger(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retriever := NewPolicyRetriever(context.Background(), corpus, nil, nil, testConfig(), NewLogger(false))
	orchestrator := NewInsightOrchestrator(retriever, &recordingGenerator{}, nil, testConfig(), NewLogger(false))

	entry, grounding, err := orchestrator.GenerateInsight(context.Background(), waterResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grounding) != 0 {
		t.Fatalf("expected no grounding from an empty corpus, got %d chunks", len(grounding))
	}
	if entry.Grounded {
		t.Fatal("expected the entry marked as ungrounded")
	}
}

func TestGenerateInsightAppendsToLog(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, filepath.Join(dir, "insights_log.txt"), NewLogger(false))
	if err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	defer storage.Close()

	retriever := keywordRetriever(t)
	orchestrator := NewInsightOrchestrator(retriever, &recordingGenerator{}, storage, testConfig(), NewLogger(false))

	entry, _, err := orchestrator.GenerateInsight(context.Background(), waterResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	files, err := storage.ListStoredFiles()
	if err != nil {
		t.Fatalf("failed to list storage: %v", err)
	}
	found := false
	for _, name := range files {
		if name == "insights_log.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the insight log on disk, files: %v", files)
	}
	if entry.ID == "" {
		t.Fatal("expected a generated entry id")
	}
}

func TestStaticGenerator(t *testing.T) {
	generator := NewStaticGenerator()

	text, err := generator.Generate(context.Background(), "ignored", "ignored", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != staticInsightText {
		t.Fatal("expected the fixed static text")
	}
	if generator.Name() != "static" {
		t.Fatalf("unexpected generator name: %q", generator.Name())
	}
}
