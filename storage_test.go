package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewStorage(dir, filepath.Join(dir, "insights_log.txt"), NewLogger(false))
	if err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSaveAndLoadLatestAnalysis(t *testing.T) {
	storage := testStorage(t)

	first := &AnalysisResult{
		RunID:       "run-1",
		Resource:    ResourceWater,
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Total:       100,
		Trend:       TrendStable,
	}
	second := &AnalysisResult{
		RunID:       "run-2",
		Resource:    ResourceWater,
		GeneratedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Total:       200,
		Trend:       TrendIncreasing,
	}

	if err := storage.SaveAnalysisResult(first); err != nil {
		t.Fatalf("failed to save first result: %v", err)
	}
	if err := storage.SaveAnalysisResult(second); err != nil {
		t.Fatalf("failed to save second result: %v", err)
	}

	loaded, err := storage.LoadLatestAnalysis(ResourceWater)
	if err != nil {
		t.Fatalf("failed to load latest analysis: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a stored analysis")
	}
	if loaded.RunID != "run-2" {
		t.Fatalf("expected the most recent run, got %q", loaded.RunID)
	}
	if loaded.Total != 200 || loaded.Trend != TrendIncreasing {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
}

func TestLoadLatestAnalysisNone(t *testing.T) {
	storage := testStorage(t)

	loaded, err := storage.LoadLatestAnalysis(ResourceElectricity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil when no analysis is stored")
	}
}

func TestAppendInsight(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "insights_log.txt")
	storage, err := NewStorage(dir, logPath, NewLogger(false))
	if err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	defer storage.Close()

	entries := []*InsightEntry{
		{ID: "id-1", Resource: ResourceWater, CreatedAt: time.Now(), Text: "Fix the leak in building A."},
		{ID: "id-2", Resource: ResourceElectricity, CreatedAt: time.Now(), Text: "Review overnight HVAC schedules."},
	}
	for _, entry := range entries {
		if err := storage.AppendInsight(entry); err != nil {
			t.Fatalf("failed to append insight: %v", err)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read insight log: %v", err)
	}
	content := string(data)

	for _, entry := range entries {
		if !strings.Contains(content, entry.Text) {
			t.Fatalf("insight log missing entry text %q", entry.Text)
		}
		if !strings.Contains(content, entry.ID) {
			t.Fatalf("insight log missing entry id %q", entry.ID)
		}
	}
	if got := strings.Count(content, insightSeparator); got != len(entries) {
		t.Fatalf("expected %d separators, got %d", len(entries), got)
	}
	if strings.Index(content, "id-1") > strings.Index(content, "id-2") {
		t.Fatal("expected entries appended in order")
	}
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	storage := testStorage(t)

	cache := storage.EmbeddingCache()
	if cache == nil {
		t.Fatal("expected an embedding cache")
	}

	vectors := [][]float32{{1, 2}, {3, 4}}
	if err := cache.Set("embeddings_test", vectors, time.Hour); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	var loaded [][]float32
	found, err := cache.Get("embeddings_test", &loaded)
	if err != nil {
		t.Fatalf("failed to get cache entry: %v", err)
	}
	if !found {
		t.Fatal("expected a cache hit")
	}
	if len(loaded) != 2 || loaded[1][0] != 3 {
		t.Fatalf("cache round trip lost data: %v", loaded)
	}
}

func TestCacheExpiry(t *testing.T) {
	storage := testStorage(t)
	cache := storage.EmbeddingCache()

	if err := cache.Set("ephemeral", "value", -time.Second); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	var out string
	found, err := cache.Get("ephemeral", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected expired entry to miss")
	}
}
