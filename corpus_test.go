package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPolicyDoc = `Water Conservation Policy

All facilities must report suspected water leaks within 24 hours of discovery. Dripping taps and running cisterns waste thousands of litres per month and must be repaired promptly. Facility managers are responsible for monthly inspection of supply lines.

Energy Efficiency Guidelines

Lighting and HVAC systems should be switched off outside occupancy hours. Equipment left idle overnight is the largest avoidable electricity cost on campus. Timer controls must be reviewed each semester.

Recycling Programme

Paper, glass and plastics are collected separately. Contaminated loads are rejected by the processor and sent to landfill, so sorting guidance must be displayed at every collection point.`

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	return path
}

func TestNewPolicyCorpus(t *testing.T) {
	path := writePolicyFile(t, testPolicyDoc)

	corpus, err := NewPolicyCorpus(path, 100, 400, NewLogger(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Len() == 0 {
		t.Fatal("expected at least one chunk")
	}

	for i, chunk := range corpus.Chunks() {
		if chunk.ID != i {
			t.Fatalf("expected sequential chunk IDs, chunk %d has ID %d", i, chunk.ID)
		}
		if strings.TrimSpace(chunk.Text) == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
}

func TestNewPolicyCorpusMissingFile(t *testing.T) {
	corpus, err := NewPolicyCorpus(filepath.Join(t.TempDir(), "absent.txt"), 100, 400, NewLogger(false))
	if err != nil {
		t.Fatalf("a missing knowledge base should not be fatal, got %v", err)
	}
	if corpus.Len() != 0 {
		t.Fatalf("expected an empty corpus, got %d chunks", corpus.Len())
	}
}

func TestNewPolicyCorpusNoPath(t *testing.T) {
	corpus, err := NewPolicyCorpus("", 100, 400, NewLogger(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Len() != 0 {
		t.Fatalf("expected an empty corpus, got %d chunks", corpus.Len())
	}
}

func TestChunkTextLengthBand(t *testing.T) {
	chunks := chunkText(testPolicyDoc, 100, 400)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	for _, chunk := range chunks[:len(chunks)-1] {
		if len(chunk.Text) < 100 {
			t.Errorf("chunk %d below minimum length: %d chars", chunk.ID, len(chunk.Text))
		}
	}
	for _, chunk := range chunks {
		// Single sentences longer than the cap are kept whole, which the
		// test document does not contain.
		if len(chunk.Text) > 400 {
			t.Errorf("chunk %d above maximum length: %d chars", chunk.ID, len(chunk.Text))
		}
	}
}

func TestChunkTextMergesShortSections(t *testing.T) {
	doc := "First short line.\n\nSecond short line.\n\nThird short line."
	chunks := chunkText(doc, 40, 200)

	if len(chunks) != 1 {
		t.Fatalf("expected short sections merged into one chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "First") || !strings.Contains(chunks[0].Text, "Third") {
		t.Fatalf("merged chunk missing content: %q", chunks[0].Text)
	}
}

func TestChunkTextSplitsAtSentences(t *testing.T) {
	long := strings.Repeat("This sentence pads the section to force a split. ", 10)
	chunks := chunkText(long, 50, 120)

	if len(chunks) < 2 {
		t.Fatalf("expected the long section split into multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if !strings.HasSuffix(strings.TrimSpace(chunk.Text), ".") {
			t.Fatalf("chunk does not end at a sentence boundary: %q", chunk.Text)
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := chunkText("", 100, 400); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
	if chunks := chunkText("   \n\n  ", 100, 400); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace text, got %d", len(chunks))
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two? Three! Trailing fragment")
	want := []string{"One.", "Two?", "Three!", "Trailing fragment"}

	if len(got) != len(want) {
		t.Fatalf("splitSentences = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("splitSentences[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestComputeEmbeddingsUsesCache(t *testing.T) {
	path := writePolicyFile(t, testPolicyDoc)
	logger := NewLogger(false)

	cache, err := NewCache(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	embedder := &fakeEmbedder{}

	corpus, err := NewPolicyCorpus(path, 100, 400, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := corpus.ComputeEmbeddings(context.Background(), embedder, cache); err != nil {
		t.Fatalf("first embedding pass failed: %v", err)
	}
	firstCalls := embedder.calls

	// A second corpus over identical content hits the cache.
	again, err := NewPolicyCorpus(path, 100, 400, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := again.ComputeEmbeddings(context.Background(), embedder, cache); err != nil {
		t.Fatalf("second embedding pass failed: %v", err)
	}

	if embedder.calls != firstCalls {
		t.Fatalf("expected cached embeddings, backend called %d more times", embedder.calls-firstCalls)
	}
	for i, chunk := range again.Chunks() {
		if len(chunk.Embedding) == 0 {
			t.Fatalf("chunk %d missing embedding after cache load", i)
		}
	}
}
