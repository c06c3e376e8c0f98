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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// insightSeparator closes each entry in the line-oriented insight log
const insightSeparator = "=================================================="

// Storage handles analysis result persistence, the append-only insight log
// and the embeddings cache
type Storage struct {
	basePath    string
	insightPath string
	cache       *Cache
	logger      *Logger
}

// NewStorage creates a new storage handler with caching
func NewStorage(basePath, insightPath string, logger *Logger) (*Storage, error) {
	// Ensure storage directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, &StorageError{
			Operation: "create_directory",
			Path:      basePath,
			Err:       err,
		}
	}

	// Initialize cache
	cache, err := NewCache(basePath, logger)
	if err != nil {
		return nil, &StorageError{
			Operation: "initialize_cache",
			Path:      basePath,
			Err:       err,
		}
	}

	logger.Debug("Storage initialized", "path", basePath)

	return &Storage{
		basePath:    basePath,
		insightPath: insightPath,
		cache:       cache,
		logger:      logger,
	}, nil
}

// SaveAnalysisResult saves an analysis result as a timestamped JSON file
func (s *Storage) SaveAnalysisResult(result *AnalysisResult) error {
	filename := fmt.Sprintf("%s_analysis_%s.json", result.Resource, result.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.basePath, filename)

	s.logger.LogStorageOperation("save_analysis", path)

	return s.saveJSON(path, result)
}

// LoadLatestAnalysis loads the most recent analysis result for a resource
func (s *Storage) LoadLatestAnalysis(resource ResourceType) (*AnalysisResult, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_analysis_*.json", resource))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &StorageError{
			Operation: "glob_analysis",
			Path:      pattern,
			Err:       err,
		}
	}

	if len(matches) == 0 {
		return nil, nil // No previous analysis found
	}

	// Get the most recent file (files are sorted by date in filename)
	latestFile := matches[len(matches)-1]

	s.logger.LogStorageOperation("load_latest_analysis", latestFile)

	var result AnalysisResult
	if err := s.loadJSON(latestFile, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// AppendInsight appends one entry to the insight log. The log is
// write-only from the pipeline's perspective: a timestamp header line,
// the insight text and a separator per entry.
func (s *Storage) AppendInsight(entry *InsightEntry) error {
	if dir := filepath.Dir(s.insightPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StorageError{
				Operation: "create_insight_directory",
				Path:      dir,
				Err:       err,
			}
		}
	}

	file, err := os.OpenFile(s.insightPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &StorageError{
			Operation: "open_insight_log",
			Path:      s.insightPath,
			Err:       err,
		}
	}
	defer file.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] %s %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Resource, entry.ID)
	b.WriteString(strings.TrimSpace(entry.Text))
	b.WriteString("\n" + insightSeparator + "\n")

	if _, err := file.WriteString(b.String()); err != nil {
		return &StorageError{
			Operation: "append_insight",
			Path:      s.insightPath,
			Err:       err,
		}
	}

	s.logger.LogStorageOperation("append_insight", s.insightPath)
	return nil
}

// EmbeddingCache exposes the JSON cache used for corpus embeddings
func (s *Storage) EmbeddingCache() *Cache {
	return s.cache
}

// saveJSON saves data as JSON to a file
func (s *Storage) saveJSON(path string, data interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return &StorageError{
			Operation: "create_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return &StorageError{
			Operation: "encode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// loadJSON loads data from a JSON file
func (s *Storage) loadJSON(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return &StorageError{
			Operation: "open_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return &StorageError{
			Operation: "decode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// ListStoredFiles lists all files in the storage directory
func (s *Storage) ListStoredFiles() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, &StorageError{
			Operation: "list_directory",
			Path:      s.basePath,
			Err:       err,
		}
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

// Close closes all storage resources
func (s *Storage) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
