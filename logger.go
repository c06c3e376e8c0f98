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
	"fmt"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with domain-specific methods
type Logger struct {
	*slog.Logger
}

// NewLogger creates a text-formatted logger
func NewLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// NewJSONLogger creates a JSON-formatted logger
func NewJSONLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.With("component", component)}
}

// WithResource adds a resource type field to the logger
func (l *Logger) WithResource(resource ResourceType) *Logger {
	return &Logger{l.With("resource", string(resource))}
}

// LogAnalysisStage logs analysis stage completion
func (l *Logger) LogAnalysisStage(stage string) {
	l.Info("Analysis stage completed",
		"stage", stage,
	)
}

// LogAnomalyDetected logs detected anomaly
func (l *Logger) LogAnomalyDetected(timestamp, facility string, severity float64) {
	l.Warn("Anomaly detected",
		"timestamp", timestamp,
		"facility", facility,
		"severity", fmt.Sprintf("%.2fx", severity),
	)
}

// LogSkippedRows logs how many malformed rows were dropped during load
func (l *Logger) LogSkippedRows(path string, skipped int) {
	if skipped == 0 {
		return
	}
	l.Warn("Skipped malformed rows",
		"path", path,
		"skipped", skipped,
	)
}

// LogRetrieval logs a retrieval call outcome
func (l *Logger) LogRetrieval(mode, query string, results int) {
	l.Debug("Policy retrieval",
		"mode", mode,
		"query", query,
		"results", results,
	)
}

// LogStorageOperation logs storage operations
func (l *Logger) LogStorageOperation(operation, path string) {
	l.Debug("Storage operation",
		"operation", operation,
		"path", path,
	)
}

// LogGeneration logs a text-generation call outcome
func (l *Logger) LogGeneration(provider string, promptLen, responseLen int) {
	l.Info("Insight generated",
		"provider", provider,
		"prompt_chars", promptLen,
		"response_chars", responseLen,
	)
}

// UserMessage outputs a message directly to stdout (bypassing structured logging)
func (l *Logger) UserMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
