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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TabularLoader reads consumption CSVs into typed records. Rows with
// missing or invalid fields are dropped and counted, never fatal; an
// unreadable source or a header missing a required column is a LoadError.
type TabularLoader struct {
	columns ColumnMapping
	logger  *Logger
}

// NewTabularLoader creates a loader bound to a column mapping
func NewTabularLoader(columns ColumnMapping, logger *Logger) *TabularLoader {
	return &TabularLoader{
		columns: columns,
		logger:  logger.WithComponent("loader"),
	}
}

// Load reads all valid records from path. It returns the records, the count
// of skipped rows and an error only when the source itself is unreadable.
func (t *TabularLoader) Load(path string) ([]ConsumptionRecord, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, &LoadError{
			Path:    path,
			Message: "cannot open consumption data",
			Err:     err,
		}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // malformed rows are handled per row, not per file
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, &LoadError{
			Path:    path,
			Message: "cannot read header row",
			Err:     err,
		}
	}

	tsIdx, facIdx, amtIdx, err := t.resolveColumns(path, header)
	if err != nil {
		return nil, 0, err
	}

	var records []ConsumptionRecord
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Structurally broken row: recover locally and keep going
			skipped++
			continue
		}

		record, ok := t.parseRow(row, tsIdx, facIdx, amtIdx)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	t.logger.Debug("Consumption data loaded",
		"path", path,
		"records", len(records),
		"skipped", skipped,
	)
	t.logger.LogSkippedRows(path, skipped)

	return records, skipped, nil
}

// resolveColumns maps configured column labels to header positions
func (t *TabularLoader) resolveColumns(path string, header []string) (tsIdx, facIdx, amtIdx int, err error) {
	tsIdx, facIdx, amtIdx = -1, -1, -1

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case strings.ToLower(t.columns.Timestamp):
			tsIdx = i
		case strings.ToLower(t.columns.Facility):
			facIdx = i
		case strings.ToLower(t.columns.Amount):
			amtIdx = i
		}
	}

	var missing []string
	if tsIdx < 0 {
		missing = append(missing, t.columns.Timestamp)
	}
	if facIdx < 0 {
		missing = append(missing, t.columns.Facility)
	}
	if amtIdx < 0 {
		missing = append(missing, t.columns.Amount)
	}
	if len(missing) > 0 {
		return 0, 0, 0, &LoadError{
			Path:    path,
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return tsIdx, facIdx, amtIdx, nil
}

// parseRow validates a single row against the record invariants
func (t *TabularLoader) parseRow(row []string, tsIdx, facIdx, amtIdx int) (ConsumptionRecord, bool) {
	maxIdx := tsIdx
	if facIdx > maxIdx {
		maxIdx = facIdx
	}
	if amtIdx > maxIdx {
		maxIdx = amtIdx
	}
	if len(row) <= maxIdx {
		return ConsumptionRecord{}, false
	}

	timestamp, ok := parseTimestamp(strings.TrimSpace(row[tsIdx]))
	if !ok {
		return ConsumptionRecord{}, false
	}

	facility := strings.TrimSpace(row[facIdx])
	if facility == "" {
		return ConsumptionRecord{}, false
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(row[amtIdx]), 64)
	if err != nil || amount < 0 {
		return ConsumptionRecord{}, false
	}

	return ConsumptionRecord{
		Timestamp:  timestamp,
		FacilityID: facility,
		Amount:     amount,
	}, true
}

// parseTimestamp tries the accepted layouts in order
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
