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
	"context"
	"flag"
	"fmt"
	"os"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	electricityCSV := flag.String("electricity", "", "Path to electricity consumption CSV (overrides config)")
	waterCSV := flag.String("water", "", "Path to water consumption CSV (overrides config)")
	policyPath := flag.String("policies", "", "Path to the policy knowledge base (overrides config)")
	outputPath := flag.String("output", "", "Output file for report (default: stdout)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("ecosense %s\n", GetVersion())
		os.Exit(0)
	}

	// Initialize logger
	logger := NewLogger(*debug)
	logger.Info("Starting ecosense", "version", GetVersion())

	// A missing default config file is fine, the defaults plus flags and
	// environment variables are enough to run.
	effectiveConfig := *configPath
	if effectiveConfig == "config.yaml" {
		if _, err := os.Stat(effectiveConfig); err != nil {
			effectiveConfig = ""
		}
	}

	// Load configuration
	logger.Info("Loading configuration", "config_file", effectiveConfig)
	config, err := LoadConfig(effectiveConfig)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Override with command-line flags
	if *electricityCSV != "" {
		config.ElectricityCSV = *electricityCSV
	}
	if *waterCSV != "" {
		config.WaterCSV = *waterCSV
	}
	if *policyPath != "" {
		config.PolicyPath = *policyPath
	}
	if *debug {
		config.Debug = true
		// Recreate logger with debug enabled
		logger = NewLogger(true)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Configuration loaded successfully")

	ctx := context.Background()

	// Initialize storage
	logger.Info("Initializing storage", "path", config.StoragePath)
	storage, err := NewStorage(config.StoragePath, config.InsightLog, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	// Load the policy knowledge base
	logger.Info("Loading policy knowledge base", "path", config.PolicyPath)
	corpus, err := NewPolicyCorpus(config.PolicyPath, config.ChunkMinLen, config.ChunkMaxLen, logger)
	if err != nil {
		logger.Error("Failed to load policy knowledge base", "error", err)
		os.Exit(1)
	}

	// Build the retriever. Semantic mode needs an embedding backend, without
	// one the retriever runs on the keyword index alone.
	var embedder Embedder
	if httpEmbedder := NewHTTPEmbedder(config.EmbeddingURL, config.EmbeddingModel, config.EmbeddingAPIKey, logger); httpEmbedder != nil {
		embedder = httpEmbedder
	}
	retriever := NewPolicyRetriever(ctx, corpus, embedder, storage.EmbeddingCache(), config, logger)

	// Pick the insight generator
	var generator Generator
	if config.AnthropicAPIKey != "" {
		logger.Info("Using Anthropic generator", "model", config.AnthropicModel)
		generator = NewAnthropicGenerator(config.AnthropicAPIKey, config.AnthropicModel, logger)
	} else {
		logger.Info("No Anthropic API key configured, using static suggestions")
		generator = NewStaticGenerator()
	}

	orchestrator := NewInsightOrchestrator(retriever, generator, storage, config, logger)
	chartGen := NewChartGenerator()

	// Analyze each configured resource
	resources := []struct {
		resource ResourceType
		path     string
	}{
		{ResourceElectricity, config.ElectricityCSV},
		{ResourceWater, config.WaterCSV},
	}

	var inputs []ReportInput
	for _, res := range resources {
		if res.path == "" {
			continue
		}

		resLogger := logger.WithResource(res.resource)
		resLogger.Info("Analyzing consumption data", "path", res.path)

		analyzer, err := NewConsumptionAnalyzer(res.path, res.resource, config, resLogger)
		if err != nil {
			logger.Error("Failed to load consumption data", "resource", res.resource, "error", err)
			os.Exit(1)
		}

		result := analyzer.Analyze()

		// Attach the daily usage chart
		if chart, err := chartGen.GenerateDailyUsageChart(analyzer.Records(), result); err != nil {
			resLogger.Warn("Failed to generate usage chart", "error", err)
		} else {
			result.UsageChart = chart
		}

		// Save analysis results
		if err := storage.SaveAnalysisResult(result); err != nil {
			resLogger.Warn("Failed to save analysis results", "error", err)
		}

		// Generate the policy-grounded insight
		insight, grounding, err := orchestrator.GenerateInsight(ctx, result)
		if err != nil {
			resLogger.Warn("Failed to record insight", "error", err)
		}

		inputs = append(inputs, ReportInput{
			Result:    result,
			Insight:   insight,
			Grounding: grounding,
		})
	}

	// Generate report
	logger.Info("Generating Markdown report")
	reporter := NewReporter(logger)
	if err := reporter.GenerateReport(inputs, *outputPath); err != nil {
		logger.Error("Failed to generate report", "error", err)
		os.Exit(1)
	}

	logger.Info("Analysis completed successfully")
}
