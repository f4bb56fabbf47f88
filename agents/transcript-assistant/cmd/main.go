package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	transcriptassistant "transcript-assistant/agents/transcript-assistant"
	"transcript-assistant/shared/config"
	"transcript-assistant/shared/logging"
	"transcript-assistant/shared/metadata"
	"transcript-assistant/shared/pipeline"
)

const usage = `Usage:
  transcript-assistant [serve]                        start the HTTP API
  transcript-assistant --once <input> [style] [lang]  process one input and print the result
  transcript-assistant auth                           authorize YouTube Data API access`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	// Logs go to stderr so --once output stays parseable.
	logging.Configure(logging.Config{Level: cfg.Logging.Level, Output: os.Stderr, Service: transcriptassistant.ServiceName})
	logger := logging.WithComponent("main")

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "serve":
		assistant := transcriptassistant.New(cfg)
		if err := assistant.Initialize(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize")
		}
		if err := assistant.Serve(ctx); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}

	case "--once":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		opts := pipeline.Options{}
		if len(os.Args) > 3 {
			opts.Style = os.Args[3]
		}
		if len(os.Args) > 4 {
			opts.Translate = true
			opts.TargetLanguage = os.Args[4]
		}

		assistant := transcriptassistant.New(cfg)
		if err := assistant.Initialize(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize")
		}
		result, err := assistant.ProcessOnce(ctx, os.Args[2], opts)
		if err != nil {
			logger.Fatal().Err(err).Str("error_kind", string(pipeline.Kind(err))).Msg("processing failed")
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			logger.Fatal().Err(err).Msg("failed to write result")
		}

	case "auth":
		if err := metadata.Authorize(ctx, cfg.YouTube, os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("authorization failed")
		}

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
