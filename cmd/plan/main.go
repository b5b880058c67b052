package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"trip-planner-service/internal/adapters/repositories"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/logging"

	"go.uber.org/zap"
)

// plan reads a planning request from a JSON file and prints the itinerary.
func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s request.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Logs go to stderr in console format so stdout stays valid JSON.
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	pipeline, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build pipeline", zap.Error(err))
	}
	defer func() { _ = pipeline.Close() }()

	source := repositories.NewJSONCandidateSource(flag.Arg(0), pipeline.Schedule)
	req, err := source.LoadRequest(ctx)
	if err != nil {
		logger.Fatal("load request", zap.Error(err))
	}

	it, err := pipeline.Planner.PlanTrip(ctx, req)
	if err != nil {
		logger.Fatal("plan trip", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.NewItineraryResponse(it.Route, it.Elements, it.Failed)); err != nil {
		logger.Fatal("encode itinerary", zap.Error(err))
	}
	if it.Failed {
		os.Exit(1)
	}
}
