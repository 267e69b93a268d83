package main

import (
	"flag"
	"fmt"
	"os"

	"house-price-pipeline/artifact"
	"house-price-pipeline/config"
	"house-price-pipeline/features"
	"house-price-pipeline/ml"
	"house-price-pipeline/scraper/zoopla"
	"house-price-pipeline/server"
	"house-price-pipeline/services"
	"house-price-pipeline/storage"
	"house-price-pipeline/utils"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := utils.NewLogger()
	cfg := config.Load()

	switch os.Args[1] {
	case "collect":
		runCollect(cfg, logger)
	case "train":
		runTrain(cfg, logger, os.Args[2:])
	case "serve":
		runServe(cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: house-price-pipeline <command>

Commands:
  collect   scrape listings, clean them, and store the dataset
  train     fit the candidate models and write the artifact
  serve     serve the prediction form and API
`)
}

// runCollect scrapes raw listings, archives them to CSV, cleans them, and
// stores the cleaned dataset in PostgreSQL.
func runCollect(cfg *config.Config, logger *utils.Logger) {
	logger.Info("=== House Price Pipeline — collect ===")
	logger.Info("Config — pages/type: %d | concurrency: %d | rate: %dms",
		cfg.PagesToScrape, cfg.MaxConcurrency, cfg.RateLimitMs)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Fatal("Failed to create CSV writer: %v", err)
	}
	defer csvWriter.Close()

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgWriter.Close()

	scraper := zoopla.New(cfg, logger)
	rawListings, err := scraper.Scrape()
	if err != nil {
		logger.Error("Zoopla scrape failed: %v", err)
	}
	if len(rawListings) == 0 {
		logger.Fatal("No listings were scraped. Exiting.")
	}

	logger.Info("Scraped %d raw listings — writing to CSV...", len(rawListings))
	if err := csvWriter.WriteRaw(rawListings); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Raw listings saved to %s", cfg.CSVOutputPath)
	}

	cleaner := services.NewCleaner(logger)
	cleanListings, err := cleaner.Clean(rawListings)
	if err != nil {
		logger.Fatal("Cleaning failed: %v", err)
	}
	logger.Info("Cleaned dataset: %d listings", len(cleanListings))

	if err := pgWriter.Write(cleanListings); err != nil {
		logger.Fatal("PostgreSQL write failed: %v", err)
	}
	logger.Info("Clean listings stored in PostgreSQL (table: listings)")

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(cleanListings))

	fmt.Printf("  Done. Raw CSV → %s | Clean data → PostgreSQL (listings table)\n\n",
		cfg.CSVOutputPath)
}

// runTrain fetches the cleaned dataset, fits the transform and both
// candidate models, and writes the versioned artifact.
func runTrain(cfg *config.Config, logger *utils.Logger, args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	out := fs.String("artifact", cfg.ArtifactPath, "Output artifact file")
	_ = fs.Parse(args)

	logger.Info("=== House Price Pipeline — train ===")

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgWriter.Close()

	listings, err := pgWriter.FetchAll()
	if err != nil {
		logger.Fatal("Failed to fetch listings: %v", err)
	}
	if len(listings) < services.MinDatasetSize {
		logger.Fatal("Insufficient data: %d listings in database, need at least %d",
			len(listings), services.MinDatasetSize)
	}
	logger.Info("Loaded %d cleaned listings from PostgreSQL", len(listings))

	params, err := features.Fit(listings)
	if err != nil {
		logger.Fatal("Transform fit failed: %v", err)
	}
	X, y, err := features.TransformDataset(listings, params)
	if err != nil {
		logger.Fatal("Transform failed: %v", err)
	}

	trainerCfg := ml.DefaultTrainerConfig(cfg.TrainSeed)
	trainerCfg.SplitRatio = cfg.SplitRatio
	trainerCfg.Forest.NumTrees = cfg.ForestTrees
	trainerCfg.Forest.MaxDepth = cfg.ForestMaxDepth
	trainerCfg.Network.Epochs = cfg.NetworkEpochs
	trainerCfg.Network.LearnRate = cfg.NetworkLearnRate
	trainerCfg.Network.Dropout = cfg.NetworkDropout

	trainer := ml.NewTrainer(trainerCfg, logger)
	result, err := trainer.Train(X, y)
	if err != nil {
		logger.Fatal("Training aborted: %v", err)
	}

	if err := artifact.Save(*out, artifact.New(result, params)); err != nil {
		logger.Fatal("Failed to save artifact: %v", err)
	}
	logger.Info("Artifact written to %s (model: %s)", *out, result.Chosen)
}

// runServe loads the trained artifact and serves predictions.
func runServe(cfg *config.Config, logger *utils.Logger, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	path := fs.String("artifact", cfg.ArtifactPath, "Trained artifact file")
	addr := fs.String("addr", cfg.ListenAddr, "Listen address")
	_ = fs.Parse(args)

	logger.Info("=== House Price Pipeline — serve ===")

	art, err := artifact.Load(*path)
	if err != nil {
		logger.Fatal("Failed to load artifact %s: %v", *path, err)
	}
	logger.Info("Artifact loaded — model: %s | forest MSE: %.4f | network MSE: %.4f",
		art.Chosen, art.ForestMetrics.MSE, art.NetworkMetrics.MSE)

	srv := server.New(*addr, logger, art)
	if err := srv.Start(); err != nil {
		logger.Fatal("Server stopped: %v", err)
	}
}
