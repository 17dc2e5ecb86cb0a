package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/voltedge/powermarket/api"
	"github.com/voltedge/powermarket/internal/aggregator"
	"github.com/voltedge/powermarket/internal/config"
	"github.com/voltedge/powermarket/internal/fixtures"
	"github.com/voltedge/powermarket/internal/ingest"
	"github.com/voltedge/powermarket/internal/pipeline"
	"github.com/voltedge/powermarket/internal/riskengine"
	"github.com/voltedge/powermarket/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Load the input batch
	var rows []map[string]string
	switch cfg.Data.Source {
	case "csv":
		rows, err = ingest.ReadCSVFile(cfg.Data.CSVPath)
		if err != nil {
			zapLogger.Fatal("Failed to read input file",
				zap.String("path", cfg.Data.CSVPath), zap.Error(err))
		}
		zapLogger.Info("loaded input file",
			zap.String("path", cfg.Data.CSVPath), zap.Int("rows", len(rows)))
	default:
		rows = fixtures.NewGenerator(cfg.Data.Seed).Rows()
		zapLogger.Info("generated demo portfolio",
			zap.Int64("seed", cfg.Data.Seed), zap.Int("rows", len(rows)))
	}

	// Run the batch
	thresholds := riskengine.Thresholds{
		BasisCompression:         decimal.NewFromFloat(cfg.Rules.BasisCompression),
		ImbalanceCostRatio:       decimal.NewFromFloat(cfg.Rules.ImbalanceCostRatio),
		DayAheadBasisCompression: decimal.NewFromFloat(cfg.Rules.DayAheadBasisCompression),
		BudgetMissPct:            decimal.NewFromFloat(cfg.Rules.BudgetMissPct),
	}
	risk := riskengine.NewEngine(thresholds, zapLogger)
	engine := pipeline.New(risk, zapLogger, cfg.Engine.Workers)

	result := engine.Run(rows)
	if len(result.Records) == 0 {
		zapLogger.Fatal("no valid rows in batch", zap.Int("rejected", len(result.Failures)))
	}

	data := &api.Dataset{
		Records:           result.Records,
		Failures:          result.Failures,
		Aggregates:        engine.Aggregates(result.Records),
		Alerts:            engine.Alerts(result.Records),
		BudgetPerformance: aggregator.BudgetByAsset(result.Records),
	}

	// Create API server
	apiServer := api.NewServer(zapLogger, data)

	// Start server in a goroutine
	go func() {
		if err := apiServer.Start(cfg.Server.Addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
}
