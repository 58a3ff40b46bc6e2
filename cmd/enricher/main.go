package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/lei-cost-enricher/internal/config"
	"github.com/anyulbade/lei-cost-enricher/internal/database"
	"github.com/anyulbade/lei-cost-enricher/internal/dataset"
	"github.com/anyulbade/lei-cost-enricher/internal/model"
	"github.com/anyulbade/lei-cost-enricher/internal/registry"
	"github.com/anyulbade/lei-cost-enricher/internal/repository"
	"github.com/anyulbade/lei-cost-enricher/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	flag.StringVar(&cfg.InputPath, "input", cfg.InputPath, "input CSV path")
	flag.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "output CSV path")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent lookups")
	flag.Parse()

	zerolog.SetGlobalLevel(cfg.Level())

	if err := run(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("enrichment failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	tbl, err := dataset.Load(cfg.InputPath)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.InputPath).Int("rows", len(tbl.Rows)).Msg("CSV file loaded")

	var store service.RunStore
	if cfg.PersistResults {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL())
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
				return err
			}
		}
		store = repository.NewEnrichmentRepository(pool)
	}

	client := registry.NewClient(cfg.GLEIFBaseURL, cfg.GLEIFTimeout, log.Logger)
	runs := service.NewRunService(client, store, cfg.Workers, log.Logger)
	runs.Execute(ctx, model.SourceBatch, tbl.Rows)

	if err := tbl.Save(cfg.OutputPath); err != nil {
		return err
	}
	log.Info().Str("path", cfg.OutputPath).Msg("output CSV created with registry data merged")
	return nil
}
