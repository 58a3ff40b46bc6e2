package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/lei-cost-enricher/internal/config"
	"github.com/anyulbade/lei-cost-enricher/internal/database"
	"github.com/anyulbade/lei-cost-enricher/internal/handler"
	"github.com/anyulbade/lei-cost-enricher/internal/middleware"
	"github.com/anyulbade/lei-cost-enricher/internal/registry"
	"github.com/anyulbade/lei-cost-enricher/internal/repository"
	"github.com/anyulbade/lei-cost-enricher/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	zerolog.SetGlobalLevel(cfg.Level())
	gin.SetMode(cfg.GinMode)

	var (
		store  service.RunStore
		pinger handler.Pinger
	)
	if cfg.PersistResults {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := database.NewPool(ctx, cfg.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}
		store = repository.NewEnrichmentRepository(pool)
		pinger = pool
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pinger)
	router.GET("/health", healthHandler.Health)

	setupAPIRoutes(router, cfg, store)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, cfg *config.Config, store service.RunStore) {
	client := registry.NewClient(cfg.GLEIFBaseURL, cfg.GLEIFTimeout, log.Logger)
	runService := service.NewRunService(client, store, cfg.Workers, log.Logger)
	enrichmentHandler := handler.NewEnrichmentHandler(runService, cfg.MaxUploadBytes)

	api := router.Group("/api/v1")
	{
		api.POST("/enrichments", enrichmentHandler.Create)
		api.GET("/runs/:id", enrichmentHandler.Get)
	}
}
