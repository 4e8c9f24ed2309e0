package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"darkzone_service/internal/api"
	"darkzone_service/internal/config"
	"darkzone_service/internal/core"
	"darkzone_service/internal/domain/model"
	"darkzone_service/internal/domain/repository"
	"darkzone_service/internal/infrastructure/holidays"
	"darkzone_service/internal/logger"
	"darkzone_service/internal/regression"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("DARKZONES_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	method, err := core.ParseAggregationMethod(cfg.Pipeline.Aggregation)
	if err != nil {
		log.Fatal("invalid aggregation", zap.Error(err))
	}

	// Feeds
	edgeRepo := repository.NewEdgeFileRepository(cfg.Feeds.Edges.Path)
	weatherRepo := repository.NewWeatherFileRepository(cfg.Feeds.Weather.Path, cfg.Feeds.Weather.MetadataRows)
	overpassRepo := repository.NewOverpassRepository(
		cfg.Feeds.Overpass.Endpoint,
		cfg.Feeds.Overpass.MaxParallel,
		3*time.Minute,
	)
	holidayClient := holidays.NewNagerClient(cfg.Feeds.Holidays.BaseURL, cfg.Feeds.Holidays.Timeout)

	joiners := []core.Joiner{
		&core.CalendarJoiner{Holidays: holidayClient, Region: cfg.Feeds.Holidays.Region, Years: cfg.Feeds.Holidays.Years},
		&core.GeoJoiner{Source: edgeRepo},
		&core.WeatherJoiner{Source: weatherRepo},
		&core.PoiJoiner{Source: overpassRepo, Place: cfg.Feeds.Overpass.Place, Tags: model.AmenityTags, Workers: cfg.Pipeline.POIWorkers},
	}

	// Optional storage
	var recorder core.RunRecorder
	if cfg.Storage.PostgresDSN != "" {
		pg, err := repository.NewPostgresRepository(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema", zap.Error(err))
		}
		recorder = pg
	}

	var observations api.ObservationSource
	if cfg.Mongo.URI != "" {
		mctx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		mongoRepo, err := repository.NewMongoObservationRepository(mctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		cancel()
		if err != nil {
			log.Fatal("mongo unavailable", zap.Error(err))
		}
		defer mongoRepo.Close(context.Background())
		observations = mongoRepo
	}

	trainer := &core.Trainer{
		NewRegressor: regression.Factory(cfg.Pipeline.Regression),
		TestFraction: cfg.Pipeline.TestFraction,
		Seed:         cfg.Pipeline.Seed,
		Log:          log.Named("trainer"),
	}
	service := core.NewDarkZoneService(joiners, trainer, recorder, cfg.Storage.SavePredictions, log.Named("pipeline"))

	handler := api.NewHandler(service, observations, edgeRepo, method, cfg.Server.MaxBodyBytes, log.Named("api"))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server.CorsOrigins),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}
