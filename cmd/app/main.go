package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/filter"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/inventory"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	loc, err := cfg.Search.Location()
	if err != nil {
		log.Fatalf("search timezone: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Search.CacheTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Printf("WARNING: kafka unavailable, seat events will be dropped: %v", err)
	}

	flightRepo := repository.NewFlightRepository(pool, cfg.Inventory.LockTimeout())

	flightService := flights.NewFlightService(flightRepo, filter.NewBuilder(cfg.Search.PriceCeiling, loc), redisCache)
	seatManager := inventory.NewManager(
		flightRepo,
		inventory.WithCache(redisCache, cfg.Inventory.IdempotencyTTL()),
		inventory.WithEvents(producer, cfg.Kafka.SeatEventsTopic),
		inventory.WithOperationTimeout(cfg.Inventory.OperationTimeout()),
	)

	routes := map[string]bootstrap.Registrar{
		"/flights":   api.NewFlightHandler(flightService, seatManager),
		"/airplanes": api.NewCatalogHandler[domain.Airplane](repository.NewAirplaneRepository(pool)),
		"/cities":    api.NewCatalogHandler[domain.City](repository.NewCityRepository(pool)),
		"/airports":  api.NewCatalogHandler[domain.Airport](repository.NewAirportRepository(pool)),
	}

	if err := bootstrap.Run(ctx, cfg, routes); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
