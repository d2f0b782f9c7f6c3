package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/notify"
	"github.com/Domenick1991/flightbooking/internal/repository"
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

	metrics.Register()
	metrics.StartDBCollectors(ctx, pool, cfg.Worker.GaugeInterval(), log.Default())

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: cfg.Worker.MetricsAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.SeatEventsTopic)
	defer consumer.Close()

	sender := notify.NewSender(os.Stdout)

	log.Printf("worker consuming %s as %s", cfg.Kafka.SeatEventsTopic, cfg.Kafka.GroupID)
	err = consumer.ConsumeSeatEvents(ctx, func(ctx context.Context, event kafka.SeatEvent) error {
		metrics.IncSeatEventConsumed(string(event.Type))
		if err := sender.Send(ctx, event); err != nil {
			log.Printf("notify seat event %s: %v", event.EventID, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("consumer stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown metrics server: %v", err)
	}
}
