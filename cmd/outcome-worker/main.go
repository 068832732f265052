package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/engine"
	kpub "github.com/NemanjaZirojevic/f1betting/internal/betting-service/producer"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/repo"
	"github.com/NemanjaZirojevic/f1betting/internal/outcome-worker/consumer"
	"github.com/NemanjaZirojevic/f1betting/internal/shared/config"
	"github.com/NemanjaZirojevic/f1betting/internal/shared/db"
	sharedkafka "github.com/NemanjaZirojevic/f1betting/internal/shared/kafka"
	"github.com/NemanjaZirojevic/f1betting/internal/shared/logger"
	"github.com/NemanjaZirojevic/f1betting/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: mesmo banco do betting-service
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.ApplyMigrations(ctx, pg, log, cfg.MigrationsDir); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}

	// Kafka: consome race_results, publica event_settled, DLQ em falha
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicRaceResults, "outcome-worker")
	defer reader.Close()

	settledWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettled)
	defer settledWriter.Close()

	dlqWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceResultsDLQ)
	defer dlqWriter.Close()

	database := repo.NewDB(pg)
	eng := engine.New(log, database,
		repo.NewUsers(database),
		repo.NewEvents(database),
		repo.NewBets(database),
	)

	// Publisher só de event_settled; bet_placed não é emitido aqui
	publ := kpub.NewKafkaPublisher(nil, settledWriter)

	proc := &consumer.Processor{
		Log:     log,
		Reader:  reader,
		Settler: eng,
		Publ:    publ,
		DLQ:     dlqWriter,

		OnConsumed: func() {},
		OnSettled:  func() { metrics.EventsSettled.Inc() },
		OnError:    func(stage string) { metrics.SettleFailures.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		return nil
	})

	log.Info("outcome-worker started",
		zap.String("consume", cfg.TopicRaceResults),
		zap.String("publish", cfg.TopicEventSettled),
	)

	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer", zap.Error(err))
	}
	log.Info("outcome-worker stopped")
}
