package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/engine"
	bhttp "github.com/NemanjaZirojevic/f1betting/internal/betting-service/http"
	kpub "github.com/NemanjaZirojevic/f1betting/internal/betting-service/producer"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/provider"
	"github.com/NemanjaZirojevic/f1betting/internal/betting-service/repo"
	sharedcache "github.com/NemanjaZirojevic/f1betting/internal/shared/cache"
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

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.ApplyMigrations(context.Background(), pg, log, cfg.MigrationsDir); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}

	// Redis: cache de cotações do catálogo
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (bet_placed, event_settled)
	betPlacedWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer betPlacedWriter.Close()
	settledWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettled)
	defer settledWriter.Close()

	// deps
	database := repo.NewDB(pg)
	eng := engine.New(log, database,
		repo.NewUsers(database),
		repo.NewEvents(database),
		repo.NewBets(database),
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.OpenF1Rate), cfg.OpenF1Burst)
	odds := provider.NewOddsCache(rdb, 5*time.Minute)
	catalog := provider.NewOpenF1(cfg.OpenF1BaseURL, log, limiter, odds)

	publ := kpub.NewKafkaPublisher(betPlacedWriter, settledWriter)

	// HTTP público
	api := bhttp.NewServer(log, eng, catalog, publ)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	log.Info("betting-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
