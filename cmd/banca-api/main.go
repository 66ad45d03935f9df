package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/events"
	bhttp "github.com/radieske/banca-tracker/internal/banca-service/http"
	"github.com/radieske/banca-tracker/internal/banca-service/plan"
	kpub "github.com/radieske/banca-tracker/internal/banca-service/producer"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/ws"
	"github.com/radieske/banca-tracker/internal/shared/cache"
	"github.com/radieske/banca-tracker/internal/shared/config"
	"github.com/radieske/banca-tracker/internal/shared/db"
	"github.com/radieske/banca-tracker/internal/shared/kafka"
	"github.com/radieske/banca-tracker/internal/shared/logger"
	"github.com/radieske/banca-tracker/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	if cfg.JWTSecret == "" {
		// requisições autenticadas vão responder 500 até o segredo ser configurado
		log.Warn("JWT_SECRET not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (opcional): compartilha o id do plano de fallback entre instâncias
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	var planCache plan.FallbackCache = plan.NewMemoryCache(cfg.FallbackPlanTTL)
	if rdb != nil {
		defer rdb.Close()
		planCache = plan.NewRedisCache(rdb, cfg.FallbackPlanName, cfg.FallbackPlanTTL)
	}

	// Kafka writer (topic bet_events)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetEvents)
	defer writer.Close()

	// websocket: eventos do próprio usuário em tempo real
	hub := ws.NewHub(log, nil)

	// websocket local ou, com Redis, via relay entre instâncias
	stream := hub.Listen
	if rdb != nil {
		relay := ws.NewRelay(log, rdb)
		relay.Start(ctx, hub.Listen)
		stream = relay.Publish
	}

	bus := events.NewLocalBus()
	defer bus.Close()
	subscribeListeners(log, bus, stream, kpub.NewKafkaPublisher(writer, cfg.TopicBetEvents).PublishBetEvent)

	// deps
	repository := repo.NewPostgres(pg)
	plans := plan.NewManager(log, repository, planCache, cfg.FallbackPlanName)
	authMW := auth.NewMiddleware(log, cfg.JWTSecret)

	// varredura periódica das promoções vencidas (usuários sem requisições também)
	if cfg.PlanSweepSpec != "" {
		stopSweep, err := plan.StartSweeper(log, plans, cfg.PlanSweepSpec)
		if err != nil {
			log.Fatal("plan sweeper", zap.Error(err))
		}
		defer stopSweep()
	}

	// HTTP público
	api := bhttp.NewServer(log, repository, bus, authMW.Handler, plans.Middleware).WithStream(hub)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	go func() {
		log.Info("banca-api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
