package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/bet-notifier/processor"
	"github.com/radieske/banca-tracker/internal/bet-notifier/telegram"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: só leitura do chat vinculado ao usuário
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	sender, err := telegram.NewSender(cfg.TelegramAPIToken, cfg.Env == "local")
	if err != nil {
		log.Fatal("telegram", zap.Error(err))
	}

	// Kafka consumer: eventos de aposta publicados pela banca-api
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetEvents, "bet-notifier")
	defer reader.Close()

	// Servidor HTTP para métricas Prometheus e healthcheck
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	proc := processor.New(log, repo.NewPostgres(pg), sender)

	log.Info("bet-notifier-worker started",
		zap.String("consume", cfg.TopicBetEvents),
		zap.String("bot", sender.Username()),
		zap.String("metrics", metricsSrv.Addr),
	)

	// Loop principal: consome, notifica e segue; erros só geram log e backoff
	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("shutting down")
				return
			}
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := proc.Handle(ctx, value); err != nil {
			log.Error("notify bet event", zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}
