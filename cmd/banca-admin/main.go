package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/shared/config"
	"github.com/radieske/banca-tracker/internal/shared/logger"
)

const usage = `uso: banca-admin <comando> [flags]

comandos:
  migrate             aplica as migrations pendentes
  list-users          lista usuários com plano e fim da promoção
  set-plan-price      -plan <nome> -price <valor>
  token               -user <id> [-ttl 24h]
  flush-plan-cache    remove o id do plano de fallback do Redis
`

func main() {
	os.Exit(realMain())
}

func realMain() int {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "banca-admin")
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newAdmin(cfg, os.Stdout)
	defer a.close()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Error("banca-admin", zap.String("command", os.Args[1]), zap.Error(err))
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		return 1
	}
	return 0
}
