package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// StartSweeper agenda SweepExpired conforme a expressão cron schedule (ex: "@every 1h", "0 * * * *").
// Execuções sobrepostas são puladas. O retorno para o agendador.
func StartSweeper(log *zap.Logger, m *Manager, schedule string) (stop func(), err error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		n, err := m.SweepExpired(ctx)
		if err != nil {
			log.Warn("plan sweep", zap.Int("reverted", n), zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("plan sweep", zap.Int("reverted", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("plan sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
