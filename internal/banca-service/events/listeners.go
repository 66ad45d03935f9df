package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/shared/metrics"
	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

// CountPublished incrementa banca_bet_events_published_total por tipo
func CountPublished(_ context.Context, e cevents.BetEvent) error {
	metrics.BetEventsPublished.WithLabelValues(string(e.Type)).Inc()
	return nil
}

// BestEffort envolve um ouvinte cuja falha não deve interromper a entrega
// aos demais: o erro só é logado.
func BestEffort(log *zap.Logger, name string, l Listener) Listener {
	return func(ctx context.Context, e cevents.BetEvent) error {
		if err := l(ctx, e); err != nil {
			log.Warn("bet event listener failed", zap.String("listener", name),
				zap.String("type", string(e.Type)), zap.Error(err))
		}
		return nil
	}
}

// Recorder guarda os eventos recebidos; usado em testes no lugar do Kafka
type Recorder struct {
	mu     sync.Mutex
	events []cevents.BetEvent
}

func (r *Recorder) Listen(_ context.Context, e cevents.BetEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []cevents.BetEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cevents.BetEvent(nil), r.events...)
}
