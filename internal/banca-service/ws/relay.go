package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

// PubSubChannel replica eventos de aposta entre instâncias da API
const PubSubChannel = "bet_events_broadcast"

// Relay publica os eventos do bus no Redis e repassa ao hub local o que
// chega pelo canal; assim a conexão recebe eventos gerados em qualquer instância.
type Relay struct {
	log *zap.Logger
	r   *redis.Client
}

func NewRelay(log *zap.Logger, r *redis.Client) *Relay {
	return &Relay{log: log, r: r}
}

// Publish tem a assinatura de events.Listener
func (rl *Relay) Publish(ctx context.Context, e cevents.BetEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal bet event: %w", err)
	}
	return rl.r.Publish(ctx, PubSubChannel, b).Err()
}

// Start escuta o canal numa goroutine até ctx terminar
func (rl *Relay) Start(ctx context.Context, deliver func(context.Context, cevents.BetEvent) error) {
	sub := rl.r.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				rl.forward(ctx, msg.Payload, deliver)
			}
		}
	}()
}

func (rl *Relay) forward(ctx context.Context, payload string, deliver func(context.Context, cevents.BetEvent) error) {
	var e cevents.BetEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		rl.log.Warn("ws relay unmarshal", zap.Error(err))
		return
	}
	if err := deliver(ctx, e); err != nil {
		rl.log.Warn("ws relay deliver", zap.String("userId", e.UserID), zap.Error(err))
	}
}
