package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/banca-tracker/pkg/contracts/events"
)

// messageWriter é o subconjunto de *kafka.Writer usado aqui
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher encaminha eventos do bus para o tópico de eventos de aposta
type KafkaPublisher struct {
	Writer messageWriter
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

// PublishBetEvent serializa o evento e grava com key = userId (ordem por usuário).
// Tem a assinatura de events.Listener para ser inscrito direto no bus.
func (p *KafkaPublisher) PublishBetEvent(ctx context.Context, e events.BetEvent) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}
