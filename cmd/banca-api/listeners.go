package main

import (
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/events"
)

// subscribeListeners inscreve, nessa ordem: métricas, stream e Kafka.
// O stream é best-effort; o Kafka fica por último, então uma falha dele
// (que volta para o handler) não impede a entrega ao websocket.
func subscribeListeners(log *zap.Logger, bus events.Bus, stream, kafka events.Listener) {
	bus.Subscribe(events.CountPublished)
	bus.Subscribe(events.BestEffort(log, "stream", stream))
	bus.Subscribe(kafka)
}
