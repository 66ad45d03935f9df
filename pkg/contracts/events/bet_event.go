package events

import "time"

type BetEventType string

const (
	BetCreated BetEventType = "created"
	BetUpdated BetEventType = "updated"
	BetDeleted BetEventType = "deleted"
)

// BetEvent é emitido pela banca-api a cada mutação de aposta.
// Não é persistido: vive no bus só durante a entrega e segue para o tópico "bet_events".
type BetEvent struct {
	UserID  string       `json:"userId"`
	Type    BetEventType `json:"type"`
	Payload any          `json:"payload,omitempty"`
	Ts      time.Time    `json:"ts"`
}
