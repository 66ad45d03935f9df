package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/shared/metrics"
	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

// Sender entrega o texto ao chat do usuário
type Sender interface {
	Send(chatID int64, text string) error
}

// ChatStore resolve o chat do Telegram vinculado ao usuário
type ChatStore interface {
	TelegramChatID(ctx context.Context, userID string) (int64, bool, error)
}

// betEventMsg é o BetEvent como chega do tópico, com payload ainda cru
type betEventMsg struct {
	UserID  string               `json:"userId"`
	Type    cevents.BetEventType `json:"type"`
	Payload json.RawMessage      `json:"payload"`
}

type apostaPayload struct {
	ID     string          `json:"id"`
	Evento string          `json:"evento"`
	Valor  decimal.Decimal `json:"valor"`
	Odd    decimal.Decimal `json:"odd"`
	Status string          `json:"status"`
}

type Processor struct {
	log    *zap.Logger
	chats  ChatStore
	sender Sender
}

func New(log *zap.Logger, chats ChatStore, sender Sender) *Processor {
	return &Processor{log: log, chats: chats, sender: sender}
}

// Handle processa uma mensagem do tópico bet_events.
// Mensagem ilegível e usuário sem chat vinculado são descartados sem erro.
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	var ev betEventMsg
	if err := json.Unmarshal(value, &ev); err != nil {
		p.log.Error("unmarshal bet event", zap.Error(err))
		metrics.NotificationsSent.WithLabelValues("invalid").Inc()
		return nil
	}
	var a apostaPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &a); err != nil {
			p.log.Warn("unmarshal aposta payload", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}

	chatID, ok, err := p.chats.TelegramChatID(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("lookup chat: %w", err)
	}
	if !ok {
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	if err := p.sender.Send(chatID, format(ev.Type, a)); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return err
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	p.log.Debug("notification sent", zap.String("userId", ev.UserID), zap.String("apostaId", a.ID))
	return nil
}

// format monta o texto enviado ao usuário
func format(t cevents.BetEventType, a apostaPayload) string {
	var action string
	switch t {
	case cevents.BetCreated:
		action = "Nova aposta registrada"
	case cevents.BetUpdated:
		action = "Aposta atualizada"
	case cevents.BetDeleted:
		action = "Aposta removida"
	default:
		action = "Aposta"
	}
	if a.Evento == "" {
		return action
	}
	return fmt.Sprintf("%s: %s | R$ %s @ %s (%s)",
		action, a.Evento, a.Valor.StringFixed(2), a.Odd.StringFixed(2), a.Status)
}
