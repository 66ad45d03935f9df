package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender envia mensagens de texto via bot do Telegram
type Sender struct {
	bot *tgbotapi.BotAPI
}

func NewSender(token string, debug bool) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("env TELEGRAM_APITOKEN: %w", err)
	}
	bot.Debug = debug
	return &Sender{bot: bot}, nil
}

func (s *Sender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Username do bot autenticado, usado no log de inicialização
func (s *Sender) Username() string { return s.bot.Self.UserName }
