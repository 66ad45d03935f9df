package repo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Banca é o modelo persistido. Cor existe no banco mas não sai da API
// (ver schema.Sanitize).
type Banca struct {
	ID           string
	UserID       string
	Nome         string
	Descricao    *string
	Status       string
	EPadrao      bool
	SaldoInicial decimal.Decimal
	Cor          *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToMap monta a representação de saída, ainda com "cor".
func (b Banca) ToMap() map[string]any {
	return map[string]any{
		"id":           b.ID,
		"nome":         b.Nome,
		"descricao":    b.Descricao,
		"status":       b.Status,
		"ePadrao":      b.EPadrao,
		"saldoInicial": b.SaldoInicial,
		"cor":          b.Cor,
		"createdAt":    b.CreatedAt,
		"updatedAt":    b.UpdatedAt,
	}
}

type BancaMetricas struct {
	Apostas       int             `json:"apostas"`
	TotalApostado decimal.Decimal `json:"totalApostado"`
	Lucro         decimal.Decimal `json:"lucro"`
}

type BancaComMetricas struct {
	Banca
	Metricas BancaMetricas
}

type Aposta struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	BancaID   string          `json:"bancaId"`
	Evento    string          `json:"evento"`
	Mercado   *string         `json:"mercado"`
	Valor     decimal.Decimal `json:"valor"`
	Odd       decimal.Decimal `json:"odd"`
	Status    string          `json:"status"`
	Data      time.Time       `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type User struct {
	ID                  string
	Nome                string
	Email               string
	PlanID              *string
	PlanNome            *string
	PromoOriginalPlanID *string
	PromoExpiresAt      *time.Time
	TelegramChatID      *int64
}

type Plan struct {
	ID                   string
	Nome                 string
	Preco                decimal.Decimal
	LimiteApostasDiarias int // 0 = ilimitado
}
