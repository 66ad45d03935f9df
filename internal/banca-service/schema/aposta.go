package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApostaStatus string

const (
	ApostaPendente    ApostaStatus = "Pendente"
	ApostaGanha       ApostaStatus = "Ganha"
	ApostaPerdida     ApostaStatus = "Perdida"
	ApostaReembolsada ApostaStatus = "Reembolsada"
)

type CreateAposta struct {
	BancaID string          `json:"bancaId" validate:"required,uuid"`
	Evento  string          `json:"evento" validate:"required"`
	Mercado *string         `json:"mercado,omitempty"`
	Valor   decimal.Decimal `json:"valor" validate:"gt=0,lt=1000000000000"`
	Odd     decimal.Decimal `json:"odd" validate:"gt=1,lt=100000"`
	Status  *ApostaStatus   `json:"status,omitempty" validate:"omitnil,oneof=Pendente Ganha Perdida Reembolsada"`
	Data    *time.Time      `json:"data,omitempty"`
}

type UpdateAposta struct {
	Evento  *string          `json:"evento,omitempty" validate:"omitnil,min=1"`
	Mercado *string          `json:"mercado,omitempty"`
	Valor   *decimal.Decimal `json:"valor,omitempty" validate:"omitnil,gt=0,lt=1000000000000"`
	Odd     *decimal.Decimal `json:"odd,omitempty" validate:"omitnil,gt=1,lt=100000"`
	Status  *ApostaStatus    `json:"status,omitempty" validate:"omitnil,oneof=Pendente Ganha Perdida Reembolsada"`
	Data    *time.Time       `json:"data,omitempty"`
}

func (u UpdateAposta) Empty() bool {
	return u.Evento == nil && u.Mercado == nil && u.Valor == nil && u.Odd == nil && u.Status == nil && u.Data == nil
}

// ParseCreateAposta valida o corpo de POST /api/apostas.
func ParseCreateAposta(raw map[string]any) (CreateAposta, error) {
	r := newReader(raw)
	for _, k := range []string{"bancaId", "evento", "valor", "odd"} {
		r.require(k)
	}

	var out CreateAposta
	if s := r.str("bancaId"); s != nil {
		out.BancaID = *s
	}
	if s := r.str("evento"); s != nil {
		out.Evento = *s
	}
	if d := r.number("valor"); d != nil {
		out.Valor = *d
	}
	if d := r.number("odd"); d != nil {
		out.Odd = *d
	}
	readApostaOptionals(r, &out.Mercado, &out.Status, &out.Data)

	if err := r.finish(&out); err != nil {
		return CreateAposta{}, err
	}
	return out, nil
}

// ParseUpdateAposta valida o corpo de PUT /api/apostas/{id}; a banca não muda.
func ParseUpdateAposta(raw map[string]any) (UpdateAposta, error) {
	r := newReader(raw)

	var out UpdateAposta
	out.Evento = r.str("evento")
	out.Valor = r.number("valor")
	out.Odd = r.number("odd")
	readApostaOptionals(r, &out.Mercado, &out.Status, &out.Data)

	if err := r.finish(&out); err != nil {
		return UpdateAposta{}, err
	}
	return out, nil
}

func readApostaOptionals(r *reader, mercado **string, status **ApostaStatus, data **time.Time) {
	if m := r.str("mercado"); m != nil {
		*mercado = normalizeOptional(*m)
	}
	if s := r.str("status"); s != nil {
		st := ApostaStatus(*s)
		*status = &st
	}
	*data = r.timestamp("data")
}
