package schema

import "github.com/shopspring/decimal"

type BancaStatus string

const (
	BancaAtiva   BancaStatus = "Ativa"
	BancaInativa BancaStatus = "Inativa"
)

// CreateBanca é o payload validado de criação. Não existe campo de cor:
// "cor" enviado pelo cliente é descartado na leitura.
type CreateBanca struct {
	Nome         string           `json:"nome" validate:"required"`
	Descricao    *string          `json:"descricao,omitempty"`
	Status       *BancaStatus     `json:"status,omitempty" validate:"omitnil,oneof=Ativa Inativa"`
	EPadrao      *bool            `json:"ePadrao,omitempty"`
	SaldoInicial *decimal.Decimal `json:"saldoInicial,omitempty" validate:"omitnil,gt=-1000000000000,lt=1000000000000"`
}

// UpdateBanca tem os mesmos campos, todos opcionais (atualização parcial).
type UpdateBanca struct {
	Nome         *string          `json:"nome,omitempty" validate:"omitnil,min=1"`
	Descricao    *string          `json:"descricao,omitempty"`
	Status       *BancaStatus     `json:"status,omitempty" validate:"omitnil,oneof=Ativa Inativa"`
	EPadrao      *bool            `json:"ePadrao,omitempty"`
	SaldoInicial *decimal.Decimal `json:"saldoInicial,omitempty" validate:"omitnil,gt=-1000000000000,lt=1000000000000"`
}

// Empty indica que nenhum campo reconhecido foi enviado.
func (u UpdateBanca) Empty() bool {
	return u.Nome == nil && u.Descricao == nil && u.Status == nil && u.EPadrao == nil && u.SaldoInicial == nil
}

// ParseCreateBanca valida e normaliza o corpo de POST /api/bancas.
func ParseCreateBanca(raw map[string]any) (CreateBanca, error) {
	r := newReader(raw)
	r.require("nome")

	var out CreateBanca
	if nome := r.str("nome"); nome != nil {
		out.Nome = *nome
	}
	readBancaOptionals(r, &out.Descricao, &out.Status, &out.EPadrao, &out.SaldoInicial)

	if err := r.finish(&out); err != nil {
		return CreateBanca{}, err
	}
	return out, nil
}

// ParseUpdateBanca valida e normaliza o corpo de PUT /api/bancas/{id}.
func ParseUpdateBanca(raw map[string]any) (UpdateBanca, error) {
	r := newReader(raw)

	var out UpdateBanca
	out.Nome = r.str("nome")
	readBancaOptionals(r, &out.Descricao, &out.Status, &out.EPadrao, &out.SaldoInicial)

	if err := r.finish(&out); err != nil {
		return UpdateBanca{}, err
	}
	return out, nil
}

func readBancaOptionals(r *reader, descricao **string, status **BancaStatus, ePadrao **bool, saldo **decimal.Decimal) {
	if d := r.str("descricao"); d != nil {
		*descricao = normalizeOptional(*d)
	}
	if s := r.str("status"); s != nil {
		st := BancaStatus(*s)
		*status = &st
	}
	*ePadrao = r.boolean("ePadrao")
	*saldo = r.number("saldoInicial")
}
