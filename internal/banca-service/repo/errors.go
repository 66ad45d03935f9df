package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Códigos de erro da camada de dados consumidos pelo mapeador HTTP.
const (
	CodeUniqueViolation = "P2002"
	CodeRecordNotFound  = "P2025"
	CodeValueOutOfRange = "P2020"
)

// ErrDailyLimit indica que o plano do usuário já atingiu o limite de apostas do dia.
var ErrDailyLimit = errors.New("daily bet limit reached")

// códigos SQLSTATE tratados
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02" // ex: id que não é UUID
	pgNumericOutOfRange   = "22003"
)

// Error carrega o código da camada de dados junto com a causa original.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Code, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// DataCode expõe o código sem que o chamador precise importar este pacote.
func (e *Error) DataCode() string { return e.Code }

func notFound(what string) error {
	return &Error{Code: CodeRecordNotFound, Err: fmt.Errorf("%s not found", what)}
}

// translate converte erros do driver/database/sql em *Error quando há um código conhecido.
// Id malformado ou referência inexistente contam como registro não encontrado.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Code: CodeRecordNotFound, Err: err}
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return &Error{Code: CodeUniqueViolation, Err: err}
	case pgInvalidText, pgForeignKeyViolation:
		return &Error{Code: CodeRecordNotFound, Err: err}
	case pgNumericOutOfRange:
		return &Error{Code: CodeValueOutOfRange, Err: err}
	}
	return err
}
