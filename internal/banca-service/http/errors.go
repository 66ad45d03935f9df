package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

const msgInternal = "internal server error"

// HTTPError é um erro com status e mensagem pensados para o cliente
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string   { return e.Message }
func (e *HTTPError) StatusCode() int { return e.Status }

// writeError é o único ponto de tradução de erro -> resposta HTTP.
// Ordem: validação (400), chave duplicada (409), não encontrado (404),
// valor fora da faixa do banco (400), status/mensagem do próprio erro, senão 500 genérico.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		writeJSONStatus(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"issues": verr.Issues,
		})
		return
	}

	var coded interface{ DataCode() string }
	if errors.As(err, &coded) {
		switch coded.DataCode() {
		case repo.CodeUniqueViolation:
			writeJSONStatus(w, http.StatusConflict, errorBody("record already exists"))
			return
		case repo.CodeRecordNotFound:
			writeJSONStatus(w, http.StatusNotFound, errorBody("record not found"))
			return
		case repo.CodeValueOutOfRange:
			writeJSONStatus(w, http.StatusBadRequest, errorBody("value out of range"))
			return
		}
	}

	status, msg := http.StatusInternalServerError, msgInternal
	var withStatus interface{ StatusCode() int }
	if errors.As(err, &withStatus) && withStatus.StatusCode() != 0 {
		status = withStatus.StatusCode()
	}
	var herr *HTTPError
	if errors.As(err, &herr) && herr.Message != "" {
		msg = herr.Message
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSONStatus(w, status, errorBody(msg))
}

func errorBody(msg string) map[string]string { return map[string]string{"error": msg} }
