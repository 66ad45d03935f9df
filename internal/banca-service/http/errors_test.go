package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "validation", err: &schema.ValidationError{Issues: []schema.Issue{{Field: "nome", Message: "is required"}}}, status: http.StatusBadRequest, msg: "validation failed"},
		{name: "unique violation", err: &repo.Error{Code: repo.CodeUniqueViolation, Err: errors.New("dup")}, status: http.StatusConflict, msg: "record already exists"},
		{name: "wrapped unique violation", err: fmt.Errorf("create banca: %w", &repo.Error{Code: repo.CodeUniqueViolation, Err: errors.New("dup")}), status: http.StatusConflict, msg: "record already exists"},
		{name: "not found", err: &repo.Error{Code: repo.CodeRecordNotFound, Err: errors.New("banca not found")}, status: http.StatusNotFound, msg: "record not found"},
		{name: "value out of range", err: &repo.Error{Code: repo.CodeValueOutOfRange, Err: errors.New("numeric field overflow")}, status: http.StatusBadRequest, msg: "value out of range"},
		{name: "unknown data code", err: &repo.Error{Code: "P9999", Err: errors.New("x")}, status: http.StatusInternalServerError, msg: msgInternal},
		{name: "own status", err: &HTTPError{Status: http.StatusTooManyRequests, Message: "daily bet limit reached"}, status: http.StatusTooManyRequests, msg: "daily bet limit reached"},
		{name: "own status without message", err: &HTTPError{Status: http.StatusTeapot}, status: http.StatusTeapot, msg: msgInternal},
		{name: "plain error does not leak", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, msg: msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, zap.NewNop(), tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestWriteError_ValidationIssues(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, zap.NewNop(), &schema.ValidationError{Issues: []schema.Issue{
		{Field: "nome", Message: "is required"},
		{Field: "status", Message: "must be one of: Ativa, Inativa"},
	}})

	var body struct {
		Issues []schema.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Issues, 2)
	assert.Equal(t, "status", body.Issues[1].Field)
}
