package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

var bancaCols = []string{"id", "user_id", "nome", "descricao", "status", "e_padrao", "saldo_inicial", "cor", "created_at", "updated_at"}

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgres(db), mock
}

func TestTranslate(t *testing.T) {
	var rerr *Error

	err := translate(&pq.Error{Code: "23505", Message: "duplicate key value"})
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeUniqueViolation, rerr.DataCode())

	err = translate(sql.ErrNoRows)
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeRecordNotFound, rerr.Code)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	for code, want := range map[string]string{
		"22P02": CodeRecordNotFound,
		"23503": CodeRecordNotFound,
		"22003": CodeValueOutOfRange,
	} {
		err = translate(&pq.Error{Code: pq.ErrorCode(code)})
		require.True(t, errors.As(err, &rerr), code)
		assert.Equal(t, want, rerr.Code, code)
	}

	plain := errors.New("boom")
	assert.Same(t, plain, translate(plain))
	assert.NoError(t, translate(nil))
}

func TestCreateBanca_DefaultUnsetsOthers(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bancas SET e_padrao=FALSE`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO bancas`).
		WithArgs(sqlmock.AnyArg(), "u1", "Principal", nil, "Ativa", true, "0").
		WillReturnRows(sqlmock.NewRows(bancaCols).
			AddRow("b1", "u1", "Principal", nil, "Ativa", true, "0", nil, now, now))
	mock.ExpectCommit()

	padrao := true
	b, err := p.CreateBanca(context.Background(), "u1", schema.CreateBanca{Nome: "Principal", EPadrao: &padrao})
	require.NoError(t, err)

	assert.Equal(t, "b1", b.ID)
	assert.True(t, b.EPadrao)
	assert.Nil(t, b.Descricao)
	assert.True(t, b.SaldoInicial.IsZero())
}

func TestGetBanca_MalformedID(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(`FROM bancas WHERE id=\$1 AND user_id=\$2`).
		WithArgs("abc", "u1").
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := p.GetBanca(context.Background(), "u1", "abc")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeRecordNotFound, rerr.Code)
}

func TestCreateBanca_Overflow(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bancas`).
		WillReturnError(&pq.Error{Code: "22003"})
	mock.ExpectRollback()

	saldo := decimal.RequireFromString("999999999999.999")
	_, err := p.CreateBanca(context.Background(), "u1", schema.CreateBanca{Nome: "Principal", SaldoInicial: &saldo})

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeValueOutOfRange, rerr.Code)
}

func TestCreateBanca_Duplicate(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bancas`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := p.CreateBanca(context.Background(), "u1", schema.CreateBanca{Nome: "Principal"})

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeUniqueViolation, rerr.Code)
}

func TestUpdateBanca_OnlySentFields(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()
	nome := "Nova"

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE bancas SET nome=\$1, saldo_inicial=\$2, updated_at=NOW\(\) WHERE id=\$3 AND user_id=\$4 RETURNING`).
		WithArgs("Nova", "10.5", "b1", "u1").
		WillReturnRows(sqlmock.NewRows(bancaCols).
			AddRow("b1", "u1", "Nova", "desc", "Ativa", false, "10.5", "#fff", now, now))
	mock.ExpectCommit()

	saldo := decimal.RequireFromString("10.5")
	b, err := p.UpdateBanca(context.Background(), "u1", "b1", schema.UpdateBanca{Nome: &nome, SaldoInicial: &saldo})
	require.NoError(t, err)
	assert.Equal(t, "Nova", b.Nome)
	require.NotNil(t, b.Cor)
	assert.Equal(t, "#fff", *b.Cor)
}

func TestUpdateBanca_NotFound(t *testing.T) {
	p, mock := newMock(t)
	st := schema.BancaInativa

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE bancas SET status=\$1`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := p.UpdateBanca(context.Background(), "u1", "missing", schema.UpdateBanca{Status: &st})
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeRecordNotFound, rerr.Code)
}

func TestDeleteBanca_NotFound(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM bancas`).
		WithArgs("b9", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.DeleteBanca(context.Background(), "u1", "b9")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, CodeRecordNotFound, rerr.Code)
}

func TestListBancas_WithMetrics(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()

	cols := append(append([]string{}, bancaCols...), "count", "total", "lucro")
	mock.ExpectQuery(`FROM bancas b\s+LEFT JOIN apostas a`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "u1", "Principal", nil, "Ativa", true, "100", "#123456", now, now, 3, "60.00", "12.50"))

	out, err := p.ListBancas(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Metricas.Apostas)
	assert.True(t, decimal.RequireFromString("12.5").Equal(out[0].Metricas.Lucro))
	assert.Equal(t, "#123456", *out[0].Cor)
}

func TestBancaToMap_KeepsColorForSanitizer(t *testing.T) {
	cor := "#000"
	m := Banca{ID: "1", Nome: "X", Status: "Ativa", Cor: &cor}.ToMap()
	assert.Contains(t, m, "cor")
	assert.NotContains(t, schema.Sanitize(m), "cor")
}
