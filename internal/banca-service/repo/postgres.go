package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

// Postgres implementa a persistência de bancas, apostas, usuários e planos
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const bancaColumns = `id, user_id, nome, descricao, status, e_padrao, saldo_inicial, cor, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBanca(s scanner, extra ...any) (Banca, error) {
	var b Banca
	dest := append([]any{
		&b.ID, &b.UserID, &b.Nome, &b.Descricao, &b.Status, &b.EPadrao, &b.SaldoInicial, &b.Cor, &b.CreatedAt, &b.UpdatedAt,
	}, extra...)
	err := s.Scan(dest...)
	return b, err
}

// ListBancas retorna as bancas do usuário com as métricas agregadas das apostas
func (p *Postgres) ListBancas(ctx context.Context, userID string) ([]BancaComMetricas, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.nome, b.descricao, b.status, b.e_padrao, b.saldo_inicial, b.cor, b.created_at, b.updated_at,
		       COUNT(a.id),
		       COALESCE(SUM(a.valor), 0),
		       COALESCE(SUM(CASE WHEN a.status = 'Ganha' THEN a.valor * a.odd - a.valor
		                         WHEN a.status = 'Perdida' THEN -a.valor
		                         ELSE 0 END), 0)
		FROM bancas b
		LEFT JOIN apostas a ON a.banca_id = b.id
		WHERE b.user_id = $1
		GROUP BY b.id
		ORDER BY b.created_at`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []BancaComMetricas
	for rows.Next() {
		var m BancaMetricas
		b, err := scanBanca(rows, &m.Apostas, &m.TotalApostado, &m.Lucro)
		if err != nil {
			return nil, err
		}
		out = append(out, BancaComMetricas{Banca: b, Metricas: m})
	}
	return out, rows.Err()
}

// GetBanca busca uma banca do usuário pelo id
func (p *Postgres) GetBanca(ctx context.Context, userID, id string) (Banca, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+bancaColumns+` FROM bancas WHERE id=$1 AND user_id=$2`, id, userID)
	b, err := scanBanca(row)
	return b, translate(err)
}

// CreateBanca insere a banca; se for padrão, desmarca as demais do usuário na mesma transação
func (p *Postgres) CreateBanca(ctx context.Context, userID string, in schema.CreateBanca) (Banca, error) {
	status := schema.BancaAtiva
	if in.Status != nil {
		status = *in.Status
	}
	ePadrao := in.EPadrao != nil && *in.EPadrao
	saldo := decimal.Zero
	if in.SaldoInicial != nil {
		saldo = *in.SaldoInicial
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Banca{}, err
	}
	defer tx.Rollback()

	if ePadrao {
		if _, err := tx.ExecContext(ctx, `UPDATE bancas SET e_padrao=FALSE, updated_at=NOW() WHERE user_id=$1 AND e_padrao`, userID); err != nil {
			return Banca{}, translate(err)
		}
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO bancas (id, user_id, nome, descricao, status, e_padrao, saldo_inicial)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+bancaColumns,
		uuid.NewString(), userID, in.Nome, in.Descricao, string(status), ePadrao, saldo,
	)
	b, err := scanBanca(row)
	if err != nil {
		return Banca{}, translate(err)
	}

	if err := tx.Commit(); err != nil {
		return Banca{}, err
	}
	return b, nil
}

// UpdateBanca aplica somente os campos enviados
func (p *Postgres) UpdateBanca(ctx context.Context, userID, id string, in schema.UpdateBanca) (Banca, error) {
	set := newSetBuilder()
	if in.Nome != nil {
		set.add("nome", *in.Nome)
	}
	if in.Descricao != nil {
		set.add("descricao", *in.Descricao)
	}
	if in.Status != nil {
		set.add("status", string(*in.Status))
	}
	if in.EPadrao != nil {
		set.add("e_padrao", *in.EPadrao)
	}
	if in.SaldoInicial != nil {
		set.add("saldo_inicial", *in.SaldoInicial)
	}
	if set.empty() {
		return p.GetBanca(ctx, userID, id)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Banca{}, err
	}
	defer tx.Rollback()

	if in.EPadrao != nil && *in.EPadrao {
		if _, err := tx.ExecContext(ctx, `UPDATE bancas SET e_padrao=FALSE, updated_at=NOW() WHERE user_id=$1 AND id<>$2 AND e_padrao`, userID, id); err != nil {
			return Banca{}, translate(err)
		}
	}

	query, args := set.build("bancas", id, userID)
	b, err := scanBanca(tx.QueryRowContext(ctx, query+` RETURNING `+bancaColumns, args...))
	if err != nil {
		return Banca{}, translate(err)
	}

	if err := tx.Commit(); err != nil {
		return Banca{}, err
	}
	return b, nil
}

// DeleteBanca remove a banca (e as apostas, via cascade)
func (p *Postgres) DeleteBanca(ctx context.Context, userID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bancas WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("banca")
	}
	return nil
}

// setBuilder monta "UPDATE t SET a=$1, b=$2, updated_at=NOW() WHERE id=$n AND user_id=$n+1"
type setBuilder struct {
	cols []string
	args []any
}

func newSetBuilder() *setBuilder { return &setBuilder{} }

func (s *setBuilder) add(col string, v any) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s=$%d", col, len(s.args)))
}

func (s *setBuilder) empty() bool { return len(s.cols) == 0 }

func (s *setBuilder) build(table, id, userID string) (string, []any) {
	args := append(s.args, id, userID)
	q := fmt.Sprintf(`UPDATE %s SET %s, updated_at=NOW() WHERE id=$%d AND user_id=$%d`,
		table, strings.Join(s.cols, ", "), len(args)-1, len(args))
	return q, args
}
