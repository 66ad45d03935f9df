package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

const apostaColumns = `id, user_id, banca_id, evento, mercado, valor, odd, status, data, created_at, updated_at`

func scanAposta(s scanner) (Aposta, error) {
	var a Aposta
	err := s.Scan(&a.ID, &a.UserID, &a.BancaID, &a.Evento, &a.Mercado, &a.Valor, &a.Odd, &a.Status, &a.Data, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListApostas lista as apostas do usuário; bancaID vazio = todas as bancas
func (p *Postgres) ListApostas(ctx context.Context, userID, bancaID string) ([]Aposta, error) {
	query := `SELECT ` + apostaColumns + ` FROM apostas WHERE user_id=$1`
	args := []any{userID}
	if bancaID != "" {
		query += ` AND banca_id=$2`
		args = append(args, bancaID)
	}
	query += ` ORDER BY data DESC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []Aposta{}
	for rows.Next() {
		a, err := scanAposta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) GetAposta(ctx context.Context, userID, id string) (Aposta, error) {
	a, err := scanAposta(p.db.QueryRowContext(ctx,
		`SELECT `+apostaColumns+` FROM apostas WHERE id=$1 AND user_id=$2`, id, userID))
	return a, translate(err)
}

// CreateAposta insere a aposta; a banca precisa pertencer ao usuário.
// O limite diário do plano é conferido na mesma transação, com a linha do
// usuário travada, contando as apostas criadas a partir de since.
func (p *Postgres) CreateAposta(ctx context.Context, userID string, in schema.CreateAposta, since time.Time) (Aposta, error) {
	status := schema.ApostaPendente
	if in.Status != nil {
		status = *in.Status
	}
	data := time.Now().UTC()
	if in.Data != nil {
		data = *in.Data
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Aposta{}, err
	}
	defer tx.Rollback()

	limit, err := lockDailyBetLimit(ctx, tx, userID)
	if err != nil {
		return Aposta{}, translate(err)
	}
	if limit > 0 {
		n, err := countApostasSince(ctx, tx, userID, since)
		if err != nil {
			return Aposta{}, err
		}
		if n >= limit {
			return Aposta{}, ErrDailyLimit
		}
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO apostas (id, user_id, banca_id, evento, mercado, valor, odd, status, data)
		SELECT $1,$2,b.id,$4,$5,$6,$7,$8,$9 FROM bancas b WHERE b.id=$3 AND b.user_id=$2
		RETURNING `+apostaColumns,
		uuid.NewString(), userID, in.BancaID, in.Evento, in.Mercado, in.Valor, in.Odd, string(status), data,
	)
	a, err := scanAposta(row)
	if err != nil {
		// nenhuma linha inserida = banca inexistente ou de outro usuário
		return Aposta{}, translate(err)
	}

	if err := tx.Commit(); err != nil {
		return Aposta{}, err
	}
	return a, nil
}

func (p *Postgres) UpdateAposta(ctx context.Context, userID, id string, in schema.UpdateAposta) (Aposta, error) {
	set := newSetBuilder()
	if in.Evento != nil {
		set.add("evento", *in.Evento)
	}
	if in.Mercado != nil {
		set.add("mercado", *in.Mercado)
	}
	if in.Valor != nil {
		set.add("valor", *in.Valor)
	}
	if in.Odd != nil {
		set.add("odd", *in.Odd)
	}
	if in.Status != nil {
		set.add("status", string(*in.Status))
	}
	if in.Data != nil {
		set.add("data", *in.Data)
	}
	if set.empty() {
		return p.GetAposta(ctx, userID, id)
	}

	query, args := set.build("apostas", id, userID)
	a, err := scanAposta(p.db.QueryRowContext(ctx, query+` RETURNING `+apostaColumns, args...))
	return a, translate(err)
}

// DeleteAposta remove e devolve a aposta apagada (vai no payload do evento)
func (p *Postgres) DeleteAposta(ctx context.Context, userID, id string) (Aposta, error) {
	a, err := scanAposta(p.db.QueryRowContext(ctx,
		`DELETE FROM apostas WHERE id=$1 AND user_id=$2 RETURNING `+apostaColumns, id, userID))
	return a, translate(err)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// lockDailyBetLimit devolve o limite diário do plano (0 = ilimitado, sem plano ou
// usuário inexistente) e trava a linha do usuário até o fim da transação
func lockDailyBetLimit(ctx context.Context, q rowQuerier, userID string) (int, error) {
	var limit int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(p.limite_apostas_diarias, 0)
		FROM users u LEFT JOIN plans p ON p.id = u.plan_id
		WHERE u.id=$1
		FOR UPDATE OF u`, userID).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return limit, err
}

func countApostasSince(ctx context.Context, q rowQuerier, userID string, since time.Time) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM apostas WHERE user_id=$1 AND created_at >= $2`, userID, since).Scan(&n)
	return n, err
}
