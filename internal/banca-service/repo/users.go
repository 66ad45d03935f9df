package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const userColumns = `u.id, u.nome, u.email, u.plan_id, p.nome, u.promo_original_plan_id, u.promo_expires_at, u.telegram_chat_id`

func scanUser(s scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Nome, &u.Email, &u.PlanID, &u.PlanNome, &u.PromoOriginalPlanID, &u.PromoExpiresAt, &u.TelegramChatID)
	return u, err
}

// FindUser retorna nil (sem erro) quando o usuário não existe
func (p *Postgres) FindUser(ctx context.Context, userID string) (*User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN plans p ON p.id = u.plan_id
		WHERE u.id=$1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers lista todos os usuários (script administrativo)
func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN plans p ON p.id = u.plan_id
		ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FindPlanIDByName retorna "" quando não existe plano com esse nome
func (p *Postgres) FindPlanIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `SELECT id FROM plans WHERE nome=$1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// ExpiredPromoUserIDs lista usuários cuja promoção já venceu em now
func (p *Postgres) ExpiredPromoUserIDs(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id FROM users
		WHERE promo_expires_at IS NOT NULL AND promo_expires_at <= $1
		ORDER BY promo_expires_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RevertPlan troca o plano e limpa os campos de promoção num único UPDATE,
// só se a promoção continuar vencida em now. reverted=false quando nada mudou
// (usuário inexistente ou promoção renovada nesse meio tempo).
func (p *Postgres) RevertPlan(ctx context.Context, userID, planID string, now time.Time) (reverted bool, err error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE users
		SET plan_id=$1, promo_original_plan_id=NULL, promo_expires_at=NULL
		WHERE id=$2 AND promo_expires_at IS NOT NULL AND promo_expires_at <= $3`, planID, userID, now)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPlanPrice ajusta o preço de um plano pelo nome
func (p *Postgres) SetPlanPrice(ctx context.Context, name string, price decimal.Decimal) (Plan, error) {
	var pl Plan
	err := p.db.QueryRowContext(ctx, `
		UPDATE plans SET preco=$1 WHERE nome=$2
		RETURNING id, nome, preco, limite_apostas_diarias`, price, name).
		Scan(&pl.ID, &pl.Nome, &pl.Preco, &pl.LimiteApostasDiarias)
	return pl, translate(err)
}

// TelegramChatID retorna o chat do usuário; ok=false quando não vinculado
func (p *Postgres) TelegramChatID(ctx context.Context, userID string) (chatID int64, ok bool, err error) {
	var id sql.NullInt64
	err = p.db.QueryRowContext(ctx, `SELECT telegram_chat_id FROM users WHERE id=$1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id.Int64, id.Valid, nil
}
