package plan

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/shared/metrics"
)

// Store define as operações de usuário/plano usadas pelo Manager
type Store interface {
	FindUser(ctx context.Context, userID string) (*repo.User, error)
	FindPlanIDByName(ctx context.Context, name string) (string, error)
	// RevertPlan só altera se a promoção ainda estiver vencida em now
	RevertPlan(ctx context.Context, userID, planID string, now time.Time) (bool, error)
	ExpiredPromoUserIDs(ctx context.Context, now time.Time) ([]string, error)
}

// Manager reverte usuários para o plano de fallback quando a promoção expira
type Manager struct {
	log          *zap.Logger
	store        Store
	cache        FallbackCache
	fallbackName string
	now          func() time.Time
}

func NewManager(log *zap.Logger, store Store, cache FallbackCache, fallbackName string) *Manager {
	return &Manager{log: log, store: store, cache: cache, fallbackName: fallbackName, now: time.Now}
}

// EnsureActivePlan verifica a promoção do usuário e, se expirada, volta ao plano original
// (ou ao plano de fallback). Usuário inexistente, sem promoção ou sem fallback resolvível
// não são erros: nada é alterado.
func (m *Manager) EnsureActivePlan(ctx context.Context, userID string) error {
	_, err := m.ensure(ctx, userID)
	return err
}

func (m *Manager) ensure(ctx context.Context, userID string) (reverted bool, err error) {
	u, err := m.store.FindUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user plan: %w", err)
	}
	if u == nil || u.PromoExpiresAt == nil {
		return false, nil
	}
	now := m.now()
	if u.PromoExpiresAt.After(now) {
		return false, nil
	}

	target := ""
	if u.PromoOriginalPlanID != nil {
		target = *u.PromoOriginalPlanID
	}
	if target == "" {
		target, err = m.fallbackPlanID(ctx)
		if err != nil {
			return false, err
		}
	}
	if target == "" {
		m.log.Warn("fallback plan not found; keeping current plan",
			zap.String("userId", userID), zap.String("plan", m.fallbackName))
		return false, nil
	}

	reverted, err = m.store.RevertPlan(ctx, userID, target, now)
	if err != nil {
		return false, fmt.Errorf("revert plan: %w", err)
	}
	if !reverted {
		// promoção renovada (ou usuário removido) depois da leitura
		return false, nil
	}
	metrics.PlanFallbacks.Inc()
	m.log.Info("promo expired; plan reverted",
		zap.String("userId", userID), zap.String("planId", target))
	return true, nil
}

// SweepExpired aplica EnsureActivePlan a todos os usuários com promoção vencida,
// inclusive os que não fazem requisições. Retorna quantos tiveram o plano revertido.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	ids, err := m.store.ExpiredPromoUserIDs(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("list expired promos: %w", err)
	}
	reverted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reverted, err
		}
		ok, err := m.ensure(ctx, id)
		if err != nil {
			m.log.Warn("sweep user plan", zap.String("userId", id), zap.Error(err))
			continue
		}
		if ok {
			reverted++
		}
	}
	return reverted, nil
}

func (m *Manager) fallbackPlanID(ctx context.Context) (string, error) {
	if id, ok := m.cache.Get(ctx); ok {
		return id, nil
	}
	id, err := m.store.FindPlanIDByName(ctx, m.fallbackName)
	if err != nil {
		return "", fmt.Errorf("find fallback plan: %w", err)
	}
	if id != "" {
		m.cache.Set(ctx, id)
	}
	return id, nil
}

// Middleware roda EnsureActivePlan para o usuário autenticado.
// Falhas só são logadas: a requisição segue sempre.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := auth.UserID(r.Context()); userID != "" {
			if err := m.EnsureActivePlan(r.Context(), userID); err != nil {
				m.log.Warn("ensure active plan", zap.String("userId", userID), zap.Error(err))
			}
		}
		next.ServeHTTP(w, r)
	})
}
