package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/plan"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/shared/config"
)

type fakeStore struct {
	users []repo.User
	plans map[string]repo.Plan
	set   decimal.Decimal
}

func (f *fakeStore) ListUsers(context.Context) ([]repo.User, error) { return f.users, nil }

func (f *fakeStore) SetPlanPrice(_ context.Context, name string, price decimal.Decimal) (repo.Plan, error) {
	pl, ok := f.plans[name]
	if !ok {
		return repo.Plan{}, &repo.Error{Code: repo.CodeRecordNotFound, Err: errors.New("no rows")}
	}
	f.set = price
	pl.Preco = price
	return pl, nil
}

func newTestAdmin(store adminStore) (*admin, *bytes.Buffer) {
	var out bytes.Buffer
	a := newAdmin(config.Config{JWTSecret: "s3cret", FallbackPlanName: "Free"}, &out)
	a.store = store
	return a, &out
}

func TestUnknownCommand(t *testing.T) {
	a, _ := newTestAdmin(&fakeStore{})
	assert.ErrorIs(t, a.run(context.Background(), "drop-all", nil), errUsage)
}

func TestToken(t *testing.T) {
	a, out := newTestAdmin(&fakeStore{})

	require.NoError(t, a.run(context.Background(), "token", []string{"-user", "u1", "-ttl", "1h"}))

	claims, err := auth.Verify(strings.TrimSpace(out.String()), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	assert.ErrorIs(t, a.run(context.Background(), "token", nil), errUsage)
}

func TestListUsers(t *testing.T) {
	pro := "Pro"
	exp := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	a, out := newTestAdmin(&fakeStore{users: []repo.User{
		{ID: "u1", Nome: "Ana", Email: "ana@example.com", PlanNome: &pro, PromoExpiresAt: &exp},
		{ID: "u2", Nome: "Bia", Email: "bia@example.com"},
	}})

	require.NoError(t, a.run(context.Background(), "list-users", nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2024-07-01T00:00:00Z")
	assert.Contains(t, lines[2], "bia@example.com")
}

func TestSetPlanPrice(t *testing.T) {
	store := &fakeStore{plans: map[string]repo.Plan{"Pro": {ID: "p2", Nome: "Pro"}}}
	a, out := newTestAdmin(store)

	require.NoError(t, a.run(context.Background(), "set-plan-price", []string{"-plan", "Pro", "-price", "19.9"}))
	assert.Equal(t, "19.9", store.set.String())
	assert.Equal(t, "Pro (p2): 19.90\n", out.String())

	err := a.run(context.Background(), "set-plan-price", []string{"-plan", "Gold", "-price", "5"})
	assert.ErrorContains(t, err, `plan "Gold" not found`)

	for _, args := range [][]string{
		{"-plan", "Pro"},
		{"-plan", "Pro", "-price", "abc"},
		{"-plan", "Pro", "-price", "-1"},
	} {
		assert.ErrorIs(t, a.run(context.Background(), "set-plan-price", args), errUsage, args)
	}
}

func TestFlushPlanCache(t *testing.T) {
	a, out := newTestAdmin(&fakeStore{})
	c := plan.NewMemoryCache(0)
	c.Set(context.Background(), "free-id")
	a.planCache = c

	require.NoError(t, a.run(context.Background(), "flush-plan-cache", nil))
	_, ok := c.Get(context.Background())
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Free")
}

func TestFlushPlanCache_WithoutRedis(t *testing.T) {
	a, _ := newTestAdmin(&fakeStore{})
	assert.ErrorContains(t, a.run(context.Background(), "flush-plan-cache", nil), "REDIS_ADDR")
}
