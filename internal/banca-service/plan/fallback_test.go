package plan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
)

type revert struct{ userID, planID string }

type fakeStore struct {
	users       map[string]*repo.User
	plans       map[string]string
	findErr     error
	planLookups int
	reverts     []revert
	expired     []string
	renewed     map[string]bool
}

func (f *fakeStore) FindUser(_ context.Context, id string) (*repo.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.users[id], nil
}

func (f *fakeStore) FindPlanIDByName(_ context.Context, name string) (string, error) {
	f.planLookups++
	return f.plans[name], nil
}

func (f *fakeStore) ExpiredPromoUserIDs(context.Context, time.Time) ([]string, error) {
	return f.expired, nil
}

func (f *fakeStore) RevertPlan(_ context.Context, userID, planID string, _ time.Time) (bool, error) {
	if f.renewed[userID] {
		return false, nil
	}
	f.reverts = append(f.reverts, revert{userID, planID})
	return true, nil
}

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(store Store, cache FallbackCache) (*Manager, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewManager(zap.New(core), store, cache, "Free")
	m.now = func() time.Time { return now }
	return m, logs
}

func strp(s string) *string { return &s }
func timep(t time.Time) *time.Time { return &t }

func TestEnsureActivePlan_NoWrites(t *testing.T) {
	tests := []struct {
		name string
		user *repo.User
	}{
		{name: "unknown user", user: nil},
		{name: "no promo", user: &repo.User{ID: "u1", PlanID: strp("pro")}},
		{name: "promo still running", user: &repo.User{ID: "u1", PlanID: strp("pro"), PromoExpiresAt: timep(now.Add(time.Hour))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{users: map[string]*repo.User{}, plans: map[string]string{"Free": "free"}}
			if tt.user != nil {
				store.users["u1"] = tt.user
			}
			m, _ := newTestManager(store, NewMemoryCache(0))

			require.NoError(t, m.EnsureActivePlan(context.Background(), "u1"))
			assert.Empty(t, store.reverts)
			assert.Zero(t, store.planLookups)
		})
	}
}

func TestEnsureActivePlan_RevertsToOriginal(t *testing.T) {
	store := &fakeStore{users: map[string]*repo.User{
		"u1": {ID: "u1", PlanID: strp("promo"), PromoOriginalPlanID: strp("basic"), PromoExpiresAt: timep(now.Add(-time.Minute))},
	}}
	m, _ := newTestManager(store, NewMemoryCache(0))

	require.NoError(t, m.EnsureActivePlan(context.Background(), "u1"))
	assert.Equal(t, []revert{{"u1", "basic"}}, store.reverts)
	assert.Zero(t, store.planLookups, "original plan wins, Free is not looked up")
}

func TestEnsureActivePlan_ExpiresExactlyNow(t *testing.T) {
	store := &fakeStore{users: map[string]*repo.User{
		"u1": {ID: "u1", PromoOriginalPlanID: strp("basic"), PromoExpiresAt: timep(now)},
	}}
	m, _ := newTestManager(store, NewMemoryCache(0))

	require.NoError(t, m.EnsureActivePlan(context.Background(), "u1"))
	assert.Len(t, store.reverts, 1)
}

func TestEnsureActivePlan_FallsBackToFreeAndCaches(t *testing.T) {
	store := &fakeStore{
		users: map[string]*repo.User{
			"u1": {ID: "u1", PromoExpiresAt: timep(now.Add(-time.Hour))},
			"u2": {ID: "u2", PromoExpiresAt: timep(now.Add(-time.Hour))},
		},
		plans: map[string]string{"Free": "free"},
	}
	m, _ := newTestManager(store, NewMemoryCache(0))

	require.NoError(t, m.EnsureActivePlan(context.Background(), "u1"))
	require.NoError(t, m.EnsureActivePlan(context.Background(), "u2"))

	assert.Equal(t, []revert{{"u1", "free"}, {"u2", "free"}}, store.reverts)
	assert.Equal(t, 1, store.planLookups)
}

func TestEnsureActivePlan_NoFallbackWarns(t *testing.T) {
	store := &fakeStore{
		users: map[string]*repo.User{"u1": {ID: "u1", PlanID: strp("promo"), PromoExpiresAt: timep(now.Add(-time.Hour))}},
		plans: map[string]string{},
	}
	m, logs := newTestManager(store, NewMemoryCache(0))

	require.NoError(t, m.EnsureActivePlan(context.Background(), "u1"))
	assert.Empty(t, store.reverts)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestEnsureActivePlan_StoreError(t *testing.T) {
	store := &fakeStore{findErr: errors.New("db down")}
	m, _ := newTestManager(store, NewMemoryCache(0))

	err := m.EnsureActivePlan(context.Background(), "u1")
	assert.ErrorContains(t, err, "db down")
}

func TestMemoryCache_TTLAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	clock := now
	c.now = func() time.Time { return clock }

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, "free")
	id, ok := c.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, "free", id)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get(ctx)
	assert.False(t, ok, "expired after ttl")

	c.Set(ctx, "free")
	c.Invalidate(ctx)
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestMiddleware_NeverBlocks(t *testing.T) {
	store := &fakeStore{findErr: errors.New("db down")}
	m, logs := newTestManager(store, NewMemoryCache(0))

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/bancas", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, logs.FilterMessage("ensure active plan").Len())
}

func TestSweepExpired(t *testing.T) {
	store := &fakeStore{
		users: map[string]*repo.User{
			"u1": {ID: "u1", PromoOriginalPlanID: strp("basic"), PromoExpiresAt: timep(now.Add(-time.Hour))},
			"u2": {ID: "u2", PromoExpiresAt: timep(now.Add(-time.Minute))},
		},
		plans:   map[string]string{"Free": "free"},
		expired: []string{"u1", "u2"},
	}
	m, _ := newTestManager(store, NewMemoryCache(0))

	n, err := m.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []revert{{"u1", "basic"}, {"u2", "free"}}, store.reverts)
}

func TestSweepExpired_CountsOnlyReverted(t *testing.T) {
	store := &fakeStore{
		users: map[string]*repo.User{
			"u1": {ID: "u1", PromoOriginalPlanID: strp("basic"), PromoExpiresAt: timep(now.Add(-time.Hour))},
			"u2": {ID: "u2", PromoOriginalPlanID: strp("basic"), PromoExpiresAt: timep(now.Add(-time.Hour))},
			"u3": {ID: "u3", PromoExpiresAt: timep(now.Add(time.Hour))},
		},
		expired: []string{"u1", "u2", "u3"},
		renewed: map[string]bool{"u2": true},
	}
	m, logs := newTestManager(store, NewMemoryCache(0))

	n, err := m.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []revert{{"u1", "basic"}}, store.reverts)
	assert.Equal(t, 1, logs.FilterMessage("promo expired; plan reverted").Len())
}

func TestSweepExpired_Canceled(t *testing.T) {
	store := &fakeStore{users: map[string]*repo.User{}, expired: []string{"u1"}}
	m, _ := newTestManager(store, NewMemoryCache(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.SweepExpired(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartSweeper_InvalidSchedule(t *testing.T) {
	m, _ := newTestManager(&fakeStore{}, NewMemoryCache(0))

	_, err := StartSweeper(zap.NewNop(), m, "every tuesday")
	assert.Error(t, err)

	stop, err := StartSweeper(zap.NewNop(), m, "@every 1h")
	require.NoError(t, err)
	stop()
}
