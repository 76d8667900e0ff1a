package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

type stubStore struct {
	rules     []pricing.TaxRule
	listCalls int
}

func (s *stubStore) List(context.Context) ([]pricing.TaxRule, error) {
	s.listCalls++
	return s.rules, nil
}

func (s *stubStore) Get(_ context.Context, id uuid.UUID) (pricing.TaxRule, error) {
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return pricing.TaxRule{}, ErrNotFound
}

func (s *stubStore) Create(_ context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	rule.ID = uuid.New()
	s.rules = append(s.rules, rule)
	return rule, nil
}

func (s *stubStore) Update(_ context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	for i, r := range s.rules {
		if r.ID == rule.ID {
			s.rules[i] = rule
			return rule, nil
		}
	}
	return pricing.TaxRule{}, ErrNotFound
}

func (s *stubStore) Delete(_ context.Context, id uuid.UUID) error {
	for i, r := range s.rules {
		if r.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func newTestService(t *testing.T, store Store) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Store: store,
		Cache: &Cache{R: client, TTL: time.Minute},
	}, mr
}

func TestActiveReadsThroughCache(t *testing.T) {
	store := &stubStore{rules: []pricing.TaxRule{
		{ID: uuid.New(), Type: "product", Name: "PPN", Rate: decimal.NewFromInt(11)},
	}}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	first, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Rate.Equal(decimal.NewFromInt(11)))
	assert.Equal(t, 1, store.listCalls, "second read must come from cache")
}

func TestActiveCacheExpires(t *testing.T) {
	store := &stubStore{}
	svc, mr := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Active(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestWritesInvalidateCache(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Active(ctx)
	require.NoError(t, err)

	created, err := svc.Create(ctx, pricing.TaxRule{Type: "membership", Name: "Service", Rate: decimal.NewFromInt(5)})
	require.NoError(t, err)

	rules, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, created.ID, rules[0].ID)
	assert.Equal(t, 2, store.listCalls, "create must drop the cached set")

	require.NoError(t, svc.Delete(ctx, created.ID))
	rules, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestDeleteMissingRule(t *testing.T) {
	svc, _ := newTestService(t, &stubStore{})
	err := svc.Delete(context.Background(), uuid.New())
	require.True(t, errors.Is(err, ErrNotFound))
}
