package tax

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

// Store is the persistence contract the service operates on.
type Store interface {
	List(ctx context.Context) ([]pricing.TaxRule, error)
	Get(ctx context.Context, id uuid.UUID) (pricing.TaxRule, error)
	Create(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error)
	Update(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service combines the rule store with its cache.
type Service struct {
	Store  Store
	Cache  *Cache
	Logger zerolog.Logger
}

// Active returns the current rule set, serving from cache when possible.
// This is the hot path: the dashboard previews a cart on every edit.
func (s *Service) Active(ctx context.Context) ([]pricing.TaxRule, error) {
	if rules, ok := s.Cache.Get(ctx); ok {
		return rules, nil
	}
	rules, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, rules)
	return rules, nil
}

// Get loads one rule.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (pricing.TaxRule, error) {
	return s.Store.Get(ctx, id)
}

// Create adds a rule and invalidates the cache.
func (s *Service) Create(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	created, err := s.Store.Create(ctx, rule)
	if err != nil {
		return pricing.TaxRule{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update rewrites a rule and invalidates the cache.
func (s *Service) Update(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	updated, err := s.Store.Update(ctx, rule)
	if err != nil {
		return pricing.TaxRule{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a rule and invalidates the cache.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn().Err(err).Msg("invalidate tax rule cache")
	}
}
