// Package tax manages the category-scoped tax rules consumed by the pricing
// engine: Postgres persistence, a Redis read-through cache, and the admin
// HTTP surface.
package tax

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

// ErrNotFound indicates the requested tax rule does not exist.
var ErrNotFound = errors.New("tax: rule not found")

// ErrConflict indicates a rule with the same category and name already exists.
var ErrConflict = errors.New("tax: rule already exists")

const uniqueViolation = "23505"

// Repo persists tax rules in Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

func scanRule(row pgx.Row) (pricing.TaxRule, error) {
	var (
		rule    pricing.TaxRule
		rateRaw string
	)
	if err := row.Scan(&rule.ID, &rule.Type, &rule.Name, &rateRaw); err != nil {
		return pricing.TaxRule{}, err
	}
	rate, err := decimal.NewFromString(rateRaw)
	if err != nil {
		return pricing.TaxRule{}, fmt.Errorf("tax: parse rate: %w", err)
	}
	rule.Rate = rate
	return rule, nil
}

// List returns all tax rules ordered by category then name.
func (r *Repo) List(ctx context.Context) ([]pricing.TaxRule, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, type, name, rate::text FROM tax_rules ORDER BY type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []pricing.TaxRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Get loads one rule by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (pricing.TaxRule, error) {
	rule, err := scanRule(r.Pool.QueryRow(ctx,
		`SELECT id, type, name, rate::text FROM tax_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.TaxRule{}, ErrNotFound
	}
	return rule, err
}

// Create inserts a rule and returns it with its generated id.
func (r *Repo) Create(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	created, err := scanRule(r.Pool.QueryRow(ctx,
		`INSERT INTO tax_rules (type, name, rate) VALUES ($1, $2, $3)
		 RETURNING id, type, name, rate::text`,
		rule.Type, rule.Name, rule.Rate.String()))
	if isUniqueViolation(err) {
		return pricing.TaxRule{}, ErrConflict
	}
	return created, err
}

// Update rewrites an existing rule.
func (r *Repo) Update(ctx context.Context, rule pricing.TaxRule) (pricing.TaxRule, error) {
	updated, err := scanRule(r.Pool.QueryRow(ctx,
		`UPDATE tax_rules SET type = $2, name = $3, rate = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING id, type, name, rate::text`,
		rule.ID, rule.Type, rule.Name, rule.Rate.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.TaxRule{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return pricing.TaxRule{}, ErrConflict
	}
	return updated, err
}

// Delete removes a rule by id.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM tax_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
