// Package loyalty converts paid sales into member loyalty points through an
// asynq-backed background job.
package loyalty

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos-api/internal/obs"
)

const (
	// TypeAccrue is the asynq task type for loyalty accrual.
	TypeAccrue = "loyalty:accrue"
	// QueueName is the asynq queue loyalty tasks run on.
	QueueName = "loyalty"
)

// AccruePayload is the task body queued after a paid member sale.
type AccruePayload struct {
	SaleID   uuid.UUID       `json:"sale_id"`
	MemberID uuid.UUID       `json:"member_id"`
	Total    decimal.Decimal `json:"total"`
}

// NewAccrueTask builds the asynq task for a paid sale.
func NewAccrueTask(p AccruePayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("loyalty: encode payload: %w", err)
	}
	return asynq.NewTask(TypeAccrue, body), nil
}

// PointsFor converts a paid total to points: one point per pointsPer of spend,
// rounded down. Non-positive totals earn nothing.
func PointsFor(total decimal.Decimal, pointsPer int64) int64 {
	if pointsPer <= 0 || !total.IsPositive() {
		return 0
	}
	return total.Div(decimal.NewFromInt(pointsPer)).IntPart()
}

// Accruer processes accrual tasks into the loyalty ledger.
type Accruer struct {
	Pool      *pgxpool.Pool
	PointsPer int64
	Logger    zerolog.Logger
}

// ProcessTask implements asynq.Handler. Accrual is idempotent per sale:
// replays of an already-credited sale insert nothing.
func (a Accruer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload AccruePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// malformed payloads will never succeed; drop instead of retrying
		return fmt.Errorf("loyalty: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	points := PointsFor(payload.Total, a.PointsPer)
	if points == 0 {
		a.Logger.Debug().Stringer("sale_id", payload.SaleID).Msg("sale below loyalty threshold")
		return nil
	}

	tag, err := a.Pool.Exec(ctx,
		`INSERT INTO loyalty_ledger (id, sale_id, member_id, points)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sale_id) DO NOTHING`,
		uuid.New(), payload.SaleID, payload.MemberID, points,
	)
	if err != nil {
		if obs.LoyaltyAccrualTotal != nil {
			obs.LoyaltyAccrualTotal.WithLabelValues("error").Inc()
		}
		return fmt.Errorf("loyalty: insert ledger row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		a.Logger.Debug().Stringer("sale_id", payload.SaleID).Msg("loyalty already accrued")
		if obs.LoyaltyAccrualTotal != nil {
			obs.LoyaltyAccrualTotal.WithLabelValues("duplicate").Inc()
		}
		return nil
	}
	if obs.LoyaltyAccrualTotal != nil {
		obs.LoyaltyAccrualTotal.WithLabelValues("ok").Inc()
	}

	a.Logger.Info().
		Stringer("sale_id", payload.SaleID).
		Stringer("member_id", payload.MemberID).
		Int64("points", points).
		Msg("loyalty points accrued")
	return nil
}
