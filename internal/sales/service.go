// Package sales prices transaction drafts and records completed sales.
// Totals are always recomputed server side; client-sent amounts are never
// trusted.
package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/migios-apps/migios-pos-api/internal/loyalty"
	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

// ErrNotFound indicates the requested sale does not exist.
var ErrNotFound = errors.New("sales: not found")

// ErrEmptyDraft is returned when a record request carries no priceable items.
var ErrEmptyDraft = errors.New("sales: draft has no items")

// TaxSource resolves the tax rules in force when a draft omits them.
type TaxSource interface {
	Active(ctx context.Context) ([]pricing.TaxRule, error)
}

// Enqueuer submits background tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service implements pricing previews and sale recording.
type Service struct {
	Pool   *pgxpool.Pool
	Taxes  TaxSource
	Engine pricing.Engine
	Tasks  Enqueuer
	Logger zerolog.Logger
}

// Sale is a recorded, fully priced transaction.
type Sale struct {
	ID        uuid.UUID     `json:"id"`
	MemberID  *uuid.UUID    `json:"member_id,omitempty"`
	StaffID   string        `json:"staff_id,omitempty"`
	Cart      *pricing.Cart `json:"cart"`
	CreatedAt time.Time     `json:"created_at"`
}

// RecordInput is a draft plus the identities attached at checkout.
type RecordInput struct {
	Draft    pricing.Draft
	MemberID *uuid.UUID
	StaffID  string
}

// Preview prices a draft without persisting anything. Drafts that do not
// carry inline taxes are priced against the stored rule set.
func (s *Service) Preview(ctx context.Context, draft *pricing.Draft) (*pricing.Cart, error) {
	if draft == nil {
		return nil, pricing.ErrDraftRequired
	}
	if len(draft.Taxes) == 0 && s.Taxes != nil {
		rules, err := s.Taxes.Active(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tax rules: %w", err)
		}
		draft.Taxes = rules
	}
	return s.Engine.Price(draft)
}

// Record prices the draft, persists the sale with its line items and
// payments in one transaction, and queues loyalty accrual for members.
func (s *Service) Record(ctx context.Context, in RecordInput) (Sale, error) {
	cart, err := s.Preview(ctx, &in.Draft)
	if err != nil {
		return Sale{}, err
	}
	if len(cart.Items) == 0 {
		return Sale{}, ErrEmptyDraft
	}

	snapshot, err := json.Marshal(cart)
	if err != nil {
		return Sale{}, fmt.Errorf("encode cart snapshot: %w", err)
	}

	sale := Sale{
		ID:        uuid.New(),
		MemberID:  in.MemberID,
		StaffID:   in.StaffID,
		Cart:      cart,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Sale{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO sales (
			id, member_id, staff_id, tax_mode, discount_type, discount,
			subtotal, item_discount_total, tax_total, grand_total,
			transaction_discount, total, payment_total, balance_amount,
			return_amount, is_paid, snapshot, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		sale.ID, in.MemberID, nullableText(in.StaffID), int(in.Draft.TaxMode),
		string(pricing.ParseDiscountType(string(in.Draft.DiscountType))), in.Draft.Discount.String(),
		cart.Subtotal.String(), cart.ItemDiscountTotal.String(), cart.TaxTotal.String(),
		cart.GrandTotal.String(), cart.TransactionDiscount.String(), cart.Total.String(),
		cart.PaymentTotal.String(), cart.BalanceAmount.String(), cart.ReturnAmount.String(),
		cart.IsPaid, snapshot, sale.CreatedAt,
	)
	if err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	for _, item := range cart.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO sale_items (
				id, sale_id, item_type, package_type, name, price, quantity,
				discount, net, tax_total, total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			uuid.New(), sale.ID, item.ItemType, nullableText(item.PackageType), nullableText(item.Name),
			item.Price.String(), item.Quantity, item.Discount.String(),
			item.Net.String(), item.TaxTotal.String(), item.Total.String(),
		)
		if err != nil {
			return Sale{}, fmt.Errorf("insert sale item: %w", err)
		}
	}

	for _, payment := range in.Draft.Payments {
		_, err = tx.Exec(ctx,
			`INSERT INTO sale_payments (id, sale_id, amount) VALUES ($1,$2,$3)`,
			uuid.New(), sale.ID, payment.Amount.String(),
		)
		if err != nil {
			return Sale{}, fmt.Errorf("insert sale payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Sale{}, err
	}

	s.enqueueAccrual(ctx, sale)
	return sale, nil
}

// Get loads a recorded sale and its priced snapshot.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	var (
		sale     Sale
		staffID  *string
		snapshot []byte
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT id, member_id, staff_id, snapshot, created_at FROM sales WHERE id = $1`, id).
		Scan(&sale.ID, &sale.MemberID, &staffID, &snapshot, &sale.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	if staffID != nil {
		sale.StaffID = *staffID
	}
	var cart pricing.Cart
	if err := json.Unmarshal(snapshot, &cart); err != nil {
		return Sale{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	sale.Cart = &cart
	return sale, nil
}

// enqueueAccrual schedules loyalty points for member sales. Failure to queue
// never fails the sale; the accrual job is reconciled out of band.
func (s *Service) enqueueAccrual(ctx context.Context, sale Sale) {
	if s.Tasks == nil || sale.MemberID == nil || !sale.Cart.IsPaid {
		return
	}
	task, err := loyalty.NewAccrueTask(loyalty.AccruePayload{
		SaleID:   sale.ID,
		MemberID: *sale.MemberID,
		Total:    sale.Cart.Total,
	})
	if err != nil {
		s.Logger.Error().Err(err).Stringer("sale_id", sale.ID).Msg("build loyalty accrual task")
		return
	}
	if _, err := s.Tasks.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Queue(loyalty.QueueName)); err != nil {
		s.Logger.Error().Err(err).Stringer("sale_id", sale.ID).Msg("enqueue loyalty accrual")
	}
}

func nullableText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
