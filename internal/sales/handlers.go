package sales

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos-api/internal/common"
	"github.com/migios-apps/migios-pos-api/internal/obs"
	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

var percentCeiling = decimal.NewFromInt(100)

// Handler exposes pricing previews and sale recording over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type itemPayload struct {
	ItemType     string          `json:"item_type" validate:"required,oneof=package product"`
	PackageType  string          `json:"package_type"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	DiscountType string          `json:"discount_type"`
	Discount     decimal.Decimal `json:"discount"`
}

type paymentPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

type draftPayload struct {
	Items        []itemPayload     `json:"items" validate:"dive"`
	Taxes        []pricing.TaxRule `json:"taxes"`
	TaxMode      int               `json:"tax_mode" validate:"oneof=0 1"`
	DiscountType string            `json:"discount_type"`
	Discount     decimal.Decimal   `json:"discount"`
	Payments     []paymentPayload  `json:"payments"`
}

type recordPayload struct {
	draftPayload
	MemberID *uuid.UUID `json:"member_id"`
}

// validateAmounts enforces the payload rules the engine deliberately does not:
// negative money is rejected outright and percent discounts are capped at 100.
func (p draftPayload) validateAmounts() error {
	check := func(dt string, value decimal.Decimal) error {
		if value.IsNegative() {
			return errors.New("discount must not be negative")
		}
		if pricing.ParseDiscountType(dt) == pricing.DiscountPercent && value.GreaterThan(percentCeiling) {
			return errors.New("percent discount must not exceed 100")
		}
		return nil
	}
	if err := check(p.DiscountType, p.Discount); err != nil {
		return err
	}
	for _, item := range p.Items {
		if item.Price.IsNegative() {
			return errors.New("item price must not be negative")
		}
		if err := check(item.DiscountType, item.Discount); err != nil {
			return err
		}
	}
	for _, payment := range p.Payments {
		if payment.Amount.IsNegative() {
			return errors.New("payment amount must not be negative")
		}
	}
	return nil
}

func (p draftPayload) toDraft() pricing.Draft {
	draft := pricing.Draft{
		Taxes:        p.Taxes,
		TaxMode:      pricing.TaxMode(p.TaxMode),
		DiscountType: pricing.ParseDiscountType(p.DiscountType),
		Discount:     p.Discount,
	}
	for _, item := range p.Items {
		draft.Items = append(draft.Items, pricing.LineItem{
			ItemType:     item.ItemType,
			PackageType:  item.PackageType,
			Name:         item.Name,
			Price:        item.Price,
			Quantity:     item.Quantity,
			DiscountType: pricing.ParseDiscountType(item.DiscountType),
			Discount:     item.Discount,
		})
	}
	for _, payment := range p.Payments {
		draft.Payments = append(draft.Payments, pricing.Payment{Amount: payment.Amount})
	}
	return draft
}

func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request, into any, payload *draftPayload) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return false
	}
	if err := h.Validate.Struct(into); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid draft", nil)
		return false
	}
	if err := payload.validateAmounts(); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return false
	}
	return true
}

// Preview prices a draft without recording anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var payload draftPayload
	if !h.decodeDraft(w, r, &payload, &payload) {
		return
	}
	draft := payload.toDraft()
	cart, err := h.Svc.Preview(r.Context(), &draft)
	if err != nil {
		if obs.PreviewTotal != nil {
			obs.PreviewTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to price draft", nil)
		return
	}
	if obs.PreviewTotal != nil {
		obs.PreviewTotal.WithLabelValues("ok").Inc()
	}
	common.JSONData(w, http.StatusOK, cart)
}

// Record persists a completed sale.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if !h.decodeDraft(w, r, &payload, &payload.draftPayload) {
		return
	}
	staffID, _ := common.StaffID(r.Context())
	sale, err := h.Svc.Record(r.Context(), RecordInput{
		Draft:    payload.toDraft(),
		MemberID: payload.MemberID,
		StaffID:  staffID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.SalesRecordedTotal != nil {
		state := "unpaid"
		if sale.Cart.IsPaid {
			state = "paid"
		}
		obs.SalesRecordedTotal.WithLabelValues(state).Inc()
	}
	common.JSONData(w, http.StatusCreated, sale)
}

// Get returns a recorded sale with its priced snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	sale, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, sale)
}

// writeError maps service sentinels onto the AppError envelope.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyDraft):
		err = common.NewAppError("VALIDATION", "draft has no priceable items", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrNotFound):
		err = common.NewAppError("NOT_FOUND", "sale not found", http.StatusNotFound, err)
	}
	common.JSONAppError(w, err)
}
