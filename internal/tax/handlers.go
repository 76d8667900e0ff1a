package tax

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos-api/internal/common"
	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

// Handler exposes tax rule management over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type rulePayload struct {
	Type string          `json:"type" validate:"required"`
	Name string          `json:"name" validate:"required"`
	Rate decimal.Decimal `json:"rate"`
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (rulePayload, bool) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return rulePayload{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "type and name are required", nil)
		return rulePayload{}, false
	}
	if payload.Rate.IsNegative() {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "rate must not be negative", nil)
		return rulePayload{}, false
	}
	return payload, true
}

// List returns every configured tax rule.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Svc.Active(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load tax rules", nil)
		return
	}
	if rules == nil {
		rules = []pricing.TaxRule{}
	}
	common.JSONData(w, http.StatusOK, rules)
}

// Create registers a new tax rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	created, err := h.Svc.Create(r.Context(), pricing.TaxRule{
		Type: payload.Type,
		Name: payload.Name,
		Rate: payload.Rate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// Update rewrites an existing tax rule.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tax rule id", nil)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	updated, err := h.Svc.Update(r.Context(), pricing.TaxRule{
		ID:   id,
		Type: payload.Type,
		Name: payload.Name,
		Rate: payload.Rate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete removes a tax rule.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tax rule id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		err = common.NewAppError("NOT_FOUND", "tax rule not found", http.StatusNotFound, err)
	case errors.Is(err, ErrConflict):
		err = common.NewAppError("CONFLICT", "tax rule already exists", http.StatusConflict, err)
	default:
		err = common.NewAppError("INTERNAL", "tax rule operation failed", http.StatusInternalServerError, err)
	}
	common.JSONAppError(w, err)
}
