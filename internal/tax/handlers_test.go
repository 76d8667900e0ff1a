package tax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migios-apps/migios-pos-api/internal/pricing"
)

type conflictStore struct {
	stubStore
}

func (s *conflictStore) Create(context.Context, pricing.TaxRule) (pricing.TaxRule, error) {
	return pricing.TaxRule{}, ErrConflict
}

func newTestHandler(t *testing.T, store Store) *Handler {
	t.Helper()
	svc, _ := newTestService(t, store)
	return &Handler{Svc: svc, Validate: validator.New()}
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code, resp.Error.Message
}

func TestUpdateMissingRuleReturnsNotFoundEnvelope(t *testing.T) {
	h := newTestHandler(t, &stubStore{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/taxes/"+uuid.NewString(),
		strings.NewReader(`{"type": "product", "name": "PPN", "rate": 11}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	code, message := decodeErrorBody(t, rec)
	assert.Equal(t, "NOT_FOUND", code)
	assert.Equal(t, "tax rule not found", message)
}

func TestCreateDuplicateRuleReturnsConflictEnvelope(t *testing.T) {
	h := newTestHandler(t, &conflictStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/taxes",
		strings.NewReader(`{"type": "product", "name": "PPN", "rate": 11}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	code, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "CONFLICT", code)
}
