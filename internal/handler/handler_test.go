package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/handler"
	"taxsync/internal/middleware"
	"taxsync/internal/model"
	"taxsync/internal/service"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("handler-secret")

type stubLifecycle struct {
	events []service.Event
	err    error
}

func (s *stubLifecycle) Dispatch(_ context.Context, ev service.Event) (*service.DispatchResult, error) {
	s.events = append(s.events, ev)
	if s.err != nil {
		return nil, s.err
	}
	return &service.DispatchResult{Event: ev.Type, OrderID: ev.OrderID, Action: service.ActionCommitted}, nil
}

func (s *stubLifecycle) CommitCartDocument(_ context.Context, orderID int64) (*model.OrderTaxState, error) {
	return &model.OrderTaxState{OrderID: orderID, IsCommitted: true}, nil
}

func (s *stubLifecycle) GetTaxState(_ context.Context, orderID int64) (*model.OrderTaxState, error) {
	return nil, fmt.Errorf("tax state %d: %w", orderID, apperr.ErrNotFound)
}

type stubCheckout struct{}

func (stubCheckout) CalculateCart(_ context.Context, cart *model.Cart) (*service.CartTaxResponse, error) {
	return &service.CartTaxResponse{
		DocumentKey: "cart_abc",
		CustomerKey: cart.SessionID,
		Applied:     true,
		Totals:      service.CartTotals{CalculatedTotal: decimal.RequireFromString("32.40")},
	}, nil
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func newRouter(lifecycle service.OrderTaxLifecycle) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewOrderHandler(lifecycle, nil, secret).RegisterRoutes(router.Group(""))
	handler.NewCheckoutHandler(stubCheckout{}, secret).RegisterRoutes(router.Group(""))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, auth string, body any) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestOrderHandler_DispatchEvent(t *testing.T) {
	lifecycle := &stubLifecycle{}
	router := newRouter(lifecycle)

	rec, resp := do(t, router, http.MethodPost, "/api/orders/100/events", token(t, middleware.RoleHost),
		map[string]any{"event": "order_completed"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
	require.Len(t, lifecycle.events, 1)
	assert.Equal(t, int64(100), lifecycle.events[0].OrderID)
	assert.Equal(t, service.EventOrderCompleted, lifecycle.events[0].Type)
}

func TestOrderHandler_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		auth       func(t *testing.T) string
		body       any
		wantStatus int
	}{
		{"no token", "/api/orders/1/events", func(*testing.T) string { return "" }, map[string]any{"event": "order_completed"}, http.StatusUnauthorized},
		{"bad id", "/api/orders/abc/events", func(t *testing.T) string { return token(t, middleware.RoleHost) }, map[string]any{"event": "order_completed"}, http.StatusBadRequest},
		{"missing event", "/api/orders/1/events", func(t *testing.T) string { return token(t, middleware.RoleHost) }, map[string]any{}, http.StatusBadRequest},
		{"internal event", "/api/orders/1/events", func(t *testing.T) string { return token(t, middleware.RoleHost) }, map[string]any{"event": "retry_fired"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lifecycle := &stubLifecycle{}
			rec, _ := do(t, newRouter(lifecycle), http.MethodPost, tt.path, tt.auth(t), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, lifecycle.events)
		})
	}
}

func TestOrderHandler_ErrorKinds(t *testing.T) {
	lifecycle := &stubLifecycle{err: fmt.Errorf("wrapped: %w", apperr.ErrInvalidRequest)}
	rec, resp := do(t, newRouter(lifecycle), http.MethodPost, "/api/orders/1/events", token(t, middleware.RoleHost),
		map[string]any{"event": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", resp.Kind)

	rec, resp = do(t, newRouter(lifecycle), http.MethodGet, "/api/orders/1/tax-state", token(t, middleware.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp.Kind)
}

func TestOrderHandler_CommitCartDocumentIsAdminOnly(t *testing.T) {
	router := newRouter(&stubLifecycle{})

	rec, _ := do(t, router, http.MethodPost, "/api/orders/5/commit-cart-document", token(t, middleware.RoleHost), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/orders/5/commit-cart-document", token(t, middleware.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutHandler_CalculateCart(t *testing.T) {
	rec, resp := do(t, newRouter(&stubLifecycle{}), http.MethodPost, "/api/cart/tax", token(t, middleware.RoleHost),
		map[string]any{"session_id": "sess-1", "items": []any{}})

	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["applied"])
	assert.Equal(t, "sess-1", data["customer_key"])
}
