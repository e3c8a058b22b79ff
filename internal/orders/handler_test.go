package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp(f *fixture) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", auth.JWTMiddleware(testSecret))
	api.Post("/orders", CreateOrderHandler(f.svc))
	api.Get("/orders", ListOrdersHandler(f.svc))
	api.Get("/orders/summary/daily", DailySummaryHandler(f.svc, func() time.Time { return day("2025-01-15") }))
	api.Get("/orders/:id", GetOrderHandler(f.svc))
	api.Put("/orders/:id/payments", UpdatePaymentsHandler(f.svc))
	api.Post("/orders/:id/cancel", auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin), CancelOrderHandler(f.svc))
	api.Post("/orders/:id/hold", HoldOrderHandler(f.svc, true))
	api.Post("/orders/:id/unhold", HoldOrderHandler(f.svc, false))
	return app
}

func tokenFor(t *testing.T, role models.UserRole, branchID uint) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, &models.User{ID: 10, Name: "Ayşe", Role: role, BranchID: &branchID})
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func orderBody(date string) map[string]any {
	return map[string]any{
		"date": date,
		"items": []map[string]any{
			{"name": "Lahmacun", "quantity": 2, "unit_price": "60"},
		},
		"payments": []map[string]any{
			{"method": "cash", "amount": "120"},
		},
		"note": "masa 2",
	}
}

func decodeCreate(t *testing.T, resp *http.Response) CreateOrderResponse {
	t.Helper()
	var out CreateOrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateOrderHandler(t *testing.T) {
	f := newFixture("2025-01-15")
	app := newTestApp(f)
	tok := tokenFor(t, models.RoleCashier, 1)

	resp := do(t, app, http.MethodPost, "/api/orders", tok, orderBody("2025-01-14"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := decodeCreate(t, resp)
	assert.False(t, out.DateShifted)
	assert.Equal(t, "2025-01-14", out.Data.Date)
	assert.Equal(t, "120.00", out.Data.Payable)
	assert.Equal(t, models.OrderStatusPaid, out.Data.Status)

	resp = do(t, app, http.MethodPost, "/api/orders", tok, orderBody("2025-01-15T10:30:00Z"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out = decodeCreate(t, resp)
	assert.True(t, out.DateShifted)
	assert.Equal(t, "2025-01-16", out.Data.Date)
	assert.Equal(t, "2025-01-15", out.RequestedDate)
	assert.Contains(t, out.Message, "moved from 2025-01-15 to 2025-01-16")
	assert.Contains(t, out.Data.Note, "masa 2 Order date automatically moved")
}

func TestCreateOrderHandlerValidation(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	tok := tokenFor(t, models.RoleCashier, 1)

	cases := map[string]map[string]any{
		"tarih yok":     {"items": []map[string]any{{"name": "x", "quantity": 1, "unit_price": 1}}},
		"tarih bozuk":   {"date": "15.01.2025", "items": []map[string]any{{"name": "x", "quantity": 1, "unit_price": 1}}},
		"kalem yok":     {"date": "2025-01-15"},
		"miktar sıfır":  {"date": "2025-01-15", "items": []map[string]any{{"name": "x", "quantity": 0, "unit_price": 1}}},
		"ödeme yöntemi": {"date": "2025-01-15", "items": []map[string]any{{"name": "x", "quantity": 1, "unit_price": 1}}, "payments": []map[string]any{{"method": "çek", "amount": 1}}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/orders", tok, body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Zero(t, f.closures.calls)
}

func TestCreateOrderHandlerIdempotencyKey(t *testing.T) {
	f := newFixture()
	f.svc.WithIdempotency(&fakeIdem{})
	app := newTestApp(f)
	tok := tokenFor(t, models.RoleCashier, 1)

	resp := do(t, app, http.MethodPost, "/api/orders", tok, orderBody("2025-01-15"), HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := decodeCreate(t, resp)

	resp = do(t, app, http.MethodPost, "/api/orders", tok, orderBody("2025-01-15"), HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	second := decodeCreate(t, resp)
	assert.True(t, second.Idempotent)
	assert.Equal(t, first.Data.ID, second.Data.ID)
}

func TestOrderLifecycleHandlers(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	cashierTok := tokenFor(t, models.RoleCashier, 1)
	adminTok := tokenFor(t, models.RoleBranchAdmin, 1)

	body := orderBody("2025-01-15")
	body["order_type"] = "meal_plan"
	body["payments"] = []map[string]any{}
	resp := do(t, app, http.MethodPost, "/api/orders", cashierTok, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeCreate(t, resp).Data.ID
	path := fmt.Sprintf("/api/orders/%d", id)

	resp = do(t, app, http.MethodGet, path, tokenFor(t, models.RoleCashier, 2), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = do(t, app, http.MethodPost, path+"/hold", cashierTok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = do(t, app, http.MethodPost, path+"/hold", cashierTok, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp = do(t, app, http.MethodPost, path+"/unhold", cashierTok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodPut, path+"/payments", cashierTok, map[string]any{
		"payments": []map[string]any{{"method": "card", "amount": "100"}, {"method": "cash", "amount": "20"}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var o OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.Len(t, o.Payments, 2)

	resp = do(t, app, http.MethodGet, "/api/orders/summary/daily", cashierTok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sum DailySummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	assert.Equal(t, 1, sum.OrderCount)
	assert.Equal(t, "120.00", sum.Received)

	resp = do(t, app, http.MethodPost, path+"/cancel", cashierTok, map[string]any{"reason": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp = do(t, app, http.MethodPost, path+"/cancel", adminTok, map[string]any{"reason": "müşteri gelmedi"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = do(t, app, http.MethodPost, path+"/cancel", adminTok, map[string]any{"reason": "tekrar"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/orders?cancelled=true", cashierTok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Cancelled)

	resp = do(t, app, http.MethodGet, "/api/orders?cancelled=maybe", cashierTok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHoldRejectedForDineIn(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	tok := tokenFor(t, models.RoleCashier, 1)

	resp := do(t, app, http.MethodPost, "/api/orders", tok, orderBody("2025-01-15"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeCreate(t, resp).Data.ID

	resp = do(t, app, http.MethodPost, fmt.Sprintf("/api/orders/%d/hold", id), tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
