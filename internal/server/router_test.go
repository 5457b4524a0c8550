package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/config"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/metrics"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/model"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router   *gin.Engine
	token    string
	customer *domain.Customer
	vaccine  *domain.CatalogItem
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	cfg := &config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "billing.db")}
	stores, err := OpenStores(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(stores.Close)
	require.NoError(t, stores.Migrate(ctx))

	customer := &domain.Customer{Name: "Jane Doe", Phone: "555-0100"}
	require.NoError(t, stores.Directory.CreateCustomer(ctx, customer))
	vaccine := &domain.CatalogItem{ItemType: domain.ItemTypeVaccination, Name: "Rabies vaccine", SellingPrice: decimal.RequireFromString("350.00")}
	require.NoError(t, stores.Directory.CreateCatalogItem(ctx, vaccine))

	log := logger.NewNopLogger()
	m := metrics.New()
	clock := func() time.Time { return time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC) }
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	router := NewRouter(Deps{
		Ledger:  service.NewLedgerService(stores.Invoices, stores.Directory, log, m, service.LedgerConfig{Clock: clock}),
		DB:      stores,
		Tokens:  tokens,
		Logger:  log,
		Metrics: m,
	})

	token, err := tokens.Generate("staff-1", "desk@clinic.test")
	require.NoError(t, err)

	return &testAPI{router: router, token: token.AccessToken, customer: customer, vaccine: vaccine}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) invoiceBody() map[string]any {
	return map[string]any{
		"customer_id":         a.customer.ID,
		"bill_date":           "2024-02-01",
		"due_date":            "2024-02-29",
		"discount_percentage": "10",
		"tax_percentage":      5,
		"items": []map[string]any{
			{"item_type": "service", "item_name": "Dental cleaning", "quantity": 2, "unit_price": "500.00"},
		},
	}
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/invoices", api.invoiceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.InvoiceResponse](t, rec)
	assert.Equal(t, "INV-20240201-0001", created.InvoiceNumber)
	assert.Equal(t, "945.00", created.TotalAmount)
	assert.Equal(t, "945.00", created.BalanceAmount)
	assert.Equal(t, "unpaid", created.PaymentStatus)
	assert.Equal(t, "staff-1", created.CreatedBy)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	path := fmt.Sprintf("/v1/invoices/%d", created.ID)

	rec = api.do(t, http.MethodPost, path+"/payments", map[string]any{"amount": "500.00", "payment_method": "cash"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	paid := decode[model.InvoiceResponse](t, rec)
	assert.Equal(t, "partially_paid", paid.PaymentStatus)
	assert.Equal(t, "445.00", paid.BalanceAmount)
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, "500.00", paid.Payments[0].Amount)

	rec = api.do(t, http.MethodPost, path+"/payments", map[string]any{"amount": 445.01, "payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[model.ErrorResponse](t, rec)
	require.Len(t, errResp.Details, 1)
	assert.Equal(t, "amount", errResp.Details[0].Field)

	rec = api.do(t, http.MethodPut, path, api.invoiceBody())
	assert.Equal(t, http.StatusConflict, rec.Code, "paid invoices cannot be edited")

	rec = api.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "paid invoices cannot be deleted")

	rec = api.do(t, http.MethodPost, path+"/cancel", map[string]any{"reason": "Owner disputed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[model.InvoiceResponse](t, rec)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, "Owner disputed", cancelled.CancellationReason)

	rec = api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.InvoiceResponse](t, rec).Cancelled)
}

func TestCreateInvoiceFromCatalogAndDelete(t *testing.T) {
	api := newTestAPI(t)

	body := api.invoiceBody()
	body["discount_percentage"] = "0"
	body["tax_percentage"] = "0"
	body["items"] = []map[string]any{{"item_type": "vaccination", "item_id": api.vaccine.ID, "quantity": 1}}

	rec := api.do(t, http.MethodPost, "/v1/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.InvoiceResponse](t, rec)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "Rabies vaccine", created.Items[0].ItemName)
	assert.Equal(t, "350.00", created.TotalAmount)

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/v1/invoices/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/invoices/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInvoiceValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{name: "malformed json", body: `{"customer_id":`, status: http.StatusBadRequest},
		{name: "missing items", body: map[string]any{"customer_id": api.customer.ID, "bill_date": "2024-02-01"}, status: http.StatusBadRequest, field: "items"},
		{name: "bad date", body: func() map[string]any {
			b := api.invoiceBody()
			b["bill_date"] = "01/02/2024"
			return b
		}(), status: http.StatusBadRequest, field: "bill_date"},
		{name: "unknown item type", body: func() map[string]any {
			b := api.invoiceBody()
			b["items"] = []map[string]any{{"item_type": "grooming", "item_name": "Bath", "quantity": 1, "unit_price": "10"}}
			return b
		}(), status: http.StatusBadRequest, field: "items[0].item_type"},
		{name: "unknown customer", body: func() map[string]any {
			b := api.invoiceBody()
			b["customer_id"] = 9999
			return b
		}(), status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/v1/invoices", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[model.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Message)
			if tt.field != "" {
				fields := []string{}
				for _, d := range resp.Details {
					fields = append(fields, d.Field)
				}
				assert.Contains(t, fields, tt.field)
			}
		})
	}
}

func TestListOverdueAndSummaryOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	for i := 0; i < 3; i++ {
		rec := api.do(t, http.MethodPost, "/v1/invoices", api.invoiceBody())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	late := api.invoiceBody()
	late["due_date"] = "2024-02-10"
	rec := api.do(t, http.MethodPost, "/v1/invoices", late)
	require.Equal(t, http.StatusCreated, rec.Code)
	lateInvoice := decode[model.InvoiceResponse](t, rec)
	assert.Equal(t, "overdue", lateInvoice.PaymentStatus)

	rec = api.do(t, http.MethodGet, "/v1/invoices?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.InvoicesListResponse](t, rec)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, 4, list.Pagination.TotalItems)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	rec = api.do(t, http.MethodGet, "/v1/invoices?payment_status=overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[model.InvoicesListResponse](t, rec)
	require.Len(t, list.Data, 1)
	assert.Equal(t, lateInvoice.ID, list.Data[0].ID)

	rec = api.do(t, http.MethodGet, "/v1/invoices?payment_status=refunded", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/invoices/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overdue := decode[model.OverdueInvoicesResponse](t, rec)
	assert.Equal(t, 1, overdue.Count)

	rec = api.do(t, http.MethodGet, "/v1/invoices/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[model.SummaryResponse](t, rec)
	assert.Equal(t, 4, summary.InvoiceCount)
	assert.Equal(t, "3780.00", summary.TotalBilled)
	assert.Equal(t, "0.00", summary.TotalCollected)
	assert.Equal(t, 1, summary.OverdueCount)
}

func TestInvoiceRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	api.token = ""
	rec := api.do(t, http.MethodGet, "/v1/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.token = "not-a-jwt"
	rec = api.do(t, http.MethodGet, "/v1/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode[model.ErrorResponse](t, rec).Message)
}

func TestInvalidInvoiceID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/invoices/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "invoiceId", resp.Details[0].Field)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[model.HealthResponse](t, rec).Database)

	rec = api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "vetbilling_http_requests_total"), "metrics body should list http counters")
}
