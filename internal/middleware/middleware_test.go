package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func observedLogger(level zapcore.Level) (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestErrorHandlerRendersMarkedErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails int
	}{
		{
			name: "validation with details",
			err: ierr.NewError("bad amount").
				WithHint("Request validation failed").
				WithReportableDetails(map[string]any{"amount": "must be greater than 0", "payment_method": "is required"}).
				Mark(ierr.ErrValidation),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Request validation failed",
			wantDetails: 2,
		},
		{
			name:        "not found",
			err:         ierr.NewError("missing").WithHint("Invoice not found").Mark(ierr.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Invoice not found",
		},
		{
			name:        "invalid state",
			err:         ierr.NewError("paid").WithHint("Invoice is already fully paid").Mark(ierr.ErrInvalidState),
			wantStatus:  http.StatusConflict,
			wantMessage: "Invoice is already fully paid",
		},
		{
			name:        "unmarked errors hide their text",
			err:         errors.New("pq: connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := observedLogger(zapcore.ErrorLevel)
			router := gin.New()
			router.Use(ErrorHandler(log))
			router.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMessage)
			assert.Equal(t, tt.wantDetails, strings.Count(rec.Body.String(), `"field"`))
			if tt.wantStatus >= http.StatusInternalServerError {
				assert.Equal(t, 1, logs.Len())
				assert.NotContains(t, rec.Body.String(), "connection reset")
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(logger.NewNopLogger()))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(errors.New("late"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewJWTManager("secret", time.Hour)
	valid, err := tokens.Generate("staff-7", "vet@clinic.test")
	require.NoError(t, err)
	expired, err := auth.NewJWTManager("secret", -time.Minute).Generate("staff-7", "")
	require.NoError(t, err)
	foreign, err := auth.NewJWTManager("other-secret", time.Hour).Generate("staff-7", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid.AccessToken, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid.AccessToken, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired.AccessToken, wantStatus: http.StatusUnauthorized},
		{name: "signed with another key", header: "Bearer " + foreign.AccessToken, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler(logger.NewNopLogger()))
			router.GET("/", AuthMiddleware(tokens), func(c *gin.Context) {
				c.String(http.StatusOK, ActorFromContext(c).UserID)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "staff-7", rec.Body.String())
			}
		})
	}
}

func TestRequestIDIsReusedOrGenerated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ctxRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-123", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestRequestResponseLoggerRedacts(t *testing.T) {
	log, logs := observedLogger(zapcore.DebugLevel)
	router := gin.New()
	router.Use(RequestResponseLogger(log))
	router.POST("/v1/invoices", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "nope", "access_token": "leak"})
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices?page=2",
		strings.NewReader(`{"customer_id":1,"payment":{"card_token":"tok_123"},"password":"hunter2"}`))
	req.Header.Set("Authorization", "Bearer abc.def")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "page=2", fields["query"])
	assert.EqualValues(t, http.StatusBadRequest, fields["status"])

	headers, ok := fields["headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, redacted, headers["Authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])

	reqBody, ok := fields["request_body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, redacted, reqBody["password"])
	assert.Equal(t, redacted, reqBody["payment"].(map[string]interface{})["card_token"])
	assert.EqualValues(t, 1, reqBody["customer_id"])

	respBody, ok := fields["response_body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, redacted, respBody["access_token"])
	assert.Equal(t, "nope", respBody["message"])
}

func TestRequestResponseLoggerSkipsBodiesAboveDebug(t *testing.T) {
	log, logs := observedLogger(zapcore.InfoLevel)
	router := gin.New()
	router.Use(RequestResponseLogger(log))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.NotContains(t, entry.ContextMap(), "request_body")
	assert.NotContains(t, entry.ContextMap(), "response_body")
}

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	m := metrics.New()
	router := gin.New()
	router.Use(HTTPMetrics(m))
	router.GET("/v1/invoices/:invoiceId", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/invoices/1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/invoices/2", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/invoices/:invoiceId", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}
