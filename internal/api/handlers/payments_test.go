package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avolkov/revtrack/internal/api/handlers"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaymentTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewPaymentHandler(tc.DB)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Use(middleware.CompanyContext)

		r.Get("/api/v1/payments", handler.List)
		r.Post("/api/v1/payments", handler.Create)
		r.Put("/api/v1/payments/{id}", handler.Update)
		r.Delete("/api/v1/payments/{id}", handler.Delete)
	})

	return r, tc
}

func TestPaymentHandler_ReconcilesOrder(t *testing.T) {
	router, tc := setupPaymentTestRouter(t)
	defer tc.Cleanup()

	company := testutil.CreateTestCompany(t, tc.DB)
	user := testutil.CreateTestMember(t, tc.DB, company, models.RoleUser)
	token := testutil.GenerateTestToken(t, tc.JWTService, user)

	order := testutil.CreateTestOrder(t, tc.DB, company.ID, 1000)

	orderStatus := func() models.PaymentStatus {
		var o models.Order
		require.NoError(t, tc.DB.First(&o, "id = ?", order.ID).Error)
		return o.PaymentStatus
	}

	var paymentID string

	t.Run("partial payment", func(t *testing.T) {
		body := map[string]interface{}{
			"order_id":      order.ID.String(),
			"actual_amount": 400,
		}

		req := testutil.TenantRequest(t, "POST", "/api/v1/payments", body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var created models.Payment
		testutil.ParseJSONResponse(t, rr, &created)
		paymentID = created.ID.String()

		assert.Equal(t, models.PaymentPartiallyPaid, orderStatus())
	})

	t.Run("topping up marks the order paid", func(t *testing.T) {
		body := map[string]interface{}{
			"order_id":      order.ID.String(),
			"actual_amount": 600,
		}

		req := testutil.TenantRequest(t, "POST", "/api/v1/payments", body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, models.PaymentPaid, orderStatus())
	})

	t.Run("removing a payment rolls the status back", func(t *testing.T) {
		req := testutil.TenantRequest(t, "DELETE", "/api/v1/payments/"+paymentID, nil, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, models.PaymentPartiallyPaid, orderStatus())
	})

	t.Run("payment against a foreign order is rejected", func(t *testing.T) {
		other := testutil.CreateTestCompany(t, tc.DB)
		foreignOrder := testutil.CreateTestOrder(t, tc.DB, other.ID, 500)

		body := map[string]interface{}{
			"order_id":      foreignOrder.ID.String(),
			"actual_amount": 100,
		}

		req := testutil.TenantRequest(t, "POST", "/api/v1/payments", body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("negative amount fails validation", func(t *testing.T) {
		body := map[string]interface{}{
			"actual_amount": -5,
		}

		req := testutil.TenantRequest(t, "POST", "/api/v1/payments", body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
