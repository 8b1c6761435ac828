package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avolkov/revtrack/internal/api/handlers"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/members"
	"github.com/avolkov/revtrack/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEmployeeTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewEmployeeHandler(members.NewService(tc.DB))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Use(middleware.CompanyContext)

		r.Get("/api/v1/employees", handler.List)
		r.Post("/api/v1/employees", handler.Add)
		r.Put("/api/v1/employees/{id}/role", handler.ChangeRole)
		r.Delete("/api/v1/employees/{id}", handler.Remove)
	})

	return r, tc
}

func TestEmployeeHandler_List(t *testing.T) {
	router, tc := setupEmployeeTestRouter(t)
	defer tc.Cleanup()

	company := testutil.CreateTestCompany(t, tc.DB)
	owner := testutil.CreateTestMember(t, tc.DB, company, models.RoleOwner)
	viewer := testutil.CreateTestMember(t, tc.DB, company, models.RoleViewer)
	token := testutil.GenerateTestToken(t, tc.JWTService, viewer)

	t.Run("requires token", func(t *testing.T) {
		req := testutil.TenantRequest(t, "GET", "/api/v1/employees", nil, "", company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("requires company header", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/employees", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("viewer sees the member list with their own role attached", func(t *testing.T) {
		req := testutil.TenantRequest(t, "GET", "/api/v1/employees", nil, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Employees  []members.Employee `json:"employees"`
			CallerRole models.Role        `json:"caller_role"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, models.RoleViewer, resp.CallerRole)
		require.Len(t, resp.Employees, 2)
		assert.Equal(t, owner.ID, resp.Employees[0].ID)
	})

	t.Run("member of another company is rejected", func(t *testing.T) {
		other := testutil.CreateTestCompany(t, tc.DB)
		req := testutil.TenantRequest(t, "GET", "/api/v1/employees", nil, token, other.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestEmployeeHandler_Manage(t *testing.T) {
	router, tc := setupEmployeeTestRouter(t)
	defer tc.Cleanup()

	company := testutil.CreateTestCompany(t, tc.DB)
	owner := testutil.CreateTestMember(t, tc.DB, company, models.RoleOwner)
	admin := testutil.CreateTestMember(t, tc.DB, company, models.RoleAdmin)
	user := testutil.CreateTestMember(t, tc.DB, company, models.RoleUser)

	ownerToken := testutil.GenerateTestToken(t, tc.JWTService, owner)
	adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)

	t.Run("owner promotes user to admin", func(t *testing.T) {
		req := testutil.TenantRequest(t, "PUT", "/api/v1/employees/"+user.ID.String()+"/role",
			map[string]string{"role": "admin"}, ownerToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("admin cannot demote another admin", func(t *testing.T) {
		req := testutil.TenantRequest(t, "PUT", "/api/v1/employees/"+user.ID.String()+"/role",
			map[string]string{"role": "user"}, adminToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("unknown role is a validation error", func(t *testing.T) {
		req := testutil.TenantRequest(t, "PUT", "/api/v1/employees/"+user.ID.String()+"/role",
			map[string]string{"role": "superuser"}, ownerToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		req := testutil.TenantRequest(t, "DELETE", "/api/v1/employees/"+owner.ID.String(),
			nil, adminToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("add existing account by email", func(t *testing.T) {
		candidate := testutil.CreateTestUser(t, tc.DB)

		req := testutil.TenantRequest(t, "POST", "/api/v1/employees",
			map[string]string{"email": candidate.Email, "role": "viewer"}, adminToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		// adding again conflicts
		req = testutil.TenantRequest(t, "POST", "/api/v1/employees",
			map[string]string{"email": candidate.Email, "role": "viewer"}, adminToken, company.ID)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("add unknown email", func(t *testing.T) {
		req := testutil.TenantRequest(t, "POST", "/api/v1/employees",
			map[string]string{"email": "ghost@example.com", "role": "viewer"}, adminToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
