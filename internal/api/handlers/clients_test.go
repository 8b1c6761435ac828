package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/handlers"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClientTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewClientHandler(tc.DB)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Use(middleware.CompanyContext)

		r.Get("/api/v1/clients", handler.List)
		r.Post("/api/v1/clients", handler.Create)
		r.Get("/api/v1/clients/{id}", handler.Get)
		r.Put("/api/v1/clients/{id}", handler.Update)
		r.Patch("/api/v1/clients/{id}/status", handler.SetStatus)
		r.Delete("/api/v1/clients/{id}", handler.Delete)
	})

	return r, tc
}

func TestClientHandler_CRUD(t *testing.T) {
	router, tc := setupClientTestRouter(t)
	defer tc.Cleanup()

	company := testutil.CreateTestCompany(t, tc.DB)
	user := testutil.CreateTestMember(t, tc.DB, company, models.RoleUser)
	viewer := testutil.CreateTestMember(t, tc.DB, company, models.RoleViewer)
	token := testutil.GenerateTestToken(t, tc.JWTService, user)
	viewerToken := testutil.GenerateTestToken(t, tc.JWTService, viewer)

	var clientID string

	t.Run("create with contacts", func(t *testing.T) {
		body := map[string]interface{}{
			"name":  "Globex",
			"notes": "key account",
			"contacts": []map[string]string{
				{"full_name": "Hank Scorpio", "position": "CEO", "email": "hank@globex.example"},
			},
		}

		req := testutil.TenantRequest(t, "POST", "/api/v1/clients", body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var created models.Client
		testutil.ParseJSONResponse(t, rr, &created)
		assert.Equal(t, "Globex", created.Name)
		require.Len(t, created.Contacts, 1)
		clientID = created.ID.String()
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		req := testutil.TenantRequest(t, "POST", "/api/v1/clients",
			map[string]string{"name": "Initech"}, viewerToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("viewer can read", func(t *testing.T) {
		req := testutil.TenantRequest(t, "GET", "/api/v1/clients/"+clientID, nil, viewerToken, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("update replaces contacts", func(t *testing.T) {
		body := map[string]interface{}{
			"name": "Globex Corp",
			"contacts": []map[string]string{
				{"full_name": "Frank Grimes"},
				{"full_name": "Mindy Simmons"},
			},
		}

		req := testutil.TenantRequest(t, "PUT", "/api/v1/clients/"+clientID, body, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var updated models.Client
		testutil.ParseJSONResponse(t, rr, &updated)
		assert.Equal(t, "Globex Corp", updated.Name)
		assert.Len(t, updated.Contacts, 2)
	})

	t.Run("archive hides from the default listing", func(t *testing.T) {
		req := testutil.TenantRequest(t, "PATCH", "/api/v1/clients/"+clientID+"/status",
			map[string]string{"status": "archived"}, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.TenantRequest(t, "GET", "/api/v1/clients", nil, token, company.ID)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var page dto.PaginatedResponse
		testutil.ParseJSONResponse(t, rr, &page)
		assert.Zero(t, page.Total)

		req = testutil.TenantRequest(t, "GET", "/api/v1/clients?status=archived", nil, token, company.ID)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		testutil.ParseJSONResponse(t, rr, &page)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("removed status is not a valid filter", func(t *testing.T) {
		req := testutil.TenantRequest(t, "GET", "/api/v1/clients?status=removed", nil, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("delete removes from all listings", func(t *testing.T) {
		req := testutil.TenantRequest(t, "DELETE", "/api/v1/clients/"+clientID, nil, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.TenantRequest(t, "GET", "/api/v1/clients/"+clientID, nil, token, company.ID)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)

		// the row survives as removed
		var raw models.Client
		require.NoError(t, tc.DB.First(&raw, "id = ?", clientID).Error)
		assert.Equal(t, models.StatusRemoved, raw.Status)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		other := testutil.CreateTestCompany(t, tc.DB)
		foreign := testutil.CreateTestClient(t, tc.DB, other.ID, "Foreign Co")
		outsider := testutil.CreateTestMember(t, tc.DB, other, models.RoleOwner)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		// member of company A cannot read company B's client
		req := testutil.TenantRequest(t, "GET", "/api/v1/clients/"+foreign.ID.String(), nil, token, company.ID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)

		// while its rightful owner can
		req = testutil.TenantRequest(t, "GET", "/api/v1/clients/"+foreign.ID.String(), nil, outsiderToken, other.ID)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}
