package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.CompanyUser{},
		&models.Invitation{},
		&models.Client{},
		&models.ClientContact{},
		&models.Project{},
		&models.Order{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// TestSetup bundles the pieces most handler tests need.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService

	t *testing.T
}

func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	return &TestSetup{
		DB:         SetupTestDB(t),
		JWTService: CreateTestJWTService(),
		t:          t,
	}
}

func (tc *TestSetup) Cleanup() {
	CleanupTestDB(tc.t, tc.DB)
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestCompany creates a test company
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()

	company := &models.Company{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Company " + uuid.New().String()[:8],
	}

	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}

	return company
}

// CreateTestUser creates a verified test user
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:           "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:    hash,
		FirstName:       "Test",
		LastName:        "User",
		IsEmailVerified: true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestMembership links a user to a company with the given role
func CreateTestMembership(t *testing.T, db *gorm.DB, user *models.User, company *models.Company, role models.Role) *models.CompanyUser {
	t.Helper()

	membership := &models.CompanyUser{
		CompanyID: company.ID,
		UserID:    user.ID,
		Role:      role,
	}

	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}

	return membership
}

// CreateTestMember creates a user and their membership in one step
func CreateTestMember(t *testing.T, db *gorm.DB, company *models.Company, role models.Role) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	CreateTestMembership(t, db, user, company, role)
	return user
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// TenantRequest is AuthenticatedRequest plus the company header
func TenantRequest(t *testing.T, method, path string, body interface{}, token string, companyID uuid.UUID) *http.Request {
	t.Helper()

	req := AuthenticatedRequest(t, method, path, body, token)
	req.Header.Set("X-Company-Id", companyID.String())
	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// CreateTestClient creates a test client record for the company
func CreateTestClient(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string) *models.Client {
	t.Helper()

	client := &models.Client{
		Base: models.Base{
			ID: uuid.New(),
		},
		CompanyID: companyID,
		Name:      name,
		Status:    models.StatusActive,
	}

	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}

	return client
}

// CreateTestOrder creates a test order for the company
func CreateTestOrder(t *testing.T, db *gorm.DB, companyID uuid.UUID, amount float64) *models.Order {
	t.Helper()

	order := &models.Order{
		Base: models.Base{
			ID: uuid.New(),
		},
		CompanyID:     companyID,
		Name:          "Test Order " + uuid.New().String()[:8],
		Amount:        amount,
		OrderStatus:   models.OrderNew,
		PaymentStatus: models.PaymentNotPaid,
		PaymentType:   models.PaymentPostpaid,
		Status:        models.StatusActive,
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create test order: %v", err)
	}

	return order
}
