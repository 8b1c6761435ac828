package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// requireMember loads the caller's membership in the company taken from the
// request context. Returns false after writing the response when the caller
// does not belong to the company.
func requireMember(w http.ResponseWriter, r *http.Request, db *gorm.DB) (uuid.UUID, models.Role, bool) {
	userID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	var m models.CompanyUser
	err := db.WithContext(r.Context()).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this company"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
		}
		return uuid.Nil, "", false
	}
	return companyID, m.Role, true
}

// requireWriter is requireMember plus a write guard: viewers are read-only.
func requireWriter(w http.ResponseWriter, r *http.Request, db *gorm.DB) (uuid.UUID, bool) {
	companyID, role, ok := requireMember(w, r, db)
	if !ok {
		return uuid.Nil, false
	}
	if role == models.RoleViewer {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Viewers cannot modify records"})
		return uuid.Nil, false
	}
	return companyID, true
}

// statusFilter resolves the ?status= query parameter. Active records are the
// default view; removed records never surface through list endpoints.
func statusFilter(r *http.Request) (models.RecordStatus, bool) {
	switch models.RecordStatus(r.URL.Query().Get("status")) {
	case models.StatusArchived:
		return models.StatusArchived, true
	case models.StatusActive, "":
		return models.StatusActive, true
	default:
		return "", false
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
