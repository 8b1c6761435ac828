package handlers

import (
	"net/http"
	"time"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatsHandler struct {
	db *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// Overview handles GET /api/v1/stats. Counts cover active records only;
// revenue is the sum of actual amounts across active payments.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	since := time.Now().AddDate(0, 0, -30)

	var resp dto.StatsResponse
	var err error

	if resp.Clients, err = h.countEntity(&models.Client{}, companyID, since); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}
	if resp.Projects, err = h.countEntity(&models.Project{}, companyID, since); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}
	if resp.Orders, err = h.countEntity(&models.Order{}, companyID, since); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}
	if resp.Payments, err = h.countEntity(&models.Payment{}, companyID, since); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	err = h.db.WithContext(r.Context()).Model(&models.Payment{}).
		Where("company_id = ? AND status = ?", companyID, models.StatusActive).
		Select("COALESCE(SUM(actual_amount), 0)").
		Scan(&resp.Revenue).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) countEntity(model interface{}, companyID uuid.UUID, since time.Time) (dto.StatEntry, error) {
	var entry dto.StatEntry

	base := h.db.Model(model).
		Where("company_id = ? AND status = ?", companyID, models.StatusActive)

	if err := base.Count(&entry.Total).Error; err != nil {
		return entry, err
	}
	err := h.db.Model(model).
		Where("company_id = ? AND status = ? AND created_at >= ?", companyID, models.StatusActive, since).
		Count(&entry.Last30Day).Error
	return entry, err
}
