package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	status, valid := statusFilter(r)
	if !valid {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status filter"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.NewPagination(page, perPage)

	query := h.db.WithContext(r.Context()).Model(&models.Project{}).
		Where("company_id = ? AND status = ?", companyID, status)

	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid client_id filter"})
			return
		}
		query = query.Where("client_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count projects"})
		return
	}

	var projects []models.Project
	if err := query.
		Preload("Client").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&projects).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list projects"})
		return
	}

	// Lists carry the client's display name so the frontend can render the
	// table without a second lookup.
	items := make([]projectListItem, 0, len(projects))
	for _, p := range projects {
		item := projectListItem{Project: p}
		if p.Client != nil {
			item.ClientName = p.Client.Name
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, dto.Paginated(items, total, pagination))
}

type projectListItem struct {
	models.Project
	ClientName string `json:"client_name,omitempty"`
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	var req dto.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	clientID, err := h.resolveClient(r, companyID, req.ClientID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	project := models.Project{
		CompanyID:   companyID,
		ClientID:    clientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.StatusActive,
	}

	if err := h.db.WithContext(r.Context()).Create(&project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return
	}

	var project models.Project
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND company_id = ? AND status <> ?", projectID, companyID, models.StatusRemoved).
		First(&project).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get project"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// Update handles PUT /api/v1/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return
	}

	var req dto.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	clientID, err := h.resolveClient(r, companyID, req.ClientID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	result := h.db.WithContext(r.Context()).Model(&models.Project{}).
		Where("id = ? AND company_id = ? AND status <> ?", projectID, companyID, models.StatusRemoved).
		Updates(map[string]interface{}{
			"name":        req.Name,
			"description": req.Description,
			"client_id":   clientID,
		})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return
	}

	var project models.Project
	if err := h.db.WithContext(r.Context()).First(&project, "id = ?", projectID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get project"})
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// SetStatus handles PATCH /api/v1/projects/{id}/status
func (h *ProjectHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, "")
}

// Delete handles DELETE /api/v1/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, models.StatusRemoved)
}

func (h *ProjectHandler) setStatusOrDelete(w http.ResponseWriter, r *http.Request, forced models.RecordStatus) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return
	}

	status := forced
	if status == "" {
		var req dto.ArchiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
		if errors := req.Validate(); len(errors) > 0 {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
			return
		}
		status = models.RecordStatus(req.Status)
	}

	result := h.db.WithContext(r.Context()).Model(&models.Project{}).
		Where("id = ? AND company_id = ? AND status <> ?", projectID, companyID, models.StatusRemoved).
		Update("status", status)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project updated"})
}

func (h *ProjectHandler) resolveClient(r *http.Request, companyID uuid.UUID, raw string) (*uuid.UUID, error) {
	clientID, err := parseOptionalUUID(raw)
	if err != nil {
		return nil, err
	}
	if clientID == nil {
		return nil, nil
	}

	var client models.Client
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND company_id = ? AND status <> ?", clientID, companyID, models.StatusRemoved).
		First(&client).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errClientNotFound
		}
		return nil, err
	}
	return clientID, nil
}

var errClientNotFound = errors.New("Client not found")
