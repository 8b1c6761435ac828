package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// List handles GET /api/v1/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
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

	query := h.db.WithContext(r.Context()).Model(&models.Client{}).
		Where("company_id = ? AND status = ?", companyID, status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count clients"})
		return
	}

	var clients []models.Client
	if err := query.
		Preload("Contacts").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&clients).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list clients"})
		return
	}

	writeJSON(w, http.StatusOK, dto.Paginated(clients, total, pagination))
}

// Create handles POST /api/v1/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	var req dto.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	client := models.Client{
		CompanyID: companyID,
		Name:      req.Name,
		Notes:     req.Notes,
		Status:    models.StatusActive,
	}
	for _, c := range req.Contacts {
		client.Contacts = append(client.Contacts, models.ClientContact{
			FullName: c.FullName,
			Position: c.Position,
			Phone:    c.Phone,
			Email:    c.Email,
		})
	}

	if err := h.db.WithContext(r.Context()).Create(&client).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create client"})
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// Get handles GET /api/v1/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid client ID"})
		return
	}

	var client models.Client
	err = h.db.WithContext(r.Context()).
		Preload("Contacts").
		Where("id = ? AND company_id = ? AND status <> ?", clientID, companyID, models.StatusRemoved).
		First(&client).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Client not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get client"})
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// Update handles PUT /api/v1/clients/{id}. Contacts are replaced wholesale:
// the incoming list becomes the client's contact list.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid client ID"})
		return
	}

	var req dto.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var client models.Client
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND company_id = ? AND status <> ?", clientID, companyID, models.StatusRemoved).
			First(&client).Error; err != nil {
			return err
		}

		if err := tx.Model(&client).Updates(map[string]interface{}{
			"name":  req.Name,
			"notes": req.Notes,
		}).Error; err != nil {
			return err
		}

		if err := tx.Where("client_id = ?", client.ID).Delete(&models.ClientContact{}).Error; err != nil {
			return err
		}
		for _, c := range req.Contacts {
			contact := models.ClientContact{
				ClientID: client.ID,
				FullName: c.FullName,
				Position: c.Position,
				Phone:    c.Phone,
				Email:    c.Email,
			}
			if err := tx.Create(&contact).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Contacts").First(&client, "id = ?", client.ID).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Client not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update client"})
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// SetStatus handles PATCH /api/v1/clients/{id}/status (archive / restore).
func (h *ClientHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, "")
}

// Delete handles DELETE /api/v1/clients/{id}. Soft delete: records move to
// the removed state and disappear from every listing.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, models.StatusRemoved)
}

func (h *ClientHandler) setStatusOrDelete(w http.ResponseWriter, r *http.Request, forced models.RecordStatus) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid client ID"})
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

	result := h.db.WithContext(r.Context()).Model(&models.Client{}).
		Where("id = ? AND company_id = ? AND status <> ?", clientID, companyID, models.StatusRemoved).
		Update("status", status)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update client"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Client not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Client updated"})
}
