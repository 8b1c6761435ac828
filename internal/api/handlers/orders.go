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

type OrderHandler struct {
	db *gorm.DB
}

func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
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

	query := h.db.WithContext(r.Context()).Model(&models.Order{}).
		Where("company_id = ? AND status = ?", companyID, status)

	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		id, err := uuid.Parse(projectID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project_id filter"})
			return
		}
		query = query.Where("project_id = ?", id)
	}
	if orderStatus := r.URL.Query().Get("order_status"); orderStatus != "" {
		query = query.Where("order_status = ?", orderStatus)
	}
	if paymentStatus := r.URL.Query().Get("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count orders"})
		return
	}

	var orders []models.Order
	if err := query.
		Preload("Project").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&orders).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list orders"})
		return
	}

	items := make([]orderListItem, 0, len(orders))
	for _, o := range orders {
		item := orderListItem{Order: o}
		if o.Project != nil {
			item.ProjectName = o.Project.Name
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, dto.Paginated(items, total, pagination))
}

type orderListItem struct {
	models.Order
	ProjectName string `json:"project_name,omitempty"`
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	var req dto.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	order, err := h.fromRequest(r, companyID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.db.WithContext(r.Context()).Create(order).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create order"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid order ID"})
		return
	}

	var order models.Order
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND company_id = ? AND status <> ?", orderID, companyID, models.StatusRemoved).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Order not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get order"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Update handles PUT /api/v1/orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid order ID"})
		return
	}

	var req dto.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	updated, err := h.fromRequest(r, companyID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	result := h.db.WithContext(r.Context()).Model(&models.Order{}).
		Where("id = ? AND company_id = ? AND status <> ?", orderID, companyID, models.StatusRemoved).
		Updates(map[string]interface{}{
			"name":           updated.Name,
			"description":    updated.Description,
			"project_id":     updated.ProjectID,
			"amount":         updated.Amount,
			"order_status":   updated.OrderStatus,
			"payment_status": updated.PaymentStatus,
			"payment_type":   updated.PaymentType,
			"planned_date":   updated.PlannedDate,
			"actual_date":    updated.ActualDate,
		})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update order"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Order not found"})
		return
	}

	var order models.Order
	if err := h.db.WithContext(r.Context()).First(&order, "id = ?", orderID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get order"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// SetStatus handles PATCH /api/v1/orders/{id}/status
func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, "")
}

// Delete handles DELETE /api/v1/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, models.StatusRemoved)
}

func (h *OrderHandler) setStatusOrDelete(w http.ResponseWriter, r *http.Request, forced models.RecordStatus) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid order ID"})
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

	result := h.db.WithContext(r.Context()).Model(&models.Order{}).
		Where("id = ? AND company_id = ? AND status <> ?", orderID, companyID, models.StatusRemoved).
		Update("status", status)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update order"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Order not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Order updated"})
}

func (h *OrderHandler) fromRequest(r *http.Request, companyID uuid.UUID, req dto.OrderRequest) (*models.Order, error) {
	projectID, err := parseOptionalUUID(req.ProjectID)
	if err != nil {
		return nil, errors.New("Invalid project ID")
	}
	if projectID != nil {
		var project models.Project
		err = h.db.WithContext(r.Context()).
			Where("id = ? AND company_id = ? AND status <> ?", projectID, companyID, models.StatusRemoved).
			First(&project).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.New("Project not found")
			}
			return nil, err
		}
	}

	plannedDate, err := parseDate(req.PlannedDate)
	if err != nil {
		return nil, errors.New("Invalid planned date")
	}
	actualDate, err := parseDate(req.ActualDate)
	if err != nil {
		return nil, errors.New("Invalid actual date")
	}

	order := models.Order{
		CompanyID:     companyID,
		ProjectID:     projectID,
		Name:          req.Name,
		Description:   req.Description,
		Amount:        req.Amount,
		OrderStatus:   models.OrderNew,
		PaymentStatus: models.PaymentNotPaid,
		PaymentType:   models.PaymentPostpaid,
		PlannedDate:   plannedDate,
		ActualDate:    actualDate,
		Status:        models.StatusActive,
	}
	if req.OrderStatus != "" {
		order.OrderStatus = models.OrderStatus(req.OrderStatus)
	}
	if req.PaymentStatus != "" {
		order.PaymentStatus = models.PaymentStatus(req.PaymentStatus)
	}
	if req.PaymentType != "" {
		order.PaymentType = models.PaymentType(req.PaymentType)
	}
	return &order, nil
}
