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

type PaymentHandler struct {
	db *gorm.DB
}

func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

// List handles GET /api/v1/payments
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	query := h.db.WithContext(r.Context()).Model(&models.Payment{}).
		Where("company_id = ? AND status = ?", companyID, status)

	if orderID := r.URL.Query().Get("order_id"); orderID != "" {
		id, err := uuid.Parse(orderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid order_id filter"})
			return
		}
		query = query.Where("order_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count payments"})
		return
	}

	var payments []models.Payment
	if err := query.
		Preload("Order").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&payments).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list payments"})
		return
	}

	items := make([]paymentListItem, 0, len(payments))
	for _, p := range payments {
		item := paymentListItem{Payment: p}
		if p.Order != nil {
			item.OrderName = p.Order.Name
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, dto.Paginated(items, total, pagination))
}

type paymentListItem struct {
	models.Payment
	OrderName string `json:"order_name,omitempty"`
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	payment, err := h.fromRequest(r, companyID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return h.reconcileOrder(tx, companyID, payment.OrderID)
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create payment"})
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// Get handles GET /api/v1/payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := requireMember(w, r, h.db)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid payment ID"})
		return
	}

	var payment models.Payment
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND company_id = ? AND status <> ?", paymentID, companyID, models.StatusRemoved).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Payment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get payment"})
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// Update handles PUT /api/v1/payments/{id}
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid payment ID"})
		return
	}

	var req dto.PaymentRequest
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

	var payment models.Payment
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND company_id = ? AND status <> ?", paymentID, companyID, models.StatusRemoved).
			First(&payment).Error; err != nil {
			return err
		}

		previousOrder := payment.OrderID

		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"order_id":               updated.OrderID,
			"planned_amount":         updated.PlannedAmount,
			"planned_amount_percent": updated.PlannedAmountPercent,
			"actual_amount":          updated.ActualAmount,
			"planned_date":           updated.PlannedDate,
			"actual_date":            updated.ActualDate,
		}).Error; err != nil {
			return err
		}

		if err := h.reconcileOrder(tx, companyID, updated.OrderID); err != nil {
			return err
		}
		// When the payment moved between orders the old order needs a
		// recompute too.
		if previousOrder != nil && (updated.OrderID == nil || *previousOrder != *updated.OrderID) {
			return h.reconcileOrder(tx, companyID, previousOrder)
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Payment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update payment"})
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// SetStatus handles PATCH /api/v1/payments/{id}/status
func (h *PaymentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, "")
}

// Delete handles DELETE /api/v1/payments/{id}
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatusOrDelete(w, r, models.StatusRemoved)
}

func (h *PaymentHandler) setStatusOrDelete(w http.ResponseWriter, r *http.Request, forced models.RecordStatus) {
	companyID, ok := requireWriter(w, r, h.db)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid payment ID"})
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

	var payment models.Payment
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND company_id = ? AND status <> ?", paymentID, companyID, models.StatusRemoved).
			First(&payment).Error; err != nil {
			return err
		}
		if err := tx.Model(&payment).Update("status", status).Error; err != nil {
			return err
		}
		return h.reconcileOrder(tx, companyID, payment.OrderID)
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Payment not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update payment"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Payment updated"})
}

// reconcileOrder recomputes an order's payment status from the sum of its
// active payments.
func (h *PaymentHandler) reconcileOrder(tx *gorm.DB, companyID uuid.UUID, orderID *uuid.UUID) error {
	if orderID == nil {
		return nil
	}

	var order models.Order
	err := tx.Where("id = ? AND company_id = ?", orderID, companyID).First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	var paid float64
	err = tx.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.StatusActive).
		Select("COALESCE(SUM(actual_amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return err
	}

	status := models.PaymentNotPaid
	switch {
	case paid >= order.Amount && order.Amount > 0:
		status = models.PaymentPaid
	case paid > 0:
		status = models.PaymentPartiallyPaid
	}

	return tx.Model(&order).Update("payment_status", status).Error
}

func (h *PaymentHandler) fromRequest(r *http.Request, companyID uuid.UUID, req dto.PaymentRequest) (*models.Payment, error) {
	orderID, err := parseOptionalUUID(req.OrderID)
	if err != nil {
		return nil, errors.New("Invalid order ID")
	}
	if orderID != nil {
		var order models.Order
		err = h.db.WithContext(r.Context()).
			Where("id = ? AND company_id = ? AND status <> ?", orderID, companyID, models.StatusRemoved).
			First(&order).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.New("Order not found")
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

	return &models.Payment{
		CompanyID:            companyID,
		OrderID:              orderID,
		PlannedAmount:        req.PlannedAmount,
		PlannedAmountPercent: req.PlannedAmountPercent,
		ActualAmount:         req.ActualAmount,
		PlannedDate:          plannedDate,
		ActualDate:           actualDate,
		Status:               models.StatusActive,
	}, nil
}
