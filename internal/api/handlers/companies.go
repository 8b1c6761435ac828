package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/tenants"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CompanyHandler struct {
	service *tenants.Service
}

func NewCompanyHandler(service *tenants.Service) *CompanyHandler {
	return &CompanyHandler{service: service}
}

func (h *CompanyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	companies, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list companies"})
		return
	}

	writeJSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID := middleware.GetUserID(r.Context())

	company, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not create company"})
		return
	}

	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) Switch(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.service.Switch(r.Context(), userID, companyID); err != nil {
		switch err {
		case tenants.ErrNotMember:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this company"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not switch company"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Company switched"})
}
