package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/members"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EmployeeHandler struct {
	service *members.Service
}

func NewEmployeeHandler(service *members.Service) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

type employeeListResponse struct {
	Employees  []members.Employee `json:"employees"`
	CallerRole models.Role        `json:"caller_role"`
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	employees, callerRole, err := h.service.List(r.Context(), callerID, companyID)
	if err != nil {
		writeMembersError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, employeeListResponse{
		Employees:  employees,
		CallerRole: callerRole,
	})
}

func (h *EmployeeHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.AddEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	err := h.service.Add(r.Context(), callerID, companyID, req.Email, models.Role(req.Role))
	if err != nil {
		writeMembersError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Employee added"})
}

func (h *EmployeeHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid employee ID"})
		return
	}

	var req dto.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	err = h.service.ChangeRole(r.Context(), callerID, companyID, targetID, models.Role(req.Role))
	if err != nil {
		writeMembersError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Role updated"})
}

func (h *EmployeeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid employee ID"})
		return
	}

	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	if err := h.service.Remove(r.Context(), callerID, companyID, targetID); err != nil {
		writeMembersError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Employee removed"})
}

func writeMembersError(w http.ResponseWriter, err error) {
	switch err {
	case members.ErrForbidden:
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient privileges"})
	case members.ErrOwnerImmutable:
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "The owner cannot be changed or removed"})
	case members.ErrNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Employee not found"})
	case members.ErrUserNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No user with this email"})
	case members.ErrAlreadyMember:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "User is already a member"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
	}
}
