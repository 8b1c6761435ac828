package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/invitations"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type InvitationHandler struct {
	service *invitations.Service
}

func NewInvitationHandler(service *invitations.Service) *InvitationHandler {
	return &InvitationHandler{service: service}
}

func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req dto.InviteRequest
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

	err := h.service.Invite(r.Context(), callerID, companyID, req.Email, models.Role(req.Role))
	if err != nil {
		switch err {
		case invitations.ErrForbidden:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient privileges"})
		case invitations.ErrAlreadyMember:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "User is already a member"})
		case invitations.ErrDuplicateInvitation:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "An active invitation already exists"})
		case invitations.ErrDeliveryFailed:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not deliver the invitation"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Invitation failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Invitation sent"})
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	list, err := h.service.List(r.Context(), callerID, companyID)
	if err != nil {
		switch err {
		case invitations.ErrForbidden:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient privileges"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list invitations"})
		}
		return
	}

	out := make([]dto.InvitationDTO, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.InvitationDTO{
			ID:        inv.ID.String(),
			Email:     inv.Email,
			Role:      string(inv.Role),
			Status:    string(inv.Status),
			InvitedBy: inv.InvitedBy.String(),
			CreatedAt: inv.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			ExpiresAt: inv.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid invitation ID"})
		return
	}

	callerID := middleware.GetUserID(r.Context())
	companyID := middleware.GetCompanyID(r.Context())

	err = h.service.Cancel(r.Context(), callerID, companyID, invitationID)
	if err != nil {
		switch err {
		case invitations.ErrForbidden:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient privileges"})
		case invitations.ErrNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invitation not found"})
		case invitations.ErrAlreadyUsed, invitations.ErrCancelled:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invitation is not pending"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Cancellation failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Invitation cancelled"})
}

// Inspect is the public endpoint hit by an acceptance landing page.
func (h *InvitationHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	result, err := h.service.Inspect(r.Context(), token)
	if err != nil {
		writeRedemptionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req dto.AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID, err := h.service.Accept(r.Context(), token, invitations.AcceptInput{
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
	})
	if err != nil {
		if err == invitations.ErrEmailTaken {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A user with this email already exists"})
			return
		}
		writeRedemptionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID.String()})
}

func writeRedemptionError(w http.ResponseWriter, err error) {
	switch err {
	case invitations.ErrNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invitation not found"})
	case invitations.ErrCancelled:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invitation was cancelled"})
	case invitations.ErrAlreadyUsed:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invitation was already used"})
	case invitations.ErrExpired:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invitation has expired"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
	}
}
