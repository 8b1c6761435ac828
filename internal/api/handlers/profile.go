package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/api/middleware"
	"github.com/avolkov/revtrack/internal/auth"
)

type ProfileHandler struct {
	authService *auth.Service
}

func NewProfileHandler(authService *auth.Service) *ProfileHandler {
	return &ProfileHandler{authService: authService}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	out := dto.UserDTO{
		ID:              user.ID.String(),
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		MiddleName:      user.MiddleName,
		Phone:           user.Phone,
		AvatarURL:       user.AvatarURL,
		IsEmailVerified: user.IsEmailVerified,
	}
	if user.CurrentCompanyID != nil {
		out.CurrentCompanyID = user.CurrentCompanyID.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID := middleware.GetUserID(r.Context())

	err := h.authService.UpdateProfile(r.Context(), userID, auth.ProfileInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
	})
	if err != nil {
		writeProfileError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Profile updated"})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID := middleware.GetUserID(r.Context())

	err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Current password is incorrect"})
			return
		}
		writeProfileError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password updated"})
}

func (h *ProfileHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID := middleware.GetUserID(r.Context())

	err := h.authService.RequestEmailChange(r.Context(), userID, req.NewEmail)
	if err != nil {
		switch err {
		case auth.ErrEmailTaken:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Email is already in use"})
		case auth.ErrDeliveryFailed:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not deliver the code"})
		default:
			writeProfileError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Confirmation code sent"})
}

func (h *ProfileHandler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmEmailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID := middleware.GetUserID(r.Context())

	err := h.authService.ConfirmEmailChange(r.Context(), userID, req.Code)
	if err != nil {
		switch err {
		case auth.ErrNoCodeRequested, auth.ErrInvalidCode:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid code"})
		case auth.ErrCodeExpired:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Code has expired"})
		case auth.ErrEmailTaken:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Email is already in use"})
		default:
			writeProfileError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Email updated"})
}

func writeProfileError(w http.ResponseWriter, err error) {
	if err == auth.ErrUserNotFound {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
}
