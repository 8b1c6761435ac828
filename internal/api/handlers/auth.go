package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/revtrack/internal/api/dto"
	"github.com/avolkov/revtrack/internal/auth"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	result, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		MiddleName:  req.MiddleName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		switch err {
		case auth.ErrUserExists:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "User already exists"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Registration failed"})
		}
		return
	}

	resp := dto.RegisterResponse{
		UserID:    result.UserID.String(),
		CompanyID: result.CompanyID.String(),
		EmailSent: result.EmailSent,
	}
	if !result.EmailSent {
		resp.Code = result.Code
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	result, err := h.authService.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		switch err {
		case auth.ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		case auth.ErrAlreadyVerified:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Email is already verified"})
		case auth.ErrNoCodeRequested, auth.ErrInvalidCode:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid code"})
		case auth.ErrCodeExpired:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Code has expired"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Verification failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		case auth.ErrEmailNotVerified:
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Email is not verified"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse(result))
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		switch err {
		case auth.ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		case auth.ErrDeliveryFailed:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not deliver the code"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Reset code sent"})
}

func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyResetCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if err := h.authService.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		writeResetCodeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Code is valid"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeResetCodeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password updated"})
}

func writeResetCodeError(w http.ResponseWriter, err error) {
	switch err {
	case auth.ErrUserNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	case auth.ErrNoCodeRequested, auth.ErrInvalidCode:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid code"})
	case auth.ErrCodeExpired:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Code has expired"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
	}
}

func authResponse(result *auth.AuthResult) dto.AuthResponse {
	user := dto.UserDTO{
		ID:              result.User.ID.String(),
		Email:           result.User.Email,
		FirstName:       result.User.FirstName,
		LastName:        result.User.LastName,
		MiddleName:      result.User.MiddleName,
		Phone:           result.User.Phone,
		AvatarURL:       result.User.AvatarURL,
		IsEmailVerified: result.User.IsEmailVerified,
	}
	if result.CompanyID != nil {
		user.CurrentCompanyID = result.CompanyID.String()
	}
	return dto.AuthResponse{Token: result.Token, User: user}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
