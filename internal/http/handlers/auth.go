package handlers

import (
	"log"
	"net/http"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/auth"
	"github.com/bizchat/server/internal/middleware"
	"github.com/bizchat/server/internal/model"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.Service
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// sendOtpRequest is the request body for POST /api/auth/send-otp
type sendOtpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type sendOtpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

// verifyOtpRequest is the request body for POST /api/auth/verify-otp
type verifyOtpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTPCode     string `json:"otpCode"`
}

// createUserRequest is the request body for POST /api/auth/create-user
type createUserRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Location    string `json:"location"`
}

// sessionResponse is returned whenever a session is issued
type sessionResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

type requiresProfileResponse struct {
	Success         bool   `json:"success"`
	RequiresProfile bool   `json:"requiresProfile"`
	Message         string `json:"message"`
}

// HandleSendOtp handles POST /api/auth/send-otp
func (h *AuthHandler) HandleSendOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.SendOtp(r.Context(), req.PhoneNumber)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Printf("Phone %s: failed to send OTP: %v", auth.MaskPhone(req.PhoneNumber), err)
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendOtpResponse{
		Success: true,
		Message: "OTP sent successfully",
		OTP:     result.DevCode,
	})
}

// HandleVerifyOtp handles POST /api/auth/verify-otp
func (h *AuthHandler) HandleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.VerifyOtp(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.RequiresProfile {
		writeJSON(w, http.StatusOK, requiresProfileResponse{
			Success:         false,
			RequiresProfile: true,
			Message:         "profile required",
		})
		return
	}

	h.cookie.set(w, result.Token)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, User: result.User, Token: result.Token})
}

// HandleCreateUser handles POST /api/auth/create-user
func (h *AuthHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := h.authService.CreateUser(r.Context(), req.PhoneNumber, req.Name, req.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookie.set(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, User: user, Token: token})
}

// HandleLogout handles POST /api/auth/logout (protected)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}
