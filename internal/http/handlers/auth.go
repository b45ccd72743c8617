package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopgrid/server/internal/auth"
	"github.com/shopgrid/server/internal/middleware"
	"github.com/shopgrid/server/internal/model"
	"github.com/shopgrid/server/internal/repo"
)

// AuthHandler handles OTP issuance, verification, profile, and logout endpoints
type AuthHandler struct {
	issuer   *auth.Issuer
	service  *auth.Service
	users    repo.UserRepo
	validate *validator.Validate
	devMode  bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	issuer *auth.Issuer,
	service *auth.Service,
	users repo.UserRepo,
	validate *validator.Validate,
	devMode bool,
) *AuthHandler {
	return &AuthHandler{
		issuer:   issuer,
		service:  service,
		users:    users,
		validate: validate,
		devMode:  devMode,
	}
}

// sendOTPRequest is the request body for POST /auth/send-otp
type sendOTPRequest struct {
	CountryCode string `json:"country_code" validate:"required,max=6"`
	Mobile      string `json:"mobile" validate:"required,numeric,min=6,max=15"`
	Purpose     string `json:"purpose" validate:"required,max=32"`
}

// otpData is the data payload for send-otp responses. OTP is populated only
// in dev mode.
type otpData struct {
	Mobile    string `json:"mobile"`
	OTP       string `json:"otp,omitempty"`
	ExpiresIn int    `json:"expires_in"`
	Purpose   string `json:"purpose"`
}

// verifyOTPRequest is the request body for POST /auth/verify-otp
type verifyOTPRequest struct {
	CountryCode    string `json:"country_code" validate:"required,max=6"`
	Mobile         string `json:"mobile" validate:"required,numeric,min=6,max=15"`
	OTP            string `json:"otp" validate:"required"`
	DeviceID       string `json:"device_id" validate:"omitempty,max=128"`
	DevicePlatform string `json:"device_platform" validate:"omitempty,max=32"`
	DeviceDetails  string `json:"device_details" validate:"omitempty,max=512"`
}

// verifiedData is the data payload for verify-otp responses
type verifiedData struct {
	UserID      int64   `json:"user_id"`
	Name        *string `json:"name"`
	Mobile      string  `json:"mobile"`
	Email       *string `json:"email"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"`
}

// profileData is the data payload for GET /me and PUT /me
type profileData struct {
	UserID int64   `json:"user_id"`
	Name   *string `json:"name"`
	Mobile string  `json:"mobile"`
	Email  *string `json:"email"`
}

func (h *AuthHandler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

// HandleSendOTP handles POST /auth/send-otp
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity := auth.Identity{CountryCode: strings.TrimSpace(req.CountryCode), Mobile: strings.TrimSpace(req.Mobile)}

	issued, err := h.issuer.Issue(r.Context(), identity, req.Purpose)
	if err != nil {
		var rateLimited *auth.RateLimitedError
		if errors.As(err, &rateLimited) {
			respondError(w, http.StatusTooManyRequests,
				fmt.Sprintf("OTP request limit reached. Remaining: %d", rateLimited.Remaining))
			return
		}
		log.Printf("send-otp failed for %s: %v", maskMobile(req.Mobile), err)
		respondError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	data := otpData{
		Mobile:    req.Mobile,
		ExpiresIn: int(issued.TTL.Seconds()),
		Purpose:   req.Purpose,
	}
	if h.devMode {
		data.OTP = issued.Code
	}

	respondSuccess(w, http.StatusOK,
		fmt.Sprintf("OTP sent successfully to %s.", req.Mobile), data)
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity := auth.Identity{CountryCode: strings.TrimSpace(req.CountryCode), Mobile: strings.TrimSpace(req.Mobile)}
	device := auth.DeviceInfo{
		DeviceID:       req.DeviceID,
		DevicePlatform: req.DevicePlatform,
		DeviceDetails:  req.DeviceDetails,
		IPAddress:      getClientIP(r),
		UserAgent:      r.UserAgent(),
	}

	grant, err := h.service.Verify(r.Context(), identity, strings.TrimSpace(req.OTP), device)
	if err != nil {
		// Not-found and mismatch are indistinguishable to the caller.
		if errors.Is(err, auth.ErrOTPNotFound) || errors.Is(err, auth.ErrOTPMismatch) {
			log.Printf("verify-otp rejected for %s: %v", maskMobile(req.Mobile), err)
			respondError(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		log.Printf("verify-otp failed for %s: %v", maskMobile(req.Mobile), err)
		respondError(w, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	data := verifiedData{
		UserID:      grant.User.ID,
		Name:        grant.User.Name,
		Mobile:      grant.User.Mobile,
		Email:       grant.User.Email,
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		ExpiresIn:   grant.ExpiresIn,
	}

	respondSuccess(w, http.StatusOK, "OTP verified successfully.", data)
}

// HandleLogout handles POST /auth/logout (protected). Deactivates the device
// session referenced by the presented token.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		log.Printf("logout failed for session %d: %v", sessionID, err)
		respondError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	respondSuccess(w, http.StatusOK, "Logged out successfully.", nil)
}

// HandleMe handles GET /me (protected)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	respondSuccess(w, http.StatusOK, "Profile fetched successfully.", profileFor(user))
}

// updateProfileRequest is the request body for PUT /me
type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=128"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// HandleUpdateProfile handles PUT /me (protected)
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateProfileRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		log.Printf("profile update failed for user %d: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondSuccess(w, http.StatusOK, "Profile updated successfully.", profileFor(&updated))
}

func profileFor(user *model.User) profileData {
	return profileData{
		UserID: user.ID,
		Name:   user.Name,
		Mobile: user.Mobile,
		Email:  user.Email,
	}
}
