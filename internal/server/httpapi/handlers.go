package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// AuthService is the slice of the user service the handlers need.
type AuthService interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, userName string, password string) (*services.AuthResult, error)
	TokenResolver
}

// --- request/response shapes ---

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type profileResponse struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        models.Role `json:"role"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type dashboardResponse struct {
	WelcomeMessage string      `json:"welcomeMessage"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	LastLogin      time.Time   `json:"lastLogin"`
	Status         string      `json:"status"`
}

// AuthHandler serves the credential endpoints: register, login, logout.
type AuthHandler struct {
	service AuthService
	logger  logging.Logger
}

func NewAuthHandler(service AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.Register(r.Context(), &services.RegisterRequest{
		UserName:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token:     result.Token,
		TokenType: result.TokenType,
		Username:  result.User.UserName,
		Email:     result.User.Email,
		Message:   "Registration successful",
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:     result.Token,
		TokenType: result.TokenType,
		Username:  result.User.UserName,
		Email:     result.User.Email,
		Message:   "Login successful",
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so there is
// nothing to revoke server-side; the client discards the token. A denylist
// keyed on the token ID claim is the documented follow-up if revocation
// ever becomes a requirement.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// writeAuthError maps service errors to responses. Registration failures
// name the colliding field; login failures stay deliberately vague.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	case errors.Is(err, common.ErrorUsernameExists), errors.Is(err, common.ErrorEmailExists):
		writeJSON(w, http.StatusConflict, messageResponse{Message: err.Error()})
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: common.ErrorInvalidCredentials.Error()})
	default:
		h.logger.Error(r.Context(), "auth request failed", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
	}
}

// UserHandler serves the protected resources. Both endpoints take the
// principal the auth middleware resolved; they never look it up themselves.
type UserHandler struct {
	logger logging.Logger
}

func NewUserHandler(logger logging.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// Profile handles GET /api/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := PrincipalFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:          user.ID,
		Username:    user.UserName,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}

// Dashboard handles GET /api/dashboard.
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := PrincipalFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		WelcomeMessage: fmt.Sprintf("Welcome to your dashboard, %s!", user.FirstName),
		Username:       user.UserName,
		Email:          user.Email,
		Role:           user.Role,
		LastLogin:      time.Now(),
		Status:         "Active",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
