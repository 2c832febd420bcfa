package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"userflow-backend/internal/auth"
	"userflow-backend/internal/models"
	"userflow-backend/internal/notify"
	"userflow-backend/internal/shared"
	"userflow-backend/internal/store"
)

type AuthHandler struct {
	store       store.Store
	issuer      *auth.TokenIssuer
	google      *auth.GoogleVerifier
	notifier    notify.Notifier
	frontendURL string
	validate    *validator.Validate
}

// NewAuthHandler wires the signup/login/OAuth surface. google may be nil when
// the OAuth flow is not configured.
func NewAuthHandler(s store.Store, issuer *auth.TokenIssuer, google *auth.GoogleVerifier, notifier notify.Notifier, frontendURL string) *AuthHandler {
	return &AuthHandler{
		store:       s,
		issuer:      issuer,
		google:      google,
		notifier:    notifier,
		frontendURL: frontendURL,
		validate:    validator.New(),
	}
}

// --- Request / Response types ---

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// --- POST /auth/signup ---

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, password and name are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.Create(r.Context(), &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Provider:     models.ProviderEmail,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists with this email"})
			return
		}
		log.Printf("Error creating user: %v", err)
		writeError(w, err)
		return
	}

	// Welcome email is best-effort — signup never fails on it.
	if h.notifier != nil {
		if err := h.notifier.SendWelcome(r.Context(), user.Email, user.Name); err != nil {
			log.Printf("Error sending welcome email: %v", err)
		}
	}

	token, err := h.issuer.Issue(user.ID, nil)
	if err != nil {
		log.Printf("Error signing token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "user created successfully",
		Token:   token,
		User:    user.Sanitized(),
	})
}

// --- POST /auth/login ---

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	user, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		log.Printf("Error finding user: %v", err)
		writeError(w, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := h.issuer.Issue(user.ID, map[string]any{"email": user.Email})
	if err != nil {
		log.Printf("Error signing token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "login successful",
		Token:   token,
		User:    user.Sanitized(),
	})
}

// --- GET /auth/google ---

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "google login is not configured"})
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		HttpOnly: true,
		Path:     "/",
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// --- GET /auth/google/callback ---

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "google login is not configured"})
		return
	}

	cookie, err := r.Cookie("oauthstate")
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid state"})
		return
	}

	claims, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("Error exchanging code: %v", err)
		writeError(w, err)
		return
	}

	user, err := h.findOrCreateGoogleUser(r, claims)
	if err != nil {
		log.Printf("Error finding/creating OAuth user: %v", err)
		writeError(w, err)
		return
	}

	token, err := h.issuer.Issue(user.ID, map[string]any{"email": user.Email})
	if err != nil {
		log.Printf("Error signing token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", h.frontendURL, token), http.StatusFound)
}

func (h *AuthHandler) findOrCreateGoogleUser(r *http.Request, claims *auth.GoogleClaims) (*models.User, error) {
	user, err := h.store.GetByEmail(r.Context(), claims.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// OAuth accounts get a random unusable password hash.
	hash, err := auth.RandomPasswordHash()
	if err != nil {
		return nil, err
	}
	return h.store.Create(r.Context(), &models.User{
		Email:        claims.Email,
		PasswordHash: hash,
		Name:         claims.Name,
		PhotoURL:     claims.Picture,
		Provider:     models.ProviderGoogle,
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps the error taxonomy to HTTP statuses with generic messages.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, shared.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict"})
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, shared.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
	case errors.Is(err, shared.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream service unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
