package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"userflow-backend/internal/middleware"
	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
	"userflow-backend/internal/store"
	"userflow-backend/internal/workflow"
)

// ProfileOrchestrator is the slice of the workflow orchestrator the profile
// endpoints drive.
type ProfileOrchestrator interface {
	StartProfileUpdate(ctx context.Context, runID string, payload workflow.ProfileUpdatePayload) (workflow.RunHandle, error)
	AwaitResult(ctx context.Context, handle workflow.RunHandle) ([]byte, error)
}

type UserHandler struct {
	store        store.Store
	orchestrator ProfileOrchestrator
}

func NewUserHandler(s store.Store, orchestrator ProfileOrchestrator) *UserHandler {
	return &UserHandler{
		store:        s,
		orchestrator: orchestrator,
	}
}

// --- GET /users ---

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		writeError(w, err)
		return
	}
	sanitized := make([]models.User, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, u.Sanitized())
	}
	writeJSON(w, http.StatusOK, sanitized)
}

// --- GET /users/{id} ---

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("Error finding user: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// --- DELETE /users/{id} ---

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("Error deleting user: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

// --- GET /profile ---

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	user, err := h.store.GetByID(r.Context(), userID)
	if err != nil {
		// The token outlived the account: treat as no longer authorized.
		if errors.Is(err, shared.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		log.Printf("Error finding user: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// --- PUT /profile ---
// Starts a durable profile-update run. The handler does not write the record
// itself; the activity owns the merge so the engine can redeliver it safely.
// With ?wait=true the call blocks until the run's terminal result.

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var patch models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if patch.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields to update"})
		return
	}

	runID := workflow.NewRunID("profile-update")
	handle, err := h.orchestrator.StartProfileUpdate(r.Context(), runID, workflow.ProfileUpdatePayload{
		UserID: userID,
		Patch:  patch,
	})
	if err != nil {
		log.Printf("Error starting profile update run: %v", err)
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "profile update scheduled",
			"run_id":  handle.ID,
		})
		return
	}

	result, err := h.orchestrator.AwaitResult(r.Context(), handle)
	if err != nil {
		log.Printf("Error awaiting run %s: %v", handle.ID, err)
		writeError(w, err)
		return
	}

	var user models.User
	if err := json.Unmarshal(result, &user); err != nil {
		log.Printf("Error decoding run result: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated successfully",
		"user":    user,
	})
}
