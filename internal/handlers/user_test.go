package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"userflow-backend/internal/auth"
	"userflow-backend/internal/handlers"
	"userflow-backend/internal/middleware"
	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
	"userflow-backend/internal/store"
	"userflow-backend/internal/workflow"
)

type stubOrchestrator struct {
	started  []workflow.ProfileUpdatePayload
	runIDs   []string
	startErr error
	result   []byte
	awaitErr error
}

func (s *stubOrchestrator) StartProfileUpdate(ctx context.Context, runID string, payload workflow.ProfileUpdatePayload) (workflow.RunHandle, error) {
	if s.startErr != nil {
		return workflow.RunHandle{}, s.startErr
	}
	s.started = append(s.started, payload)
	s.runIDs = append(s.runIDs, runID)
	return workflow.RunHandle{ID: runID, Queue: "user-profile"}, nil
}

func (s *stubOrchestrator) AwaitResult(ctx context.Context, handle workflow.RunHandle) ([]byte, error) {
	if s.awaitErr != nil {
		return nil, s.awaitErr
	}
	return s.result, nil
}

type userAPI struct {
	router *chi.Mux
	store  *store.MemoryStore
	orch   *stubOrchestrator
	issuer *auth.TokenIssuer
}

// newUserAPI wires the protected routes the way cmd/server does, real JWT
// middleware included.
func newUserAPI(t *testing.T) *userAPI {
	t.Helper()
	s := store.NewMemoryStore()
	orch := &stubOrchestrator{}
	issuer := auth.NewTokenIssuer("test-secret", 24*time.Hour)
	h := handlers.NewUserHandler(s, orch)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(issuer))
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
	})
	return &userAPI{router: r, store: s, orch: orch, issuer: issuer}
}

func (a *userAPI) seedUser(t *testing.T) (*models.User, string) {
	t.Helper()
	user, err := a.store.Create(context.Background(), &models.User{
		Email:    "a@b.com",
		Name:     "A",
		City:     "Pune",
		Provider: models.ProviderEmail,
	})
	require.NoError(t, err)
	token, err := a.issuer.Issue(user.ID, nil)
	require.NoError(t, err)
	return user, token
}

func (a *userAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	a.router.ServeHTTP(res, req)
	return res
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newUserAPI(t)
	for _, path := range []string{"/users", "/profile"} {
		res := api.do(t, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusUnauthorized, res.Code, path)
	}
}

func TestGetProfileReturnsSanitizedUser(t *testing.T) {
	api := newUserAPI(t)
	user, token := api.seedUser(t)

	res := api.do(t, http.MethodGet, "/profile", token, "")
	require.Equal(t, http.StatusOK, res.Code)

	var out models.User
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, user.ID, out.ID)
	require.Equal(t, "a@b.com", out.Email)
}

func TestGetProfileWithTokenForDeletedUser(t *testing.T) {
	api := newUserAPI(t)
	user, token := api.seedUser(t)
	require.NoError(t, api.store.Delete(context.Background(), user.ID))

	res := api.do(t, http.MethodGet, "/profile", token, "")
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestUpdateProfileSchedulesRun(t *testing.T) {
	api := newUserAPI(t)
	user, token := api.seedUser(t)

	res := api.do(t, http.MethodPut, "/profile", token, `{"city":"X"}`)
	require.Equal(t, http.StatusAccepted, res.Code)

	var out map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.NotEmpty(t, out["run_id"])

	require.Len(t, api.orch.started, 1)
	require.Equal(t, user.ID, api.orch.started[0].UserID)
	require.Equal(t, "X", *api.orch.started[0].Patch.City)
	require.Contains(t, api.orch.runIDs[0], "profile-update-")
}

func TestUpdateProfileWaitReturnsRunResult(t *testing.T) {
	api := newUserAPI(t)
	_, token := api.seedUser(t)
	api.orch.result = []byte(`{"id":"u1","email":"a@b.com","city":"X"}`)

	res := api.do(t, http.MethodPut, "/profile?wait=true", token, `{"city":"X"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var out struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "X", out.User.City)
}

func TestUpdateProfileEmptyPatch(t *testing.T) {
	api := newUserAPI(t)
	_, token := api.seedUser(t)

	res := api.do(t, http.MethodPut, "/profile", token, `{}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Empty(t, api.orch.started)
}

func TestUpdateProfileDuplicateActiveRun(t *testing.T) {
	api := newUserAPI(t)
	_, token := api.seedUser(t)
	api.orch.startErr = fmt.Errorf("%w: run already active", shared.ErrConflict)

	res := api.do(t, http.MethodPut, "/profile", token, `{"city":"X"}`)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestUpdateProfileRunFailureSurfacesGenerically(t *testing.T) {
	api := newUserAPI(t)
	_, token := api.seedUser(t)
	api.orch.awaitErr = errors.New("run failed: activity timed out")

	res := api.do(t, http.MethodPut, "/profile?wait=true", token, `{"city":"X"}`)
	require.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestUserCRUD(t *testing.T) {
	api := newUserAPI(t)
	user, token := api.seedUser(t)

	res := api.do(t, http.MethodGet, "/users", token, "")
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.User
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)

	res = api.do(t, http.MethodGet, "/users/"+user.ID, token, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do(t, http.MethodGet, "/users/ghost", token, "")
	require.Equal(t, http.StatusNotFound, res.Code)

	res = api.do(t, http.MethodDelete, "/users/"+user.ID, token, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do(t, http.MethodDelete, "/users/"+user.ID, token, "")
	require.Equal(t, http.StatusNotFound, res.Code)
}
