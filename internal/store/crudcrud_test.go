package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
)

// fakeCrudCrud mimics the hosted store: no query support, no uniqueness
// enforcement, PUT replaces the whole document.
type fakeCrudCrud struct {
	mu     sync.Mutex
	nextID int
	docs   map[string]map[string]any
}

func newFakeCrudCrud() *fakeCrudCrud {
	return &fakeCrudCrud{docs: make(map[string]map[string]any)}
}

func (f *fakeCrudCrud) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// paths look like /<api-key>/users[/<id>]
		require.GreaterOrEqual(t, len(parts), 2)
		var id string
		if len(parts) == 3 {
			id = parts[2]
		}

		switch {
		case r.Method == http.MethodPost:
			var doc map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			f.nextID++
			docID := fmt.Sprintf("cc-%d", f.nextID)
			doc["_id"] = docID
			f.docs[docID] = doc
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(doc)
		case r.Method == http.MethodGet && id == "":
			all := make([]map[string]any, 0, len(f.docs))
			for _, d := range f.docs {
				all = append(all, d)
			}
			_ = json.NewEncoder(w).Encode(all)
		case r.Method == http.MethodGet:
			doc, ok := f.docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(doc)
		case r.Method == http.MethodPut:
			if _, ok := f.docs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var doc map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			require.NotContains(t, doc, "_id")
			doc["_id"] = id
			f.docs[id] = doc
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			if _, ok := f.docs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.docs, id)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestCrudCrudStore(t *testing.T) (*CrudCrudStore, *fakeCrudCrud) {
	fake := newFakeCrudCrud()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewCrudCrudStore(srv.URL, "test-key"), fake
}

func TestCrudCrudCreateAndLookupByEmail(t *testing.T) {
	s, _ := newTestCrudCrudStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &models.User{Email: "a@b.com", Name: "A", PasswordHash: "h", Provider: models.ProviderEmail})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// lookup-by-email is a full fetch plus linear scan upstream
	found, err := s.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "A", found.Name)
	require.Equal(t, "h", found.PasswordHash)
}

func TestCrudCrudCreateDuplicateEmailConflicts(t *testing.T) {
	s, fake := newTestCrudCrudStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, &models.User{Email: "a@b.com", Name: "A"})
	require.NoError(t, err)

	_, err = s.Create(ctx, &models.User{Email: "a@b.com", Name: "B"})
	require.True(t, errors.Is(err, shared.ErrConflict))
	require.Len(t, fake.docs, 1)
}

func TestCrudCrudUpdateReadMergeWrite(t *testing.T) {
	s, _ := newTestCrudCrudStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &models.User{Email: "a@b.com", Name: "A", City: "Pune"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, models.UserPatch{City: strPtr("X")})
	require.NoError(t, err)
	require.Equal(t, "X", updated.City)
	require.Equal(t, "A", updated.Name)

	reread, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "X", reread.City)
	require.Equal(t, "A", reread.Name)
}

func TestCrudCrudNotFoundMapping(t *testing.T) {
	s, _ := newTestCrudCrudStore(t)
	ctx := context.Background()

	_, err := s.GetByID(ctx, "missing")
	require.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = s.Update(ctx, "missing", models.UserPatch{Name: strPtr("x")})
	require.True(t, errors.Is(err, shared.ErrNotFound))

	require.True(t, errors.Is(s.Delete(ctx, "missing"), shared.ErrNotFound))
}

func TestCrudCrudUpstreamFailureMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := NewCrudCrudStore(srv.URL, "test-key")
	_, err := s.List(context.Background())
	require.True(t, errors.Is(err, shared.ErrUpstream))
}

func TestCrudCrudForwarderPostsSanitizedRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/test-key/profiles"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	f := NewCrudCrudForwarder(srv.URL, "test-key")
	err := f.Forward(context.Background(), models.User{ID: "u1", Email: "a@b.com", PasswordHash: "secret", Name: "A"})
	require.NoError(t, err)
	require.Equal(t, "a@b.com", got["email"])
	require.NotContains(t, got, "passwordHash")
	require.NotContains(t, got, "_id")
}

func TestCrudCrudForwarderSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	f := NewCrudCrudForwarder(srv.URL, "test-key")
	err := f.Forward(context.Background(), models.User{Email: "a@b.com"})
	require.True(t, errors.Is(err, shared.ErrUpstream))
}
