package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
)

// CrudCrudStore implements Store against a crudcrud-style hosted REST
// collection: plain POST/GET/PUT/DELETE over JSON, scoped by a single shared
// API key, no server-side query support. Email lookup is therefore a
// fetch-all-then-linear-scan, O(n) per call. Uniqueness is not enforced
// upstream either, so Create pre-checks the email itself.
type CrudCrudStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewCrudCrudStore builds the adapter for the "users" collection under the
// given API key.
func NewCrudCrudStore(baseURL, apiKey string) *CrudCrudStore {
	return &CrudCrudStore{
		baseURL: fmt.Sprintf("%s/%s/users", baseURL, apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// crudUser is the wire shape. The password hash needs an explicit tag here
// because models.User excludes it from JSON.
type crudUser struct {
	ID           string         `json:"_id,omitempty"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash,omitempty"`
	Name         string         `json:"name"`
	PhoneNumber  string         `json:"phoneNumber,omitempty"`
	City         string         `json:"city,omitempty"`
	Pincode      string         `json:"pincode,omitempty"`
	PhotoURL     string         `json:"photoURL,omitempty"`
	Provider     string         `json:"provider"`
	Profile      models.Profile `json:"profile"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func toWire(u models.User) crudUser {
	return crudUser{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		PhoneNumber:  u.PhoneNumber,
		City:         u.City,
		Pincode:      u.Pincode,
		PhotoURL:     u.PhotoURL,
		Provider:     u.Provider,
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c crudUser) toModel() models.User {
	return models.User{
		ID:           c.ID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Name:         c.Name,
		PhoneNumber:  c.PhoneNumber,
		City:         c.City,
		Pincode:      c.Pincode,
		PhotoURL:     c.PhotoURL,
		Provider:     c.Provider,
		Profile:      c.Profile,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (s *CrudCrudStore) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, shared.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: record store returned status %d", shared.ErrUpstream, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *CrudCrudStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	// The hosted store accepts anything, so duplicate emails must be caught
	// here before the insert.
	if _, err := s.GetByEmail(ctx, user.Email); err == nil {
		return nil, shared.ErrConflict
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	wire := toWire(*user)
	wire.ID = ""
	wire.CreatedAt = now
	wire.UpdatedAt = now

	data, err := s.do(ctx, http.MethodPost, s.baseURL, wire)
	if err != nil {
		return nil, err
	}
	var created crudUser
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("%w: decode create response: %v", shared.ErrUpstream, err)
	}
	out := created.toModel()
	return &out, nil
}

func (s *CrudCrudStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	data, err := s.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var wire crudUser
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", shared.ErrUpstream, err)
	}
	out := wire.toModel()
	return &out, nil
}

func (s *CrudCrudStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *CrudCrudStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	// PUT replaces the whole document, so read-merge-write.
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)
	current.UpdatedAt = time.Now().UTC()

	wire := toWire(*current)
	wire.ID = "" // the hosted store rejects _id in PUT bodies
	if _, err := s.do(ctx, http.MethodPut, fmt.Sprintf("%s/%s", s.baseURL, id), wire); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *CrudCrudStore) Delete(ctx context.Context, id string) error {
	_, err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", s.baseURL, id), nil)
	return err
}

func (s *CrudCrudStore) List(ctx context.Context) ([]models.User, error) {
	data, err := s.do(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return nil, err
	}
	var wires []crudUser
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("%w: decode user list: %v", shared.ErrUpstream, err)
	}
	users := make([]models.User, 0, len(wires))
	for _, w := range wires {
		users = append(users, w.toModel())
	}
	return users, nil
}

// CrudCrudForwarder pushes merged records to a secondary hosted collection
// ("profiles") for synchronization. Callers treat failures as log-only.
type CrudCrudForwarder struct {
	endpoint   string
	httpClient *http.Client
}

func NewCrudCrudForwarder(baseURL, apiKey string) *CrudCrudForwarder {
	return &CrudCrudForwarder{
		endpoint: fmt.Sprintf("%s/%s/profiles", baseURL, apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *CrudCrudForwarder) Forward(ctx context.Context, user models.User) error {
	wire := toWire(user.Sanitized())
	wire.ID = ""
	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: profile sync returned status %d", shared.ErrUpstream, resp.StatusCode)
	}
	return nil
}
