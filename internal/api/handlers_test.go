package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinview/exchange/internal/auth"
	"github.com/coinview/exchange/internal/models"
)

type memoryUserStore struct {
	users       map[string]*models.User
	sawDeadline bool
}

func (m *memoryUserStore) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	if _, ok := m.users[email]; ok {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	now := time.Now().UTC()
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.users[email] = u
	return u, nil
}

func (m *memoryUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	_, m.sawDeadline = ctx.Deadline()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type authEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		User struct {
			ID        string    `json:"id"`
			Email     string    `json:"email"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"user"`
		Token string `json:"token"`
	} `json:"data"`
	Error string `json:"error"`
}

func newTestRouter() (*memoryUserStore, *auth.TokenService, http.Handler) {
	store := &memoryUserStore{users: make(map[string]*models.User)}
	tokens := auth.NewTokenService("test-secret", auth.TokenTTL)
	service := auth.NewService(store, auth.NewBcryptHasher(), tokens, zerolog.Nop())
	return store, tokens, NewRouter(NewHandler(service, zerolog.Nop()))
}

func doJSON(t *testing.T, router http.Handler, path string, body map[string]string) (*httptest.ResponseRecorder, authEnvelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp authEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

func TestHandler_Signup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, tokens, router := newTestRouter()

		w, resp := doJSON(t, router, "/auth/signup", map[string]string{
			"email":    "a@b.com",
			"password": "secret1",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "a@b.com", resp.Data.User.Email)

		// The token decodes to a subject equal to the new user's id.
		claims, err := tokens.Verify(resp.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, store.users["a@b.com"].ID.String(), claims.Subject)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		store, _, router := newTestRouter()

		w, resp := doJSON(t, router, "/auth/signup", map[string]string{
			"email":    "a@b.com",
			"password": "12345",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, "password must be at least 6 characters", resp.Error)
		assert.Empty(t, store.users)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		_, _, router := newTestRouter()

		w, resp := doJSON(t, router, "/auth/signup", map[string]string{
			"email":    "not-an-email",
			"password": "secret1",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid email", resp.Error)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store, _, router := newTestRouter()

		w, _ := doJSON(t, router, "/auth/signup", map[string]string{
			"email": "a@b.com", "password": "secret1",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w, resp := doJSON(t, router, "/auth/signup", map[string]string{
			"email": "a@b.com", "password": "secret2",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "user already exists", resp.Error)
		assert.Len(t, store.users, 1)
	})

	t.Run("RequestContextIsBounded", func(t *testing.T) {
		// Every storage call runs under a deadline so pool acquisition can
		// never block indefinitely.
		store, _, router := newTestRouter()

		w, _ := doJSON(t, router, "/auth/signup", map[string]string{
			"email": "a@b.com", "password": "secret1",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, store.sawDeadline)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		_, _, router := newTestRouter()

		req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Signin(t *testing.T) {
	_, tokens, router := newTestRouter()

	w, _ := doJSON(t, router, "/auth/signup", map[string]string{
		"email": "a@b.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Success", func(t *testing.T) {
		w, resp := doJSON(t, router, "/auth/signin", map[string]string{
			"email": "a@b.com", "password": "secret1",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "a@b.com", resp.Data.User.Email)

		claims, err := tokens.Verify(resp.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.Data.User.ID, claims.Subject)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w, resp := doJSON(t, router, "/auth/signin", map[string]string{
			"email": "a@b.com", "password": "wrongpass",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, "invalid credentials", resp.Error)
	})

	t.Run("UnknownEmailSameMessage", func(t *testing.T) {
		w, resp := doJSON(t, router, "/auth/signin", map[string]string{
			"email": "nobody@b.com", "password": "secret1",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		// Same status and message as a wrong password: account existence
		// is not observable from the outside.
		assert.Equal(t, "invalid credentials", resp.Error)
	})
}

func TestHandler_Health(t *testing.T) {
	_, _, router := newTestRouter()

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
