package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/credential-auth/internal/api/http"
	"github.com/spec-kit/credential-auth/internal/api/http/handlers"
	"github.com/spec-kit/credential-auth/internal/auth"
	"github.com/spec-kit/credential-auth/internal/config"
	"github.com/spec-kit/credential-auth/internal/domain"
	"github.com/spec-kit/credential-auth/internal/events"
	"github.com/spec-kit/credential-auth/internal/observability"
	"github.com/spec-kit/credential-auth/internal/persistence"
	"github.com/spec-kit/credential-auth/internal/repository"
	"github.com/spec-kit/credential-auth/internal/service"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]domain.Account
	role     domain.Role
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrEmailTaken
		}
	}
	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = *account
	return nil
}

func (r *stubAccountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	role := r.role
	account.Role = &role
	return &account, nil
}

func (r *stubAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			role := r.role
			account.Role = &role
			return &account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubRoleRepo struct {
	role domain.Role
}

func (r *stubRoleRepo) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	if id != r.role.ID {
		return nil, pgx.ErrNoRows
	}
	role := r.role
	return &role, nil
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	return []domain.Role{r.role}, nil
}

type stubTokenStore struct {
	mu      sync.Mutex
	records map[string]int64
	digests map[string]string
}

func (s *stubTokenStore) Issue(_ context.Context, accountID int64) (string, *domain.AuthToken, error) {
	id, raw, digest, err := auth.MintToken()
	if err != nil {
		return "", nil, err
	}
	s.mu.Lock()
	s.records[id] = accountID
	s.digests[id] = digest
	s.mu.Unlock()
	return raw, &domain.AuthToken{ID: id, AccountID: accountID, IssuedAt: time.Now()}, nil
}

func (s *stubTokenStore) Resolve(_ context.Context, raw string) (int64, error) {
	id, secret, err := auth.SplitToken(raw)
	if err != nil {
		return 0, auth.ErrTokenNotFound
	}
	s.mu.Lock()
	accountID, ok := s.records[id]
	digest := s.digests[id]
	s.mu.Unlock()
	if !ok || !auth.DigestEqual(digest, secret) {
		return 0, auth.ErrTokenNotFound
	}
	return accountID, nil
}

func (s *stubTokenStore) Revoke(_ context.Context, raw string) error {
	id, _, err := auth.SplitToken(raw)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	delete(s.records, id)
	delete(s.digests, id)
	s.mu.Unlock()
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	role := domain.Role{ID: 1, Name: "user", Description: "Standard account"}
	accounts := &stubAccountRepo{accounts: map[int64]domain.Account{}, role: role}
	tokens := &stubTokenStore{records: map[string]int64{}, digests: map[string]string{}}

	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		AccountRepo: accounts,
		RoleRepo:    &stubRoleRepo{role: role},
		TokenStore:  tokens,
		Dispatcher:  events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), httptransport.MiddlewareConfig{})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: auth.NewMiddleware(authService),
	})

	return app
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp.StatusCode, env, string(raw)
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"id_rol":                1,
		"nombre":                "A",
		"apellido":              "B",
		"email":                 email,
		"password":              "secret123",
		"password_confirmation": "secret123",
	}
}

type authData struct {
	Usuario   map[string]any `json:"usuario"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
}

func TestRegisterLoginMeLogoutFlow(t *testing.T) {
	app := newTestApp(t)

	status, env, _ := doJSON(t, app, http.MethodPost, "/register", "", registerBody("a@x.com"))
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	assert.Equal(t, "Bearer", data.TokenType)
	assert.Equal(t, "a@x.com", data.Usuario["email"])
	assert.NotContains(t, data.Usuario, "password")
	assert.NotContains(t, data.Usuario, "password_hash")

	// wrong password
	status, env, _ = doJSON(t, app, http.MethodPost, "/login", "", map[string]any{
		"email": "a@x.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	// correct password
	status, env, _ = doJSON(t, app, http.MethodPost, "/login", "", map[string]any{
		"email": "a@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)

	// me with the fresh token
	status, env, _ = doJSON(t, app, http.MethodGet, "/me", data.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var usuario map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &usuario))
	assert.Equal(t, "a@x.com", usuario["email"])
	require.Contains(t, usuario, "role")
	role := usuario["role"].(map[string]any)
	assert.Equal(t, "user", role["name"])

	// logout, then me must fail
	status, env, _ = doJSON(t, app, http.MethodPost, "/logout", data.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, _, _ = doJSON(t, app, http.MethodGet, "/me", data.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogin_EnumerationResistantResponses(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := doJSON(t, app, http.MethodPost, "/register", "", registerBody("a@x.com"))
	require.Equal(t, http.StatusCreated, status)

	unknownStatus, _, unknownBody := doJSON(t, app, http.MethodPost, "/login", "", map[string]any{
		"email": "nobody@x.com", "password": "secret123",
	})
	wrongStatus, _, wrongBody := doJSON(t, app, http.MethodPost, "/login", "", map[string]any{
		"email": "a@x.com", "password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, unknownBody, wrongBody, "responses must be identical whether the email exists or not")
}

func TestRegister_ValidationFailures(t *testing.T) {
	app := newTestApp(t)

	body := registerBody("not-an-email")
	body["password_confirmation"] = "different9"
	delete(body, "nombre")

	status, env, _ := doJSON(t, app, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "nombre")
	assert.Contains(t, env.Errors, "password_confirmation")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := doJSON(t, app, http.MethodPost, "/register", "", registerBody("a@x.com"))
	require.Equal(t, http.StatusCreated, status)

	status, env, _ := doJSON(t, app, http.MethodPost, "/register", "", registerBody("a@x.com"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "email")
}

func TestRegister_ShortPassword(t *testing.T) {
	app := newTestApp(t)

	body := registerBody("a@x.com")
	body["password"] = "short"
	body["password_confirmation"] = "short"

	status, env, _ := doJSON(t, app, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "password")
}

func TestMe_MissingToken(t *testing.T) {
	app := newTestApp(t)

	status, env, _ := doJSON(t, app, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestMe_GarbageToken(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := doJSON(t, app, http.MethodGet, "/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
