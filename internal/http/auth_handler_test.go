package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"auth-api/internal/domain"
	"auth-api/internal/oauth"
	"auth-api/internal/service"
)

type mockUserRepo struct {
	usersByID     map[string]domain.User
	usersByEmail  map[string]string
	usersByGoogle map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:     make(map[string]domain.User),
		usersByEmail:  make(map[string]string),
		usersByGoogle: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	if user.GoogleID != "" {
		m.usersByGoogle[user.GoogleID] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) GetByGoogleID(_ context.Context, googleID string) (domain.User, error) {
	id, ok := m.usersByGoogle[googleID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) SetEmailVerified(_ context.Context, id string, verified bool) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsEmailVerified = verified
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) LinkGoogle(_ context.Context, id, googleID string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if user.GoogleID == "" {
		user.GoogleID = googleID
		user.IsEmailVerified = true
		m.usersByID[id] = user
		m.usersByGoogle[googleID] = id
	}
	return nil
}

type mockSender struct{}

func (mockSender) SendResetPasswordEmail(_ context.Context, _, _ string) error { return nil }
func (mockSender) SendVerificationEmail(_ context.Context, _, _ string) error  { return nil }

type testEnv struct {
	repo   *mockUserRepo
	tokens *service.TokenService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repo := newMockUserRepo()
	users := service.NewUserService(logger, repo)
	store := service.NewMemoryTokenStore()
	tokens := service.NewTokenService("secret", service.TokenTTLs{
		Access:  15 * time.Minute,
		Refresh: 30 * time.Minute,
	}, store)
	linker := service.NewIdentityLinker(logger, users)
	authSvc := service.NewAuthService(logger, users, tokens, store, linker, mockSender{})
	google := oauth.NewGoogleProvider("", "", "")
	handler := NewAuthHandler(logger, authSvc, users, google)

	return &testEnv{
		repo:   repo,
		tokens: tokens,
		router: NewRouter(logger, handler, tokens),
	}
}

func (e *testEnv) seedUser(t *testing.T, id, email, password string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := domain.User{
		ID:           id,
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_LoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "a@x.com", "secret12")

	rec := env.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret12"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		User   domain.User       `json:"user"`
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != "u1" || resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "a@x.com", "secret12")

	rec := env.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "a@x.com", "password": "wrongpass"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "incorrect email or password" {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestAuthHandler_RegisterAndConflict(t *testing.T) {
	env := newTestEnv(t)

	body := gin.H{"email": "new@x.com", "password": "secret123", "name": "New"}
	rec := env.do(t, http.MethodPost, "/v1/auth/register", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/register", body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", rec.Code)
	}
}

func TestAuthHandler_RegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/auth/register", gin.H{"email": "new@x.com", "password": "short"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_RefreshReplayRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1", "a@x.com", "secret12")

	pair, err := env.tokens.GenerateAuthTokens(user)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/auth/refresh-tokens", gin.H{"refresh_token": pair.RefreshToken}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh-tokens", gin.H{"refresh_token": pair.RefreshToken}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replay, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "please authenticate" {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestAuthHandler_LogoutStatusCodes(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1", "a@x.com", "secret12")

	pair, err := env.tokens.GenerateAuthTokens(user)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/auth/logout", gin.H{"refresh_token": pair.RefreshToken}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/logout", gin.H{"refresh_token": pair.RefreshToken}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for consumed token, got %d", rec.Code)
	}
}

func TestAuthHandler_VerifyEmailFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1", "a@x.com", "secret12")

	token, err := env.tokens.GenerateVerifyEmailToken(user)
	if err != nil {
		t.Fatalf("issue verify token: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/auth/verify-email?token="+token, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/verify-email?token="+token, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for consumed token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/verify-email", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", rec.Code)
	}
}

func TestAuthHandler_ResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1", "a@x.com", "secret12")

	token, err := env.tokens.GenerateResetPasswordToken(user)
	if err != nil {
		t.Fatalf("issue reset token: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/auth/reset-password?token="+token, gin.H{"password": "newsecret1"}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "a@x.com", "password": "newsecret1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login with new password, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/reset-password?token="+token, gin.H{"password": "another12"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for consumed token, got %d", rec.Code)
	}
}

func TestAuthHandler_SendVerificationEmailRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1", "a@x.com", "secret12")

	rec := env.do(t, http.MethodPost, "/v1/auth/send-verification-email", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	pair, err := env.tokens.GenerateAuthTokens(user)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}
	rec = env.do(t, http.MethodPost, "/v1/auth/send-verification-email", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_GoogleOAuthDisabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/auth/google", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when oauth not configured, got %d", rec.Code)
	}
}
