package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroberts/authsvc/internal/auth"
	"github.com/nroberts/authsvc/internal/models"
	"github.com/nroberts/authsvc/internal/services"
)

type fakeAuthService struct {
	registerResult services.AuthResult
	registerErr    error

	loginResult services.AuthResult
	loginErr    error

	verifyUser models.User
	verifyErr  error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password string) (services.AuthResult, error) {
	return f.registerResult, f.registerErr
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (services.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) VerifyToken(ctx context.Context, token string) (models.User, error) {
	return f.verifyUser, f.verifyErr
}

func testUser() models.User {
	return models.User{
		ID:           "u1",
		Email:        "a@example.com",
		PasswordHash: "never-shown",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Parallel()

	ok := services.AuthResult{User: testUser().Public(), Token: "tok"}

	tests := []struct {
		name       string
		body       string
		service    *fakeAuthService
		wantStatus int
		wantError  string
	}{
		{"created", `{"email":"a@example.com","password":"pw12345"}`, &fakeAuthService{registerResult: ok}, http.StatusCreated, ""},
		{"invalid body", `{"email":`, &fakeAuthService{}, http.StatusBadRequest, "Invalid request body"},
		{"missing email", `{"password":"pw12345"}`, &fakeAuthService{}, http.StatusBadRequest, "Email and password are required"},
		{"missing password", `{"email":"a@example.com"}`, &fakeAuthService{}, http.StatusBadRequest, "Email and password are required"},
		{"duplicate email", `{"email":"a@example.com","password":"pw12345"}`, &fakeAuthService{registerErr: services.ErrEmailTaken}, http.StatusConflict, services.ErrEmailTaken.Error()},
		{"store broken", `{"email":"a@example.com","password":"pw12345"}`, &fakeAuthService{registerErr: assert.AnError}, http.StatusInternalServerError, "Failed to register user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			NewAuthHandler(tt.service).Register(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp["error"])
			}
		})
	}
}

func TestRegisterHandler_ResponseBody(t *testing.T) {
	t.Parallel()

	service := &fakeAuthService{
		registerResult: services.AuthResult{User: testUser().Public(), Token: "tok-123"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"email":"a@example.com","password":"pw12345"}`))
	rec := httptest.NewRecorder()

	NewAuthHandler(service).Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		User  models.PublicUser `json:"user"`
		Token string            `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.Equal(t, "tok-123", resp.Token)

	// The hash must never appear anywhere in a response.
	assert.NotContains(t, rec.Body.String(), "never-shown")
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	ok := services.AuthResult{User: testUser().Public(), Token: "tok"}

	tests := []struct {
		name       string
		body       string
		service    *fakeAuthService
		wantStatus int
		wantError  string
	}{
		{"ok", `{"email":"a@example.com","password":"pw12345"}`, &fakeAuthService{loginResult: ok}, http.StatusOK, ""},
		{"missing input", `{}`, &fakeAuthService{}, http.StatusBadRequest, "Email and password are required"},
		{"bad credentials", `{"email":"a@example.com","password":"nope"}`, &fakeAuthService{loginErr: services.ErrInvalidCredentials}, http.StatusUnauthorized, services.ErrInvalidCredentials.Error()},
		{"store broken", `{"email":"a@example.com","password":"pw12345"}`, &fakeAuthService{loginErr: assert.AnError}, http.StatusInternalServerError, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			NewAuthHandler(tt.service).Login(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp["error"])
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserKey, testUser()))
	rec := httptest.NewRecorder()

	NewAuthHandler(&fakeAuthService{}).GetMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp["user"].ID)
	assert.Equal(t, "a@example.com", resp["user"].Email)
	assert.NotContains(t, rec.Body.String(), "never-shown")
}

func TestGetMe_NoUserInContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()

	NewAuthHandler(&fakeAuthService{}).GetMe(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
