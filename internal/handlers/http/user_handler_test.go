package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/core/services"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/internal/infrastructure/repositories/memory"
	"socialdeck/pkg/password"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type userFixture struct {
	router   *gin.Engine
	accounts ports.AccountRepository
	verifier *services.AuthService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := password.Hash("secret123")
	require.NoError(t, err)

	accounts := memory.NewMemoryAccountRepository()
	require.NoError(t, accounts.Create(context.Background(), &domain.Account{
		ID:           "u1",
		Email:        "u1@example.com",
		FirstName:    "Dana",
		LastName:     "Park",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
	}))

	verifier := services.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour, accounts)
	handler := NewUserHandler(accounts, verifier)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	handler.SetupRoutes(router)

	return &userFixture{router: router, accounts: accounts, verifier: verifier}
}

func (f *userFixture) request(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := f.verifier.GenerateToken(domain.UserID(userID))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUserHandler_Me(t *testing.T) {
	f := newUserFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/users/me", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "u1", resp["id"])
	require.Equal(t, "u1@example.com", resp["email"])
	require.Equal(t, "Dana", resp["first_name"])
	require.NotContains(t, resp, "password_hash")
}

func TestUserHandler_UpdateMe(t *testing.T) {
	f := newUserFixture(t)

	w := f.request(t, http.MethodPatch, "/api/v1/users/me", "u1", gin.H{
		"first_name": "  Dee ",
	})
	require.Equal(t, http.StatusOK, w.Code)

	account, err := f.accounts.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Dee", account.FirstName)
	// Fields not named in the request stay untouched
	require.Equal(t, "Park", account.LastName)
}

func TestUserHandler_ChangePassword(t *testing.T) {
	f := newUserFixture(t)

	t.Run("wrong current password", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/users/me/password", "u1", gin.H{
			"current_password": "not-the-password",
			"new_password":     "fresh-secret",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("weak new password", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/users/me/password", "u1", gin.H{
			"current_password": "secret123",
			"new_password":     "abc",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("change takes effect", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/users/me/password", "u1", gin.H{
			"current_password": "secret123",
			"new_password":     "fresh-secret",
		})
		require.Equal(t, http.StatusOK, w.Code)

		account, err := f.accounts.GetByID(context.Background(), "u1")
		require.NoError(t, err)
		require.False(t, password.Check("secret123", account.PasswordHash))
		require.True(t, password.Check("fresh-secret", account.PasswordHash))
	})
}
