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

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type authFixture struct {
	router   *gin.Engine
	accounts ports.AccountRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := memory.NewMemoryAccountRepository()
	verifier := services.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour, accounts)
	handler := NewAuthHandler(verifier, accounts, 15*time.Minute)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	handler.SetupRoutes(router)

	return &authFixture{router: router, accounts: accounts}
}

func (f *authFixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_RegisterAndSignIn(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/v1/auth/register", gin.H{
		"email":    "User1@Example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	require.Equal(t, "user", resp["role"])
	// Email is normalized to lowercase
	require.Equal(t, "user1@example.com", resp["email"])

	// Sign in with the normalized email and the same password
	w = f.post(t, "/api/v1/auth/signin", gin.H{
		"email":    "user1@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("bad email", func(t *testing.T) {
		w := f.post(t, "/api/v1/auth/register", gin.H{
			"email":    "not-an-email",
			"password": "secret123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := f.post(t, "/api/v1/auth/register", gin.H{
			"email":    "u@example.com",
			"password": "abc",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		body := gin.H{"email": "dup@example.com", "password": "secret123"}
		w := f.post(t, "/api/v1/auth/register", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.post(t, "/api/v1/auth/register", body)
		require.Equal(t, http.StatusConflict, w.Code)
	})
}

// Team membership is granted only through the invitation flow. A team id
// smuggled into the registration body must not attach the account to that
// team, and must not open the team's resources to the new account.
func TestAuthHandler_RegisterIgnoresSelfAssertedTeam(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/v1/auth/register", gin.H{
		"email":    "newcomer@example.com",
		"password": "secret123",
		"team_id":  "victim-team",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	account, err := f.accounts.GetByEmail(context.Background(), "newcomer@example.com")
	require.NoError(t, err)
	require.Empty(t, account.TeamID, "registration must not store a client-supplied team")

	decision := services.NewAccessService().Authorize(
		account.Principal(),
		domain.Ownership{UserID: "victim-user", TeamID: "victim-team"},
		domain.IntentWrite,
	)
	require.False(t, decision.CanRead, "self-asserted team must not grant read over team resources")
	require.False(t, decision.CanWrite, "self-asserted team must not grant write over team resources")
}

// Wrong password and unknown email are indistinguishable, so sign-in cannot
// be used to probe which emails are registered.
func TestAuthHandler_SignInDoesNotLeakAccountExistence(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/v1/auth/register", gin.H{
		"email":    "known@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	wrongPassword := f.post(t, "/api/v1/auth/signin", gin.H{
		"email":    "known@example.com",
		"password": "wrong-password",
	})
	unknownEmail := f.post(t, "/api/v1/auth/signin", gin.H{
		"email":    "unknown@example.com",
		"password": "whatever123",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestAuthHandler_Refresh(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/v1/auth/register", gin.H{
		"email":    "u@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))

	w = f.post(t, "/api/v1/auth/refresh", gin.H{
		"refresh_token": registered["refresh_token"],
	})
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed["access_token"])

	w = f.post(t, "/api/v1/auth/refresh", gin.H{
		"refresh_token": "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
