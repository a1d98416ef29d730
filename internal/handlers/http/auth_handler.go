package http

import (
	"net/http"
	"strings"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/errors"
	"socialdeck/pkg/password"
	"socialdeck/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	verifier       ports.IdentityVerifier
	accounts       ports.AccountRepository
	accessTokenTTL time.Duration
}

func NewAuthHandler(verifier ports.IdentityVerifier, accounts ports.AccountRepository, accessTokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		verifier:       verifier,
		accounts:       accounts,
		accessTokenTTL: accessTokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/signin", h.SignIn)
		api.POST("/refresh", h.Refresh)
	}
}

// RegisterRequest deliberately has no team field: team membership is
// granted only through the team invitation flow, never self-asserted.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,max=254"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	if _, err := h.accounts.GetByEmail(c.Request.Context(), req.Email); err == nil {
		c.Error(errors.NewConflictError("email already registered"))
		return
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		c.Error(errors.NewInternalError("failed to hash password"))
		return
	}

	account := &domain.Account{
		ID:           domain.UserID(uuid.New().String()),
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := h.accounts.Create(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to create account"))
		return
	}

	h.respondWithTokens(c, http.StatusCreated, account)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	account, err := h.accounts.GetByEmail(c.Request.Context(), req.Email)
	// Same response whether the account is missing or the password is
	// wrong, so sign-in cannot be used to probe for registered emails.
	if err != nil || !password.Check(req.Password, account.PasswordHash) {
		c.Error(errors.NewUnauthorizedError("invalid credentials"))
		return
	}
	if !account.Active {
		c.Error(errors.NewUnauthorizedError("account deactivated"))
		return
	}

	h.respondWithTokens(c, http.StatusOK, account)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	principal, err := h.verifier.Verify(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.Error(errors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	accessToken, err := h.verifier.GenerateToken(principal.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, account *domain.Account) {
	accessToken, err := h.verifier.GenerateToken(account.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token"))
		return
	}

	refreshToken, err := h.verifier.GenerateRefreshToken(account.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate refresh token"))
		return
	}

	c.JSON(status, gin.H{
		"user_id":       account.ID,
		"email":         account.Email,
		"role":          account.Role,
		"team_id":       account.TeamID,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	})
}
