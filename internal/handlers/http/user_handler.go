package http

import (
	"net/http"
	"strings"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/pkg/errors"
	"socialdeck/pkg/password"
	"socialdeck/pkg/validation"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts ports.AccountRepository
	verifier ports.IdentityVerifier
}

func NewUserHandler(accounts ports.AccountRepository, verifier ports.IdentityVerifier) *UserHandler {
	return &UserHandler{accounts: accounts, verifier: verifier}
}

func (h *UserHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/users")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.GET("/me", h.Me)
		api.PATCH("/me", h.UpdateMe)
		api.POST("/me/password", h.ChangePassword)
	}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128"`
	NewPassword     string `json:"new_password" binding:"required,max=128"`
}

func (h *UserHandler) Me(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewNotFoundError("account"))
		return
	}
	c.JSON(http.StatusOK, profileResponse(account))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewNotFoundError("account"))
		return
	}

	if req.FirstName != nil {
		account.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		account.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := h.accounts.Update(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}
	c.JSON(http.StatusOK, profileResponse(account))
}

// ChangePassword requires the current password even on an authenticated
// request, so a stolen token alone cannot lock the owner out.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req ChangePasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewNotFoundError("account"))
		return
	}
	if !password.Check(req.CurrentPassword, account.PasswordHash) {
		c.Error(errors.NewUnauthorizedError("current password is incorrect"))
		return
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		c.Error(errors.NewInternalError("failed to hash password"))
		return
	}
	account.PasswordHash = hash

	if err := h.accounts.Update(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

func profileResponse(a *domain.Account) gin.H {
	return gin.H{
		"id":         a.ID,
		"email":      a.Email,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"role":       a.Role,
		"team_id":    a.TeamID,
		"created_at": a.CreatedAt,
	}
}
