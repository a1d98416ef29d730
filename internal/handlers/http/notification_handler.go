package http

import (
	"net/http"
	"strconv"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notifications ports.NotificationRepository
	accounts      ports.AccountRepository
	access        ports.AccessResolver
	verifier      ports.IdentityVerifier
	dispatcher    ports.Dispatcher
}

func NewNotificationHandler(
	notifications ports.NotificationRepository,
	accounts ports.AccountRepository,
	access ports.AccessResolver,
	verifier ports.IdentityVerifier,
	dispatcher ports.Dispatcher,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		accounts:      accounts,
		access:        access,
		verifier:      verifier,
		dispatcher:    dispatcher,
	}
}

func (h *NotificationHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/notifications")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.GET("", h.List)
		api.POST("", h.Create)
		api.POST("/:id/read", h.MarkRead)
	}
}

type CreateNotificationRequest struct {
	UserID  string `json:"user_id" binding:"max=100"`
	Type    string `json:"type" binding:"required,max=50"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"max=2000"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	unreadOnly := c.Query("unread") == "true"
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.Error(errors.NewInvalidInputError("limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	visible, err := h.notifications.ListForUser(c.Request.Context(), principal.ID, unreadOnly, limit)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list notifications"))
		return
	}

	out := make([]gin.H, 0, len(visible))
	for _, n := range visible {
		out = append(out, notificationResponse(n))
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out, "count": len(out)})
}

// Create delivers a notification to a single user, or to every connected
// client when no user is named. Only admins can send either kind.
func (h *NotificationHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal.Role != domain.RoleAdmin {
		c.Error(errors.NewForbiddenError("only admins can send notifications"))
		return
	}

	var req CreateNotificationRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	notification := &domain.Notification{
		ID:        uuid.New().String(),
		Type:      domain.NotificationType(req.Type),
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}

	if req.UserID == "" {
		h.dispatcher.Dispatch(
			domain.Event{Type: "notification:new", Data: notificationResponse(notification)},
			domain.NotificationsScope(),
		)
		c.JSON(http.StatusCreated, gin.H{"broadcast": true})
		return
	}

	target, err := h.accounts.GetByID(c.Request.Context(), domain.UserID(req.UserID))
	if err != nil {
		c.Error(errors.NewNotFoundError("user"))
		return
	}

	notification.OwnerUserID = target.ID
	notification.OwnerTeamID = target.TeamID
	if err := h.notifications.Create(c.Request.Context(), notification); err != nil {
		c.Error(errors.NewInternalError("failed to create notification"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "notification:new", Data: notificationResponse(notification)},
		domain.UserScope(target.ID),
	)
	c.JSON(http.StatusCreated, notificationResponse(notification))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	notification, err := h.notifications.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(errors.NewNotFoundError("notification"))
		return
	}
	if err := h.access.RequireWrite(principal, notification); err != nil {
		c.Error(err)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), notification.ID); err != nil {
		c.Error(errors.NewInternalError("failed to mark notification read"))
		return
	}

	notification.Read = true
	c.JSON(http.StatusOK, notificationResponse(notification))
}

func notificationResponse(n *domain.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"read":       n.Read,
		"user_id":    n.OwnerUserID,
		"created_at": n.CreatedAt,
	}
}
