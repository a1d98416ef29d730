package http

import (
	"net/http"
	"strings"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/pkg/errors"
	"socialdeck/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	posts      ports.PostRepository
	access     ports.AccessResolver
	verifier   ports.IdentityVerifier
	dispatcher ports.Dispatcher

	// When true, mutations on personal posts are echoed to the owner's
	// user scope. Team posts always go to the team scope.
	echoPersonalEvents bool
}

func NewPostHandler(
	posts ports.PostRepository,
	access ports.AccessResolver,
	verifier ports.IdentityVerifier,
	dispatcher ports.Dispatcher,
	echoPersonalEvents bool,
) *PostHandler {
	return &PostHandler{
		posts:              posts,
		access:             access,
		verifier:           verifier,
		dispatcher:         dispatcher,
		echoPersonalEvents: echoPersonalEvents,
	}
}

func (h *PostHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/posts")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.POST("", h.Create)
		api.GET("", h.List)
		api.GET("/:id", h.Get)
		api.PUT("/:id", h.Update)
		api.DELETE("/:id", h.Delete)
		api.POST("/:id/publish", h.Publish)
	}
}

type CreatePostRequest struct {
	Content     string   `json:"content" binding:"required"`
	Platforms   []string `json:"platforms" binding:"required,min=1"`
	CampaignID  string   `json:"campaign_id"`
	TeamOwned   bool     `json:"team_owned"`
	ScheduledAt *string  `json:"scheduled_at"`
}

type UpdatePostRequest struct {
	Content     *string  `json:"content"`
	Platforms   []string `json:"platforms"`
	ScheduledAt *string  `json:"scheduled_at"`
}

func (h *PostHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req CreatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := validation.ValidatePostContent(req.Content); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		c.Error(err)
		return
	}

	var teamID domain.TeamID
	if req.TeamOwned {
		if !principal.HasTeam() {
			c.Error(errors.NewInvalidInputError("cannot create a team post without a team"))
			return
		}
		teamID = principal.TeamID
	}

	status := domain.PostDraft
	var scheduledAt *time.Time
	if req.ScheduledAt != nil {
		at, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			c.Error(errors.NewInvalidInputError("scheduled_at must be RFC3339"))
			return
		}
		scheduledAt = &at
		status = domain.PostScheduled
	}

	now := time.Now()
	post := &domain.Post{
		ID:          uuid.New().String(),
		Content:     strings.TrimSpace(req.Content),
		Platforms:   platforms,
		Status:      status,
		CampaignID:  req.CampaignID,
		OwnerUserID: principal.ID,
		OwnerTeamID: teamID,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		c.Error(errors.NewInternalError("failed to create post"))
		return
	}

	h.dispatchPostEvent("post:created", post)
	c.JSON(http.StatusCreated, postResponse(post))
}

func (h *PostHandler) List(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	opts := ports.PostListOptions{
		Status:   domain.PostStatus(c.Query("status")),
		Platform: domain.Platform(c.Query("platform")),
		Limit:    50,
	}

	visible, err := h.posts.List(c.Request.Context(), h.access.ListFilterFor(principal), opts)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list posts"))
		return
	}

	out := make([]gin.H, 0, len(visible))
	for _, post := range visible {
		out = append(out, postResponse(post))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out, "count": len(out)})
}

func (h *PostHandler) Get(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	post, err := h.loadReadable(c, principal)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, postResponse(post))
}

func (h *PostHandler) Update(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	post, err := h.loadWritable(c, principal)
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if req.Content != nil {
		if err := validation.ValidatePostContent(*req.Content); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
		post.Content = strings.TrimSpace(*req.Content)
	}
	if req.Platforms != nil {
		platforms, err := parsePlatforms(req.Platforms)
		if err != nil {
			c.Error(err)
			return
		}
		post.Platforms = platforms
	}
	if req.ScheduledAt != nil {
		at, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			c.Error(errors.NewInvalidInputError("scheduled_at must be RFC3339"))
			return
		}
		post.ScheduledAt = &at
		if post.Status == domain.PostDraft {
			post.Status = domain.PostScheduled
		}
	}
	post.UpdatedAt = time.Now()

	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		c.Error(errors.NewInternalError("failed to update post"))
		return
	}

	h.dispatchPostEvent("post:updated", post)
	c.JSON(http.StatusOK, postResponse(post))
}

func (h *PostHandler) Delete(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	post, err := h.loadWritable(c, principal)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), post.ID); err != nil {
		c.Error(errors.NewInternalError("failed to delete post"))
		return
	}

	h.dispatchPostEvent("post:deleted", post)
	c.JSON(http.StatusOK, gin.H{"deleted": post.ID})
}

func (h *PostHandler) Publish(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	post, err := h.loadWritable(c, principal)
	if err != nil {
		c.Error(err)
		return
	}

	if post.Status == domain.PostPublished {
		c.Error(errors.NewConflictError("post already published"))
		return
	}

	now := time.Now()
	post.Status = domain.PostPublished
	post.PublishedAt = &now
	post.UpdatedAt = now

	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		c.Error(errors.NewInternalError("failed to publish post"))
		return
	}

	h.dispatchPostEvent("post:published", post)
	c.JSON(http.StatusOK, postResponse(post))
}

// loadReadable fetches the post and hides its existence from principals who
// cannot read it: both the missing-row and the no-access case come back as
// the same not-found error.
func (h *PostHandler) loadReadable(c *gin.Context, principal *domain.Principal) (*domain.Post, error) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, errors.NewNotFoundError("post")
	}
	if err := h.access.RequireRead(principal, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (h *PostHandler) loadWritable(c *gin.Context, principal *domain.Principal) (*domain.Post, error) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, errors.NewNotFoundError("post")
	}
	if err := h.access.RequireWrite(principal, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (h *PostHandler) dispatchPostEvent(eventType string, post *domain.Post) {
	event := domain.Event{Type: eventType, Data: postResponse(post)}

	h.dispatcher.Dispatch(event, domain.PostScope(post.ID))
	if post.CampaignID != "" {
		h.dispatcher.Dispatch(event, domain.CampaignScope(post.CampaignID))
	}
	if post.OwnerTeamID != "" {
		h.dispatcher.Dispatch(event, domain.TeamScope(post.OwnerTeamID))
	} else if h.echoPersonalEvents {
		h.dispatcher.Dispatch(event, domain.UserScope(post.OwnerUserID))
	}
}

func parsePlatforms(raw []string) ([]domain.Platform, error) {
	platforms := make([]domain.Platform, 0, len(raw))
	for _, p := range raw {
		platform := domain.Platform(strings.ToLower(strings.TrimSpace(p)))
		if !platform.Valid() {
			return nil, errors.NewInvalidInputError("unsupported platform: " + p)
		}
		platforms = append(platforms, platform)
	}
	return platforms, nil
}

func postResponse(post *domain.Post) gin.H {
	return gin.H{
		"id":           post.ID,
		"content":      post.Content,
		"platforms":    post.Platforms,
		"status":       post.Status,
		"campaign_id":  post.CampaignID,
		"owner_user":   post.OwnerUserID,
		"owner_team":   post.OwnerTeamID,
		"scheduled_at": post.ScheduledAt,
		"published_at": post.PublishedAt,
		"created_at":   post.CreatedAt,
		"updated_at":   post.UpdatedAt,
	}
}
