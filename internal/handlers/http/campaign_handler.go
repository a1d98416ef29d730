package http

import (
	"net/http"
	"strings"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CampaignHandler struct {
	campaigns ports.CampaignRepository
	access    ports.AccessResolver
	verifier  ports.IdentityVerifier
}

func NewCampaignHandler(campaigns ports.CampaignRepository, access ports.AccessResolver, verifier ports.IdentityVerifier) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		access:    access,
		verifier:  verifier,
	}
}

func (h *CampaignHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/campaigns")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.POST("", h.Create)
		api.GET("", h.List)
		api.GET("/:id", h.Get)
	}
}

type CreateCampaignRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	TeamOwned   bool   `json:"team_owned"`
}

func (h *CampaignHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req CreateCampaignRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		c.Error(errors.NewInvalidInputError("start_date must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		c.Error(errors.NewInvalidInputError("end_date must be RFC3339"))
		return
	}
	if end.Before(start) {
		c.Error(errors.NewInvalidInputError("end_date must not be before start_date"))
		return
	}

	var teamID domain.TeamID
	if req.TeamOwned {
		if !principal.HasTeam() {
			c.Error(errors.NewInvalidInputError("cannot create a team campaign without a team"))
			return
		}
		teamID = principal.TeamID
	}

	campaign := &domain.Campaign{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		StartDate:   start,
		EndDate:     end,
		OwnerUserID: principal.ID,
		OwnerTeamID: teamID,
		CreatedAt:   time.Now(),
	}
	if err := h.campaigns.Create(c.Request.Context(), campaign); err != nil {
		c.Error(errors.NewInternalError("failed to create campaign"))
		return
	}

	c.JSON(http.StatusCreated, campaignResponse(campaign))
}

func (h *CampaignHandler) List(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	visible, err := h.campaigns.List(c.Request.Context(), h.access.ListFilterFor(principal))
	if err != nil {
		c.Error(errors.NewInternalError("failed to list campaigns"))
		return
	}

	out := make([]gin.H, 0, len(visible))
	for _, campaign := range visible {
		out = append(out, campaignResponse(campaign))
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out, "count": len(out)})
}

func (h *CampaignHandler) Get(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	campaign, err := h.campaigns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(errors.NewNotFoundError("campaign"))
		return
	}
	if err := h.access.RequireRead(principal, campaign); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, campaignResponse(campaign))
}

func campaignResponse(campaign *domain.Campaign) gin.H {
	return gin.H{
		"id":          campaign.ID,
		"name":        campaign.Name,
		"description": campaign.Description,
		"start_date":  campaign.StartDate,
		"end_date":    campaign.EndDate,
		"owner_user":  campaign.OwnerUserID,
		"owner_team":  campaign.OwnerTeamID,
		"created_at":  campaign.CreatedAt,
	}
}
