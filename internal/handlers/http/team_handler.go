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

const invitationTTL = 7 * 24 * time.Hour

// TeamHandler owns the only path into a team: create one, or accept an
// invitation from its owner. Accounts never pick a team for themselves.
type TeamHandler struct {
	teams      ports.TeamRepository
	accounts   ports.AccountRepository
	verifier   ports.IdentityVerifier
	dispatcher ports.Dispatcher
}

func NewTeamHandler(
	teams ports.TeamRepository,
	accounts ports.AccountRepository,
	verifier ports.IdentityVerifier,
	dispatcher ports.Dispatcher,
) *TeamHandler {
	return &TeamHandler{
		teams:      teams,
		accounts:   accounts,
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

func (h *TeamHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/teams")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.POST("", h.Create)
		api.GET("/my-team", h.MyTeam)
		api.PATCH("/:id", h.Update)
		api.POST("/:id/invite", h.Invite)
		api.POST("/:id/leave", h.Leave)
		api.DELETE("/:id/members/:memberID", h.RemoveMember)
		api.GET("/invitations", h.ListInvitations)
		api.POST("/invitations/:id/accept", h.AcceptInvitation)
		api.POST("/invitations/:id/decline", h.DeclineInvitation)
	}
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,max=254"`
}

func (h *TeamHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req CreateTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to load account"))
		return
	}
	if account.TeamID != "" {
		c.Error(errors.NewInvalidInputError("already a member of a team"))
		return
	}

	team := &domain.Team{
		ID:          domain.TeamID(uuid.New().String()),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		OwnerUserID: principal.ID,
		CreatedAt:   time.Now(),
	}
	if err := h.teams.Create(c.Request.Context(), team); err != nil {
		c.Error(errors.NewInternalError("failed to create team"))
		return
	}

	account.TeamID = team.ID
	if err := h.accounts.Update(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}

	c.JSON(http.StatusCreated, teamResponse(team))
}

func (h *TeamHandler) MyTeam(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	if !principal.HasTeam() {
		c.JSON(http.StatusOK, gin.H{"team": nil})
		return
	}

	team, err := h.teams.GetByID(c.Request.Context(), principal.TeamID)
	if err != nil {
		c.Error(errors.NewNotFoundError("team"))
		return
	}

	members, err := h.accounts.ListByTeam(c.Request.Context(), team.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list team members"))
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, gin.H{
			"id":         m.ID,
			"email":      m.Email,
			"first_name": m.FirstName,
			"last_name":  m.LastName,
			"role":       m.Role,
		})
	}

	resp := teamResponse(team)
	resp["members"] = out
	resp["member_count"] = len(out)
	c.JSON(http.StatusOK, gin.H{"team": resp})
}

func (h *TeamHandler) Update(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	team, err := h.teams.GetByID(c.Request.Context(), domain.TeamID(c.Param("id")))
	if err != nil {
		c.Error(errors.NewNotFoundError("team"))
		return
	}
	if team.OwnerUserID != principal.ID && principal.Role != domain.RoleAdmin {
		c.Error(errors.NewForbiddenError("only the team owner can update the team"))
		return
	}

	var req UpdateTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.Error(errors.NewInvalidInputError("team name cannot be empty"))
			return
		}
		team.Name = name
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}

	if err := h.teams.Update(c.Request.Context(), team); err != nil {
		c.Error(errors.NewInternalError("failed to update team"))
		return
	}
	c.JSON(http.StatusOK, teamResponse(team))
}

func (h *TeamHandler) Invite(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	team, err := h.teams.GetByID(c.Request.Context(), domain.TeamID(c.Param("id")))
	if err != nil {
		c.Error(errors.NewNotFoundError("team"))
		return
	}
	if team.OwnerUserID != principal.ID && principal.Role != domain.RoleAdmin {
		c.Error(errors.NewForbiddenError("only the team owner can invite members"))
		return
	}

	var req InviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	invitee, err := h.accounts.GetByEmail(c.Request.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		c.Error(errors.NewNotFoundError("user"))
		return
	}
	if invitee.TeamID != "" {
		c.Error(errors.NewInvalidInputError("user is already a member of a team"))
		return
	}

	invitation := &domain.TeamInvitation{
		ID:            uuid.New().String(),
		TeamID:        team.ID,
		InvitedByID:   principal.ID,
		InviteeUserID: invitee.ID,
		InviteeEmail:  invitee.Email,
		Status:        domain.InvitationPending,
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(invitationTTL),
	}
	if err := h.teams.CreateInvitation(c.Request.Context(), invitation); err != nil {
		c.Error(errors.NewInternalError("failed to create invitation"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "team:invitation", Data: invitationResponse(invitation, team.Name)},
		domain.UserScope(invitee.ID),
	)
	c.JSON(http.StatusCreated, invitationResponse(invitation, team.Name))
}

func (h *TeamHandler) ListInvitations(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	pending, err := h.teams.ListInvitationsForUser(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to list invitations"))
		return
	}

	out := make([]gin.H, 0, len(pending))
	now := time.Now()
	for _, inv := range pending {
		if inv.Expired(now) {
			continue
		}
		name := ""
		if team, err := h.teams.GetByID(c.Request.Context(), inv.TeamID); err == nil {
			name = team.Name
		}
		out = append(out, invitationResponse(inv, name))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out, "count": len(out)})
}

func (h *TeamHandler) AcceptInvitation(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	invitation, err := h.loadOwnInvitation(c, principal)
	if err != nil {
		c.Error(err)
		return
	}
	if invitation.Expired(time.Now()) {
		c.Error(errors.NewInvalidInputError("invitation has expired"))
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to load account"))
		return
	}
	if account.TeamID != "" {
		c.Error(errors.NewInvalidInputError("already a member of a team"))
		return
	}

	account.TeamID = invitation.TeamID
	if err := h.accounts.Update(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}

	invitation.Status = domain.InvitationAccepted
	if err := h.teams.UpdateInvitation(c.Request.Context(), invitation); err != nil {
		c.Error(errors.NewInternalError("failed to update invitation"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "team:member_joined", Data: gin.H{"user_id": account.ID, "team_id": invitation.TeamID}},
		domain.TeamScope(invitation.TeamID),
	)
	c.JSON(http.StatusOK, gin.H{"team_id": invitation.TeamID})
}

func (h *TeamHandler) DeclineInvitation(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	invitation, err := h.loadOwnInvitation(c, principal)
	if err != nil {
		c.Error(err)
		return
	}

	invitation.Status = domain.InvitationDeclined
	if err := h.teams.UpdateInvitation(c.Request.Context(), invitation); err != nil {
		c.Error(errors.NewInternalError("failed to update invitation"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"declined": true})
}

func (h *TeamHandler) Leave(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	team, err := h.teams.GetByID(c.Request.Context(), domain.TeamID(c.Param("id")))
	if err != nil {
		c.Error(errors.NewNotFoundError("team"))
		return
	}
	if principal.TeamID != team.ID {
		c.Error(errors.NewInvalidInputError("not a member of this team"))
		return
	}
	if team.OwnerUserID == principal.ID {
		c.Error(errors.NewInvalidInputError("team owner cannot leave the team"))
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to load account"))
		return
	}
	account.TeamID = ""
	if err := h.accounts.Update(c.Request.Context(), account); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "team:member_left", Data: gin.H{"user_id": account.ID, "team_id": team.ID}},
		domain.TeamScope(team.ID),
	)
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	team, err := h.teams.GetByID(c.Request.Context(), domain.TeamID(c.Param("id")))
	if err != nil {
		c.Error(errors.NewNotFoundError("team"))
		return
	}
	if team.OwnerUserID != principal.ID && principal.Role != domain.RoleAdmin {
		c.Error(errors.NewForbiddenError("only the team owner can remove members"))
		return
	}

	memberID := domain.UserID(c.Param("memberID"))
	if memberID == team.OwnerUserID {
		c.Error(errors.NewInvalidInputError("cannot remove the team owner"))
		return
	}

	member, err := h.accounts.GetByID(c.Request.Context(), memberID)
	if err != nil || member.TeamID != team.ID {
		c.Error(errors.NewNotFoundError("member"))
		return
	}

	member.TeamID = ""
	if err := h.accounts.Update(c.Request.Context(), member); err != nil {
		c.Error(errors.NewInternalError("failed to update account"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "team:member_removed", Data: gin.H{"user_id": member.ID, "team_id": team.ID}},
		domain.TeamScope(team.ID),
	)
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// loadOwnInvitation resolves the invitation named in the URL. Invitations
// addressed to somebody else read as missing, and an already processed one
// cannot be replayed.
func (h *TeamHandler) loadOwnInvitation(c *gin.Context, principal *domain.Principal) (*domain.TeamInvitation, error) {
	invitation, err := h.teams.GetInvitation(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, errors.NewNotFoundError("invitation")
	}
	if invitation.InviteeUserID != principal.ID {
		return nil, errors.NewNotFoundError("invitation")
	}
	if invitation.Status != domain.InvitationPending {
		return nil, errors.NewInvalidInputError("invitation has already been processed")
	}
	return invitation, nil
}

func teamResponse(t *domain.Team) gin.H {
	return gin.H{
		"id":          t.ID,
		"name":        t.Name,
		"description": t.Description,
		"owner_id":    t.OwnerUserID,
		"created_at":  t.CreatedAt,
	}
}

func invitationResponse(inv *domain.TeamInvitation, teamName string) gin.H {
	return gin.H{
		"id":         inv.ID,
		"team_id":    inv.TeamID,
		"team_name":  teamName,
		"invited_by": inv.InvitedByID,
		"status":     inv.Status,
		"expires_at": inv.ExpiresAt,
	}
}
