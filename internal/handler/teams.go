package handler

import (
	"net/http"

	"github.com/Cozta1/sistema-encomendas-V2/internal/apierror"
	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TeamsHandler serves teams, members and invitations.
type TeamsHandler struct{ svc service.TenantService }

func NewTeamsHandler(svc service.TenantService) *TeamsHandler { return &TeamsHandler{svc: svc} }

// ── Caller-scoped ─────────────────────────────────────────────────────────────

// ListTeams godoc
// @Summary      Equipes do usuário
// @Tags         teams
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.TeamResponse
// @Router       /v1/teams [get]
func (h *TeamsHandler) ListTeams(c *gin.Context) {
	resp, err := h.svc.ListTeams(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTeam godoc
// @Summary      Criar equipe
// @Description  Cria a equipe com o usuário autenticado como administrador principal.
// @Tags         teams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTeamRequest true "Equipe"
// @Success      201 {object} dto.TeamResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/teams [post]
func (h *TeamsHandler) CreateTeam(c *gin.Context) {
	var req dto.CreateTeamRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateTeam(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ResolveContext godoc
// @Summary      Resolver equipe ativa
// @Description  Com team_id valida a participação; sem ele resolve a única equipe do usuário ou lista as candidatas.
// @Tags         teams
// @Produce      json
// @Security     BearerAuth
// @Param        team_id query string false "UUID da equipe"
// @Success      200 {object} dto.TenantContextResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/teams/context [get]
func (h *TeamsHandler) ResolveContext(c *gin.Context) {
	var teamID *uuid.UUID
	if raw := c.Query("team_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusNotFound, apierror.New("Equipe não encontrada"))
			return
		}
		teamID = &id
	}
	res, err := h.svc.Resolve(c.Request.Context(), middleware.UserID(c), teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

func (h *TeamsHandler) MyInvitations(c *gin.Context) {
	resp, err := h.svc.ListMyInvitations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AcceptInvitation godoc
// @Summary      Aceitar convite
// @Tags         invitations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID do convite"
// @Success      200 {object} dto.TeamResponse
// @Failure      403 {object} apierror.APIError
// @Failure      410 {object} apierror.APIError
// @Router       /v1/invitations/{id}/accept [post]
func (h *TeamsHandler) AcceptInvitation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.AcceptInvitation(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeamsHandler) RejectInvitation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RejectInvitation(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Tenant-scoped ─────────────────────────────────────────────────────────────

func (h *TeamsHandler) GetTeam(c *gin.Context) {
	resp, err := h.svc.GetTeam(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeamsHandler) UpdateTeam(c *gin.Context) {
	var req dto.UpdateTeamRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateTeam(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeamsHandler) Leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), middleware.GetTenant(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamsHandler) ListMembers(c *gin.Context) {
	resp, err := h.svc.ListMembers(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeRole godoc
// @Summary      Alterar papel de membro
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        user_id path string true "UUID do usuário"
// @Param        body    body dto.ChangeRoleRequest true "Novo papel"
// @Success      200 {object} dto.MemberResponse
// @Failure      403 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/teams/{team_id}/members/{user_id} [patch]
func (h *TeamsHandler) ChangeRole(c *gin.Context) {
	target, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ChangeRole(c.Request.Context(), middleware.GetTenant(c), target, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeamsHandler) RemoveMember(c *gin.Context) {
	target, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), middleware.GetTenant(c), target); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamsHandler) ListInvitations(c *gin.Context) {
	resp, err := h.svc.ListTeamInvitations(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Invite godoc
// @Summary      Convidar por email
// @Description  Cria um convite pendente e enfileira o email. email_queued=false indica falha no envio, não no convite.
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        body    body dto.InviteRequest true "Convite"
// @Success      201 {object} dto.InviteResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/teams/{team_id}/invitations [post]
func (h *TeamsHandler) Invite(c *gin.Context) {
	var req dto.InviteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Invite(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
