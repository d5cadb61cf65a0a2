package service

import (
	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
)

// TenantContext is the resolved (team, member) pair every tenant-scoped
// operation receives. It is only built by TenantService after the membership
// has been verified.
type TenantContext struct {
	Team     *model.Team
	UserID   uuid.UUID
	UserName string
	Role     string
}

func (tc TenantContext) TeamID() uuid.UUID { return tc.Team.ID }

// CanManage is true for administrators and managers.
func (tc TenantContext) CanManage() bool { return model.CanManageRole(tc.Role) }

func (tc TenantContext) IsAdministrator() bool {
	return tc.Role == model.RoleAdministrator || tc.Team.AdministratorID == tc.UserID
}

// Resolution outcomes of TenantService.Resolve.
const (
	ResolutionResolved  = "resolved"
	ResolutionAmbiguous = "ambiguous"
	ResolutionNone      = "none"
)

// Resolution is the result of resolving a caller's tenant. Context is set only
// when Status is ResolutionResolved; Teams lists the candidates otherwise.
type Resolution struct {
	Status  string
	Context *TenantContext
	Teams   []model.Team
}

// Response maps the resolution to its wire form.
func (r *Resolution) Response() dto.TenantContextResponse {
	resp := dto.TenantContextResponse{Status: r.Status}
	if r.Context != nil {
		team := toTeamResponse(r.Context.Team, r.Context.Role, 0)
		resp.Team = &team
	}
	if r.Status != ResolutionResolved {
		resp.Teams = make([]dto.TeamResponse, 0, len(r.Teams))
		for i := range r.Teams {
			resp.Teams = append(resp.Teams, toTeamResponse(&r.Teams[i], "", 0))
		}
	}
	return resp
}
