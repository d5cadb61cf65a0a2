package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateTeamRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role"  validate:"required,oneof=administrator manager member"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=administrator manager member"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TeamResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	AdministratorID string `json:"administrator_id"`
	Active          bool   `json:"active"`
	Role            string `json:"role,omitempty"` // caller's role
	MemberCount     int64  `json:"member_count,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type MemberResponse struct {
	MembershipID    string `json:"membership_id"`
	UserID          string `json:"user_id"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsAdministrator bool   `json:"is_main_administrator"`
	JoinedAt        string `json:"joined_at"`
}

type TeamDetailResponse struct {
	TeamResponse
	Members     []MemberResponse     `json:"members"`
	Invitations []InvitationResponse `json:"invitations,omitempty"`
	CanManage   bool                 `json:"can_manage"`
}

type InvitationResponse struct {
	ID          string  `json:"id"`
	TeamID      string  `json:"team_id"`
	TeamName    string  `json:"team_name,omitempty"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	InvitedBy   string  `json:"invited_by,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   string  `json:"expires_at"`
	RespondedAt *string `json:"responded_at,omitempty"`
	Valid       bool    `json:"valid"`
}

// InviteResponse carries the invitation plus whether the notification was
// enqueued. A false EmailQueued is a soft warning; the invitation stands.
type InviteResponse struct {
	Invitation  InvitationResponse `json:"invitation"`
	EmailQueued bool               `json:"email_queued"`
}

// TenantContextResponse is the outcome of resolving the caller's tenant:
// status is "resolved", "ambiguous" or "none".
type TenantContextResponse struct {
	Status string         `json:"status"`
	Team   *TeamResponse  `json:"team,omitempty"`
	Teams  []TeamResponse `json:"teams,omitempty"`
}

type DashboardResponse struct {
	Team            TeamResponse    `json:"team"`
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
	ClientCount     int64           `json:"client_count"`
	RecentOrders    []OrderListItem `json:"recent_orders"`
}
