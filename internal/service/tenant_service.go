package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Cozta1/sistema-encomendas-V2/internal/config"
	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TenantService owns teams, memberships and invitations, and is the only
// place a TenantContext is built.
type TenantService interface {
	// Resolve finds the caller's tenant. With teamID set the membership must
	// exist (ErrNotFound otherwise); without it a single membership resolves
	// implicitly and several are reported as ambiguous.
	Resolve(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) (*Resolution, error)
	Context(ctx context.Context, userID, teamID uuid.UUID) (*TenantContext, error)

	CreateTeam(ctx context.Context, userID uuid.UUID, req dto.CreateTeamRequest) (*dto.TeamResponse, error)
	ListTeams(ctx context.Context, userID uuid.UUID) ([]dto.TeamResponse, error)
	GetTeam(ctx context.Context, tc TenantContext) (*dto.TeamDetailResponse, error)
	UpdateTeam(ctx context.Context, tc TenantContext, req dto.UpdateTeamRequest) (*dto.TeamResponse, error)

	Invite(ctx context.Context, tc TenantContext, req dto.InviteRequest) (*dto.InviteResponse, error)
	ListTeamInvitations(ctx context.Context, tc TenantContext) ([]dto.InvitationResponse, error)
	ListMyInvitations(ctx context.Context, userID uuid.UUID) ([]dto.InvitationResponse, error)
	AcceptInvitation(ctx context.Context, userID, invitationID uuid.UUID) (*dto.TeamResponse, error)
	RejectInvitation(ctx context.Context, userID, invitationID uuid.UUID) error

	ListMembers(ctx context.Context, tc TenantContext) ([]dto.MemberResponse, error)
	ChangeRole(ctx context.Context, tc TenantContext, targetUserID uuid.UUID, role string) (*dto.MemberResponse, error)
	RemoveMember(ctx context.Context, tc TenantContext, targetUserID uuid.UUID) error
	Leave(ctx context.Context, tc TenantContext) error
}

type tenantService struct {
	teams       repository.TeamRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	emails      EmailQueue
	cfg         *config.Config
}

func NewTenantService(
	teams repository.TeamRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	emails EmailQueue,
	cfg *config.Config,
) TenantService {
	return &tenantService{teams: teams, invitations: invitations, users: users, emails: emails, cfg: cfg}
}

// ── Resolution ───────────────────────────────────────────────────────────────

func (s *tenantService) Resolve(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) (*Resolution, error) {
	if teamID != nil {
		tc, err := s.Context(ctx, userID, *teamID)
		if err != nil {
			return nil, err
		}
		return &Resolution{Status: ResolutionResolved, Context: tc, Teams: []model.Team{*tc.Team}}, nil
	}

	memberships, err := s.teams.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	teams := make([]model.Team, 0, len(memberships))
	for _, m := range memberships {
		if m.Team != nil {
			teams = append(teams, *m.Team)
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		return strings.ToLower(teams[i].Name) < strings.ToLower(teams[j].Name)
	})

	switch len(memberships) {
	case 0:
		return &Resolution{Status: ResolutionNone}, nil
	case 1:
		m := memberships[0]
		tc, err := s.build(ctx, m.Team, &m)
		if err != nil {
			return nil, err
		}
		return &Resolution{Status: ResolutionResolved, Context: tc, Teams: teams}, nil
	default:
		return &Resolution{Status: ResolutionAmbiguous, Teams: teams}, nil
	}
}

// Context returns the tenant context for an explicit team. Non-members get
// ErrNotFound so the team's existence is not disclosed.
func (s *tenantService) Context(ctx context.Context, userID, teamID uuid.UUID) (*TenantContext, error) {
	m, err := s.teams.FindMembership(ctx, nil, teamID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err)
	}
	return s.build(ctx, team, m)
}

func (s *tenantService) build(ctx context.Context, team *model.Team, m *model.Membership) (*TenantContext, error) {
	if team == nil {
		return nil, ErrNotFound
	}
	user, err := s.users.FindByID(ctx, m.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	return &TenantContext{Team: team, UserID: m.UserID, UserName: user.DisplayName(), Role: m.Role}, nil
}

// ── Teams ────────────────────────────────────────────────────────────────────

// CreateTeam creates the team and the creator's administrator membership atomically.
func (s *tenantService) CreateTeam(ctx context.Context, userID uuid.UUID, req dto.CreateTeamRequest) (*dto.TeamResponse, error) {
	name := strings.TrimSpace(req.Name)
	desc := strings.TrimSpace(req.Description)
	if err := ValidateTeam(name, desc); err != nil {
		return nil, err
	}

	team := &model.Team{Name: name, Description: desc, AdministratorID: userID, Active: true}
	err := runTx(ctx, s.teams.DB(), func(tx *gorm.DB) error {
		if err := s.teams.Create(ctx, tx, team); err != nil {
			return err
		}
		return s.teams.CreateMembership(ctx, tx, &model.Membership{
			TeamID: team.ID,
			UserID: userID,
			Role:   model.RoleAdministrator,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("team_id", team.ID.String()).Str("user_id", userID.String()).Msg("tenant: team created")
	resp := toTeamResponse(team, model.RoleAdministrator, 1)
	return &resp, nil
}

func (s *tenantService) ListTeams(ctx context.Context, userID uuid.UUID) ([]dto.TeamResponse, error) {
	rows, err := s.teams.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TeamResponse, len(rows))
	for i := range rows {
		resp[i] = toTeamResponse(&rows[i].Team, rows[i].Role, rows[i].MemberCount)
	}
	return resp, nil
}

func (s *tenantService) GetTeam(ctx context.Context, tc TenantContext) (*dto.TeamDetailResponse, error) {
	members, err := s.teams.ListMemberships(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}
	resp := &dto.TeamDetailResponse{
		TeamResponse: toTeamResponse(tc.Team, tc.Role, int64(len(members))),
		Members:      make([]dto.MemberResponse, len(members)),
		CanManage:    tc.CanManage(),
	}
	for i := range members {
		resp.Members[i] = toMemberResponse(&members[i], tc.Team)
	}
	if tc.CanManage() {
		invs, err := s.invitations.ListByTeam(ctx, tc.TeamID())
		if err != nil {
			return nil, err
		}
		for i := range invs {
			if invs[i].Status == model.InvitationPending {
				resp.Invitations = append(resp.Invitations, toInvitationResponse(&invs[i]))
			}
		}
	}
	return resp, nil
}

func (s *tenantService) UpdateTeam(ctx context.Context, tc TenantContext, req dto.UpdateTeamRequest) (*dto.TeamResponse, error) {
	if !tc.CanManage() {
		return nil, ErrPermissionDenied
	}
	team := *tc.Team
	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}
	if req.Active != nil {
		if !tc.IsAdministrator() {
			return nil, ErrPermissionDenied
		}
		team.Active = *req.Active
	}
	if err := ValidateTeam(team.Name, team.Description); err != nil {
		return nil, err
	}
	if err := s.teams.Update(ctx, &team); err != nil {
		return nil, err
	}
	resp := toTeamResponse(&team, tc.Role, 0)
	return &resp, nil
}

// ── Invitations ──────────────────────────────────────────────────────────────

// Invite records a pending invitation and enqueues the notification email.
// Only managers and administrators may invite; only administrators may
// invite administrators.
func (s *tenantService) Invite(ctx context.Context, tc TenantContext, req dto.InviteRequest) (*dto.InviteResponse, error) {
	email := normalizeEmail(req.Email)
	fe := fieldErrors{}
	if !validEmail(email) {
		fe.add("email", "email inválido")
	}
	if !model.ValidRole(req.Role) {
		fe.add("role", "papel inválido")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	if !tc.CanManage() {
		return nil, ErrPermissionDenied
	}
	if req.Role == model.RoleAdministrator && !tc.IsAdministrator() {
		return nil, ErrPermissionDenied
	}

	member, err := s.teams.IsMemberEmail(ctx, tc.TeamID(), email)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrDuplicateMembership
	}

	pending, err := s.invitations.FindPending(ctx, tc.TeamID(), email)
	switch {
	case err == nil:
		if pending.IsValid(now()) {
			return nil, ErrDuplicateInvitation
		}
		if err := s.invitations.MarkExpired(ctx, pending.ID); err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	inv := &model.Invitation{
		TeamID:      tc.TeamID(),
		Email:       email,
		Role:        req.Role,
		InvitedByID: tc.UserID,
		Status:      model.InvitationPending,
		ExpiresAt:   now().Add(s.cfg.InvitationTTL()),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateInvitation
		}
		return nil, err
	}
	inv.Team = tc.Team

	subject, body := invitationEmail(tc.Team.Name, tc.UserName, req.Role, s.cfg.PublicURL, inv.ExpiresAt)
	queued := enqueueEmail(ctx, s.emails, email, subject, body)

	log.Info().Str("team_id", tc.TeamID().String()).Str("invitation_id", inv.ID.String()).
		Bool("email_queued", queued).Msg("tenant: invitation created")
	return &dto.InviteResponse{Invitation: toInvitationResponse(inv), EmailQueued: queued}, nil
}

func (s *tenantService) ListTeamInvitations(ctx context.Context, tc TenantContext) ([]dto.InvitationResponse, error) {
	if !tc.CanManage() {
		return nil, ErrPermissionDenied
	}
	invs, err := s.invitations.ListByTeam(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvitationResponse, len(invs))
	for i := range invs {
		invs[i].Team = tc.Team
		resp[i] = toInvitationResponse(&invs[i])
	}
	return resp, nil
}

func (s *tenantService) ListMyInvitations(ctx context.Context, userID uuid.UUID) ([]dto.InvitationResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	invs, err := s.invitations.ListValidForEmail(ctx, user.Email, now())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvitationResponse, len(invs))
	for i := range invs {
		resp[i] = toInvitationResponse(&invs[i])
	}
	return resp, nil
}

// loadForResponse fetches the invitation and checks the caller may answer it.
// A pending invitation found past its deadline is marked expired.
func (s *tenantService) loadForResponse(ctx context.Context, userID, invitationID uuid.UUID) (*model.Invitation, *model.User, error) {
	inv, err := s.invitations.FindByID(ctx, invitationID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	if normalizeEmail(user.Email) != normalizeEmail(inv.Email) {
		return nil, nil, ErrEmailMismatch
	}
	if !inv.IsValid(now()) {
		if inv.Status == model.InvitationPending {
			if err := s.invitations.MarkExpired(ctx, inv.ID); err != nil {
				log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("tenant: mark expired failed")
			}
		}
		return nil, nil, ErrInvalidInvitation
	}
	return inv, user, nil
}

// AcceptInvitation answers the invitation and creates the membership in one
// transaction. An existing membership is kept as is.
func (s *tenantService) AcceptInvitation(ctx context.Context, userID, invitationID uuid.UUID) (*dto.TeamResponse, error) {
	inv, _, err := s.loadForResponse(ctx, userID, invitationID)
	if err != nil {
		return nil, err
	}

	role := inv.Role
	err = runTx(ctx, s.teams.DB(), func(tx *gorm.DB) error {
		ok, err := s.invitations.Respond(ctx, tx, inv.ID, model.InvitationAccepted, now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidInvitation
		}
		existing, err := s.teams.FindMembership(ctx, tx, inv.TeamID, userID)
		if err == nil {
			role = existing.Role
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.teams.CreateMembership(ctx, tx, &model.Membership{TeamID: inv.TeamID, UserID: userID, Role: inv.Role})
	})
	if err != nil {
		return nil, err
	}

	team := inv.Team
	if team == nil {
		if team, err = s.teams.FindByID(ctx, inv.TeamID); err != nil {
			return nil, notFound(err)
		}
	}
	log.Info().Str("team_id", inv.TeamID.String()).Str("user_id", userID.String()).Msg("tenant: invitation accepted")
	resp := toTeamResponse(team, role, 0)
	return &resp, nil
}

func (s *tenantService) RejectInvitation(ctx context.Context, userID, invitationID uuid.UUID) error {
	inv, _, err := s.loadForResponse(ctx, userID, invitationID)
	if err != nil {
		return err
	}
	ok, err := s.invitations.Respond(ctx, nil, inv.ID, model.InvitationRejected, now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidInvitation
	}
	return nil
}

// ── Members ──────────────────────────────────────────────────────────────────

func (s *tenantService) ListMembers(ctx context.Context, tc TenantContext) ([]dto.MemberResponse, error) {
	members, err := s.teams.ListMemberships(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MemberResponse, len(members))
	for i := range members {
		resp[i] = toMemberResponse(&members[i], tc.Team)
	}
	return resp, nil
}

// ChangeRole updates another member's role. The main administrator's role is
// fixed, managers cannot touch administrators, and the last administrator
// cannot be demoted.
func (s *tenantService) ChangeRole(ctx context.Context, tc TenantContext, targetUserID uuid.UUID, role string) (*dto.MemberResponse, error) {
	if !model.ValidRole(role) {
		return nil, &ValidationError{Fields: map[string]string{"role": "papel inválido"}}
	}
	if !tc.CanManage() || targetUserID == tc.UserID {
		return nil, ErrPermissionDenied
	}
	if targetUserID == tc.Team.AdministratorID {
		return nil, ErrMainAdministrator
	}
	if role == model.RoleAdministrator && !tc.IsAdministrator() {
		return nil, ErrPermissionDenied
	}

	var m *model.Membership
	err := runTx(ctx, s.teams.DB(), func(tx *gorm.DB) error {
		if _, err := s.teams.LockTx(ctx, tx, tc.TeamID()); err != nil {
			return notFound(err)
		}
		var err error
		m, err = s.teams.FindMembership(ctx, tx, tc.TeamID(), targetUserID)
		if err != nil {
			return notFound(err)
		}
		if m.Role == model.RoleAdministrator {
			if !tc.IsAdministrator() {
				return ErrPermissionDenied
			}
			if role != model.RoleAdministrator {
				if err := s.ensureAnotherAdministrator(ctx, tx, tc.TeamID()); err != nil {
					return err
				}
			}
		}
		m.Role = role
		return s.teams.UpdateMembershipRole(ctx, tx, m.ID, role)
	})
	if err != nil {
		return nil, err
	}

	if user, err := s.users.FindByID(ctx, targetUserID); err == nil {
		m.User = user
	}
	resp := toMemberResponse(m, tc.Team)
	return &resp, nil
}

// RemoveMember deletes another member's membership. Removing oneself is Leave.
func (s *tenantService) RemoveMember(ctx context.Context, tc TenantContext, targetUserID uuid.UUID) error {
	if targetUserID == tc.UserID {
		return s.Leave(ctx, tc)
	}
	if !tc.CanManage() {
		return ErrPermissionDenied
	}
	if targetUserID == tc.Team.AdministratorID {
		return ErrMainAdministrator
	}

	return runTx(ctx, s.teams.DB(), func(tx *gorm.DB) error {
		if _, err := s.teams.LockTx(ctx, tx, tc.TeamID()); err != nil {
			return notFound(err)
		}
		m, err := s.teams.FindMembership(ctx, tx, tc.TeamID(), targetUserID)
		if err != nil {
			return notFound(err)
		}
		if m.Role == model.RoleAdministrator {
			if !tc.IsAdministrator() {
				return ErrPermissionDenied
			}
			if err := s.ensureAnotherAdministrator(ctx, tx, tc.TeamID()); err != nil {
				return err
			}
		}
		return s.teams.DeleteMembership(ctx, tx, m.ID)
	})
}

// Leave removes the caller's own membership. The last administrator cannot
// leave; when the main administrator leaves, the longest-standing remaining
// administrator becomes the main administrator.
func (s *tenantService) Leave(ctx context.Context, tc TenantContext) error {
	err := runTx(ctx, s.teams.DB(), func(tx *gorm.DB) error {
		team, err := s.teams.LockTx(ctx, tx, tc.TeamID())
		if err != nil {
			return notFound(err)
		}
		m, err := s.teams.FindMembership(ctx, tx, tc.TeamID(), tc.UserID)
		if err != nil {
			return notFound(err)
		}
		if m.Role == model.RoleAdministrator {
			if err := s.ensureAnotherAdministrator(ctx, tx, tc.TeamID()); err != nil {
				return err
			}
		}
		if team.AdministratorID == tc.UserID {
			successor, err := s.teams.OtherAdministrator(ctx, tx, tc.TeamID(), tc.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrLastAdministrator
				}
				return err
			}
			if err := s.teams.SetAdministrator(ctx, tx, tc.TeamID(), successor.UserID); err != nil {
				return err
			}
			log.Info().Str("team_id", tc.TeamID().String()).Str("user_id", successor.UserID.String()).
				Msg("tenant: main administrator transferred")
		}
		return s.teams.DeleteMembership(ctx, tx, m.ID)
	})
	if err != nil {
		return err
	}
	log.Info().Str("team_id", tc.TeamID().String()).Str("user_id", tc.UserID.String()).Msg("tenant: member left")
	return nil
}

func (s *tenantService) ensureAnotherAdministrator(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) error {
	n, err := s.teams.CountRole(ctx, tx, teamID, model.RoleAdministrator)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdministrator
	}
	return nil
}
