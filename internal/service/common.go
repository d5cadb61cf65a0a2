package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// now is the service clock; tests replace it.
var now = time.Now

// EmailQueue accepts outbound notifications for asynchronous delivery.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// enqueueEmail is fire-and-forget: failures are logged and reported as false.
func enqueueEmail(ctx context.Context, q EmailQueue, to, subject, body string) bool {
	if q == nil {
		return false
	}
	payload := worker.EmailJobPayload{ToEmail: to, Subject: subject, Body: body}
	if err := q.EnqueueEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("email: enqueue failed")
		return false
	}
	return true
}

// notFound translates gorm.ErrRecordNotFound into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrValidation
	}
	return id, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func today() time.Time {
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fmtDate(t time.Time) string { return t.Format(dto.DateLayout) }

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtDate(*t)
	return &s
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID.String(),
		Email:          u.Email,
		FullName:       u.FullName,
		Identification: u.Identification,
		Position:       u.Position,
		Phone:          u.Phone,
		Active:         u.Active,
		CreatedAt:      fmtTime(u.CreatedAt),
	}
}

func toTeamResponse(t *model.Team, role string, members int64) dto.TeamResponse {
	return dto.TeamResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		Description:     t.Description,
		AdministratorID: t.AdministratorID.String(),
		Active:          t.Active,
		Role:            role,
		MemberCount:     members,
		CreatedAt:       fmtTime(t.CreatedAt),
		UpdatedAt:       fmtTime(t.UpdatedAt),
	}
}

func toInvitationResponse(inv *model.Invitation) dto.InvitationResponse {
	resp := dto.InvitationResponse{
		ID:          inv.ID.String(),
		TeamID:      inv.TeamID.String(),
		Email:       inv.Email,
		Role:        inv.Role,
		Status:      inv.Status,
		CreatedAt:   fmtTime(inv.CreatedAt),
		ExpiresAt:   fmtTime(inv.ExpiresAt),
		RespondedAt: fmtTimePtr(inv.RespondedAt),
		Valid:       inv.IsValid(now()),
	}
	if inv.IsExpired(now()) {
		resp.Status = model.InvitationExpired
	}
	if inv.Team != nil {
		resp.TeamName = inv.Team.Name
	}
	if inv.InvitedBy != nil {
		resp.InvitedBy = inv.InvitedBy.DisplayName()
	}
	return resp
}

func toMemberResponse(m *model.Membership, team *model.Team) dto.MemberResponse {
	resp := dto.MemberResponse{
		MembershipID:    m.ID.String(),
		UserID:          m.UserID.String(),
		Role:            m.Role,
		IsAdministrator: team != nil && team.AdministratorID == m.UserID,
		JoinedAt:        fmtTime(m.JoinedAt),
	}
	if m.User != nil {
		resp.FullName = m.User.FullName
		resp.Email = m.User.Email
	}
	return resp
}
