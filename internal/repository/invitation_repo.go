package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error)
	// FindPending returns the pending invitation for (team, email), regardless of expiry.
	FindPending(ctx context.Context, teamID uuid.UUID, email string) (*model.Invitation, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Invitation, error)
	ListValidForEmail(ctx context.Context, email string, now time.Time) ([]model.Invitation, error)
	// Respond moves a pending invitation to status. It reports false when the
	// invitation already left the pending state, so each invitation is answered once.
	Respond(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID) error
}

type invitationRepo struct{ db *gorm.DB }

func NewInvitationRepository(db *gorm.DB) InvitationRepository { return &invitationRepo{db: db} }

func (r *invitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

func (r *invitationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.WithContext(ctx).
		Preload("Team").
		Preload("InvitedBy").
		Where("id = ?", id).
		First(&inv).Error
	return &inv, err
}

func (r *invitationRepo) FindPending(ctx context.Context, teamID uuid.UUID, email string) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND LOWER(email) = ? AND status = ?",
			teamID, strings.ToLower(strings.TrimSpace(email)), model.InvitationPending).
		First(&inv).Error
	return &inv, err
}

func (r *invitationRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Invitation, error) {
	var invs []model.Invitation
	err := r.db.WithContext(ctx).
		Preload("InvitedBy").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) ListValidForEmail(ctx context.Context, email string, now time.Time) ([]model.Invitation, error) {
	var invs []model.Invitation
	err := r.db.WithContext(ctx).
		Preload("Team").
		Preload("InvitedBy").
		Where("LOWER(email) = ? AND status = ? AND expires_at > ?",
			strings.ToLower(strings.TrimSpace(email)), model.InvitationPending, now).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) Respond(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, at time.Time) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Updates(map[string]interface{}{"status": status, "responded_at": at})
	return res.RowsAffected == 1, res.Error
}

func (r *invitationRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Update("status", model.InvitationExpired).Error
}
