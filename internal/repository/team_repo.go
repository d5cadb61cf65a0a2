package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamWithRole is a team as seen by one of its members.
type TeamWithRole struct {
	model.Team
	Role        string
	MemberCount int64
}

// TeamRepository covers teams and their memberships. Methods taking tx run
// inside the caller's transaction; a nil tx uses the repository's own connection.
type TeamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, t *model.Team) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	Update(ctx context.Context, t *model.Team) error
	// LockTx takes a row lock on the team, serializing membership changes and order numbering.
	LockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Team, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]TeamWithRole, error)

	CreateMembership(ctx context.Context, tx *gorm.DB, m *model.Membership) error
	FindMembership(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) (*model.Membership, error)
	ListMemberships(ctx context.Context, teamID uuid.UUID) ([]model.Membership, error)
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]model.Membership, error)
	UpdateMembershipRole(ctx context.Context, tx *gorm.DB, id uuid.UUID, role string) error
	DeleteMembership(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountRole(ctx context.Context, tx *gorm.DB, teamID uuid.UUID, role string) (int64, error)
	// OtherAdministrator returns the longest-standing administrator other than excludeUserID.
	OtherAdministrator(ctx context.Context, tx *gorm.DB, teamID, excludeUserID uuid.UUID) (*model.Membership, error)
	SetAdministrator(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) error
	IsMemberEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error)

	DB() *gorm.DB
}

type teamRepo struct{ db *gorm.DB }

func NewTeamRepository(db *gorm.DB) TeamRepository { return &teamRepo{db: db} }

func (r *teamRepo) DB() *gorm.DB { return r.db }

func (r *teamRepo) Create(ctx context.Context, tx *gorm.DB, t *model.Team) error {
	return conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *teamRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var t model.Team
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	return &t, err
}

// Update writes the editable team fields only. The main administrator and the
// order counter belong to their own operations and are never overwritten here.
func (r *teamRepo) Update(ctx context.Context, t *model.Team) error {
	return r.db.WithContext(ctx).Model(&model.Team{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"active":      t.Active,
		}).Error
}

func (r *teamRepo) LockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Team, error) {
	var t model.Team
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	return &t, err
}

func (r *teamRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]TeamWithRole, error) {
	var memberships []model.Membership
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []TeamWithRole{}, nil
	}

	ids := make([]uuid.UUID, len(memberships))
	for i, m := range memberships {
		ids[i] = m.TeamID
	}
	type countRow struct {
		TeamID uuid.UUID
		N      int64
	}
	var counts []countRow
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Select("team_id, COUNT(*) AS n").
		Where("team_id IN ?", ids).
		Group("team_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byTeam := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byTeam[c.TeamID] = c.N
	}

	out := make([]TeamWithRole, 0, len(memberships))
	for _, m := range memberships {
		if m.Team == nil {
			continue
		}
		out = append(out, TeamWithRole{Team: *m.Team, Role: m.Role, MemberCount: byTeam[m.TeamID]})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *teamRepo) CreateMembership(ctx context.Context, tx *gorm.DB, m *model.Membership) error {
	return conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *teamRepo) FindMembership(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := conn(r.db, tx).WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&m).Error
	return &m, err
}

func (r *teamRepo) ListMemberships(ctx context.Context, teamID uuid.UUID) ([]model.Membership, error) {
	var ms []model.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&ms).Error
	return ms, err
}

func (r *teamRepo) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]model.Membership, error) {
	var ms []model.Membership
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Find(&ms).Error
	return ms, err
}

func (r *teamRepo) UpdateMembershipRole(ctx context.Context, tx *gorm.DB, id uuid.UUID, role string) error {
	return conn(r.db, tx).WithContext(ctx).Model(&model.Membership{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (r *teamRepo) DeleteMembership(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Membership{}).Error
}

func (r *teamRepo) CountRole(ctx context.Context, tx *gorm.DB, teamID uuid.UUID, role string) (int64, error) {
	var n int64
	err := conn(r.db, tx).WithContext(ctx).Model(&model.Membership{}).
		Where("team_id = ? AND role = ?", teamID, role).
		Count(&n).Error
	return n, err
}

func (r *teamRepo) IsMemberEmail(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.team_id = ? AND LOWER(users.email) = ?", teamID, strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	return n > 0, err
}

func (r *teamRepo) OtherAdministrator(ctx context.Context, tx *gorm.DB, teamID, excludeUserID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := conn(r.db, tx).WithContext(ctx).
		Where("team_id = ? AND role = ? AND user_id <> ?", teamID, model.RoleAdministrator, excludeUserID).
		Order("joined_at ASC").
		First(&m).Error
	return &m, err
}

func (r *teamRepo) SetAdministrator(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).Model(&model.Team{}).
		Where("id = ?", teamID).
		Update("administrator_id", userID).Error
}
