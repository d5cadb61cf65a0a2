package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership roles.
const (
	RoleAdministrator = "administrator"
	RoleManager       = "manager"
	RoleMember        = "member"
)

// ValidRole reports whether r is one of the membership roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleMember:
		return true
	}
	return false
}

// CanManageRole reports whether a membership role may invite and change roles.
func CanManageRole(r string) bool {
	return r == RoleAdministrator || r == RoleManager
}

// Team is the tenant: every catalog entity and order belongs to exactly one team.
// AdministratorID is the main administrator and can never be removed through
// membership operations.
type Team struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"not null"`
	Description     string
	AdministratorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Active          bool      `gorm:"not null;default:true"`
	// LastOrderNumber is the highest order number ever issued by the team.
	// It only grows, so numbers freed by deleted orders are never reused.
	LastOrderNumber int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Administrator *User        `gorm:"foreignKey:AdministratorID"`
	Memberships   []Membership `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
}

func (Team) TableName() string { return "teams" }

func (t *Team) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// Membership links a user to a team with a role. Unique per (team, user).
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_team_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_team_user;index"`
	Role      string    `gorm:"type:varchar(20);not null;default:'member'"`
	JoinedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time

	Team *Team `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Membership) TableName() string { return "memberships" }

func (m *Membership) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
