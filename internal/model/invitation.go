package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation status values.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
	InvitationExpired  = "expired"
)

// Invitation is a pending offer of membership sent to an email address.
// Expiration is evaluated lazily by IsValid; no sweep rewrites the status.
type Invitation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeamID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Email       string    `gorm:"not null;index"`
	Role        string    `gorm:"type:varchar(20);not null;default:'member'"`
	InvitedByID uuid.UUID `gorm:"type:uuid;not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time
	ExpiresAt   time.Time `gorm:"not null"`
	RespondedAt *time.Time

	Team      *Team `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	InvitedBy *User `gorm:"foreignKey:InvitedByID"`
}

func (Invitation) TableName() string { return "invitations" }

func (i *Invitation) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// IsValid is true while the invitation is pending and not yet expired.
func (i *Invitation) IsValid(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

// IsExpired is true for a pending invitation whose deadline has passed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationExpired || (i.Status == InvitationPending && !now.Before(i.ExpiresAt))
}
