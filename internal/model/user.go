package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can belong to any number of teams.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	FullName       string    `gorm:"not null"`
	Identification *string   `gorm:"uniqueIndex"`
	Position       string
	Phone          string
	PasswordHash   string `gorm:"not null"`
	Active         bool   `gorm:"not null;default:true"`
	// ResetToken is a one-shot password reset token; nil once consumed.
	ResetToken          *string `gorm:"index"`
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// DisplayName falls back to the email when no full name was given.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
