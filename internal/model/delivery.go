package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultResponsible is used when a delivery is scheduled without a responsible party.
const DefaultResponsible = "A definir"

// Delivery is the fulfillment record of exactly one order.
// CompletedAt is the combined completion timestamp; a non-nil value means completed.
type Delivery struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ScheduledDate      time.Time       `gorm:"type:date;not null"`
	ResponsibleName    string          `gorm:"type:varchar(100);not null"`
	AdvancePayment     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PlannedDate        *time.Time      `gorm:"type:date"`
	CompletionDate     *time.Time      `gorm:"type:date"`
	CompletionTime     *string         `gorm:"type:varchar(5)"` // HH:MM
	DeliveredBy        string          `gorm:"type:varchar(100)"`
	SignatureConfirmed bool            `gorm:"not null;default:false"`
	CompletedAt        *time.Time
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Order *Order `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Delivery) TableName() string { return "deliveries" }

func (d *Delivery) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

func (d *Delivery) IsCompleted() bool { return d.CompletedAt != nil }
