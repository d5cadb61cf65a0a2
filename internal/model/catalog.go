package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client is a customer of the team. Code is unique within the team.
type Client struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeamID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_clients_team_code"`
	Code         string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_clients_team_code"`
	Name         string    `gorm:"type:varchar(200);not null"`
	Address      string    `gorm:"not null"`
	Neighborhood string    `gorm:"type:varchar(100);not null"`
	Reference    string    `gorm:"type:varchar(200)"`
	Phone        string    `gorm:"type:varchar(20)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Client) TableName() string { return "clients" }

func (c *Client) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Supplier provides the products quoted on order lines.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_suppliers_team_code"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_suppliers_team_code"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Contact   string    `gorm:"type:varchar(200)"`
	Phone     string    `gorm:"type:varchar(20)"`
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Supplier) TableName() string { return "suppliers" }

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Product is a catalog item. BasePrice is a reference price; lines carry their own quote.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TeamID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_team_code"`
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_team_code"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string
	BasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Category    string          `gorm:"type:varchar(100)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
