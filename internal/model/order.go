package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values. Delivered and cancelled are terminal.
const (
	OrderCreated    = "created"
	OrderQuotation  = "quotation"
	OrderApproved   = "approved"
	OrderInProgress = "in_progress"
	OrderReady      = "ready"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []string{
	OrderCreated, OrderQuotation, OrderApproved, OrderInProgress, OrderReady, OrderDelivered, OrderCancelled,
}

// PendingOrderStatuses are the statuses counted as "pending" on the dashboard.
var PendingOrderStatuses = []string{OrderCreated, OrderQuotation, OrderApproved, OrderInProgress}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order is a customer purchase request. Total is derived from Lines and is
// only ever written by the order service's recomputation.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TeamID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_team_number"`
	Number        int64           `gorm:"not null;uniqueIndex:idx_orders_team_number"`
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderDate     time.Time       `gorm:"type:date;not null"`
	CreatedByName string          `gorm:"type:varchar(100)"`
	Status        string          `gorm:"type:varchar(20);not null;default:'created';index"`
	Notes         string
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Team     *Team       `gorm:"foreignKey:TeamID"`
	Client   *Client     `gorm:"foreignKey:ClientID"`
	Lines    []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery *Delivery   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderLine is a (product, supplier, quantity, quoted price) tuple.
// Total = Quantity × UnitPrice, never supplied by callers.
type OrderLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position   int             `gorm:"not null;default:0"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes      string
	CreatedAt  time.Time

	Order    *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
