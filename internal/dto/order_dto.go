package dto

import "github.com/shopspring/decimal"

// DateLayout is the wire format of business dates (order date, delivery dates).
const DateLayout = "2006-01-02"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from the query string of GET /orders.
type OrderFilter struct {
	Status   string `form:"status"    validate:"omitempty,oneof=created quotation approved in_progress ready delivered cancelled"`
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Search   string `form:"q"`
	Page     int    `form:"page,default=1" validate:"min=1"`
}

type OrderListItem struct {
	ID                string          `json:"id"`
	Number            int64           `json:"number"`
	ClientID          string          `json:"client_id"`
	ClientName        string          `json:"client_name"`
	OrderDate         string          `json:"order_date"`
	Status            string          `json:"status"`
	Total             decimal.Decimal `json:"total"`
	HasDelivery       bool            `json:"has_delivery"`
	DeliveryCompleted bool            `json:"delivery_completed"`
	CreatedAt         string          `json:"created_at"`
}

type OrderSummaryResponse struct {
	Total      int64           `json:"total"`
	Pending    int64           `json:"pending"`
	Delivered  int64           `json:"delivered"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type OrderListResponse struct {
	Data    []OrderListItem      `json:"data"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	Summary OrderSummaryResponse `json:"summary"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderLineRequest struct {
	ProductID  string          `json:"product_id"  validate:"required,uuid"`
	SupplierID string          `json:"supplier_id" validate:"required,uuid"`
	Quantity   int             `json:"quantity"    validate:"required,min=1"`
	UnitPrice  decimal.Decimal `json:"unit_price"  validate:"required,gt=0"`
	Notes      string          `json:"notes"`
}

type CreateOrderRequest struct {
	ClientID      string             `json:"client_id"       validate:"required,uuid"`
	OrderDate     *string            `json:"order_date"      validate:"omitempty,datetime=2006-01-02"`
	CreatedByName string             `json:"created_by_name" validate:"omitempty,max=100"`
	Notes         string             `json:"notes"`
	Lines         []OrderLineRequest `json:"lines"           validate:"required,min=1,dive"`
}

// UpdateLineRequest edits an existing line in place; nil fields keep their value.
type UpdateLineRequest struct {
	ID         string           `json:"id"          validate:"required,uuid"`
	ProductID  *string          `json:"product_id"  validate:"omitempty,uuid"`
	SupplierID *string          `json:"supplier_id" validate:"omitempty,uuid"`
	Quantity   *int             `json:"quantity"    validate:"omitempty,min=1"`
	UnitPrice  *decimal.Decimal `json:"unit_price"  validate:"omitempty,gt=0"`
	Notes      *string          `json:"notes"`
}

// LinesDiff describes line additions, in-place updates and deletions applied in one edit.
type LinesDiff struct {
	Add    []OrderLineRequest  `json:"add"    validate:"omitempty,dive"`
	Update []UpdateLineRequest `json:"update" validate:"omitempty,dive"`
	Delete []string            `json:"delete" validate:"omitempty,dive,uuid"`
}

type EditOrderRequest struct {
	ClientID  *string   `json:"client_id"  validate:"omitempty,uuid"`
	OrderDate *string   `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string   `json:"notes"`
	Status    *string   `json:"status"     validate:"omitempty,oneof=created quotation approved in_progress ready delivered cancelled"`
	Lines     LinesDiff `json:"lines"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=created quotation approved in_progress ready delivered cancelled"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderLineResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductCode  string          `json:"product_code,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Number        int64               `json:"number"`
	TeamID        string              `json:"team_id"`
	ClientID      string              `json:"client_id"`
	ClientName    string              `json:"client_name,omitempty"`
	OrderDate     string              `json:"order_date"`
	CreatedByName string              `json:"created_by_name"`
	Status        string              `json:"status"`
	Notes         string              `json:"notes"`
	Total         decimal.Decimal     `json:"total"`
	Lines         []OrderLineResponse `json:"lines"`
	Delivery      *DeliveryResponse   `json:"delivery,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type RecomputeResponse struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}
