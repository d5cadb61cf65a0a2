package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ScheduleDeliveryRequest struct {
	ScheduledDate   *string         `json:"scheduled_date"   validate:"omitempty,datetime=2006-01-02"`
	ResponsibleName string          `json:"responsible_name" validate:"omitempty,max=100"`
	AdvancePayment  decimal.Decimal `json:"advance_payment"  validate:"min=0"`
	PlannedDate     *string         `json:"planned_date"     validate:"omitempty,datetime=2006-01-02"`
	Notes           string          `json:"notes"`
}

// EditDeliveryRequest updates a delivery. Nil fields are left untouched; an
// empty CompletionDate/CompletionTime clears that field.
type EditDeliveryRequest struct {
	ScheduledDate      *string          `json:"scheduled_date"      validate:"omitempty,datetime=2006-01-02"`
	ResponsibleName    *string          `json:"responsible_name"    validate:"omitempty,max=100"`
	AdvancePayment     *decimal.Decimal `json:"advance_payment"     validate:"omitempty,min=0"`
	PlannedDate        *string          `json:"planned_date"`
	CompletionDate     *string          `json:"completion_date"`
	CompletionTime     *string          `json:"completion_time"`
	DeliveredBy        *string          `json:"delivered_by"        validate:"omitempty,max=100"`
	SignatureConfirmed *bool            `json:"signature_confirmed"`
	Notes              *string          `json:"notes"`
}

type CompleteDeliveryRequest struct {
	DeliveredBy        string  `json:"delivered_by"        validate:"omitempty,max=100"`
	SignatureConfirmed *bool   `json:"signature_confirmed"`
	CompletedAt        *string `json:"completed_at"        validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DeliveryResponse struct {
	ID                 string          `json:"id"`
	OrderID            string          `json:"order_id"`
	ScheduledDate      string          `json:"scheduled_date"`
	ResponsibleName    string          `json:"responsible_name"`
	AdvancePayment     decimal.Decimal `json:"advance_payment"`
	PlannedDate        *string         `json:"planned_date,omitempty"`
	CompletionDate     *string         `json:"completion_date,omitempty"`
	CompletionTime     *string         `json:"completion_time,omitempty"`
	DeliveredBy        string          `json:"delivered_by"`
	SignatureConfirmed bool            `json:"signature_confirmed"`
	CompletedAt        *string         `json:"completed_at,omitempty"`
	Completed          bool            `json:"completed"`
	Notes              string          `json:"notes"`
	OrderTotal         decimal.Decimal `json:"order_total"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
}

// CompleteDeliveryResponse reports the completion. AlreadyCompleted marks a
// repeated call: the stored state is returned unchanged.
type CompleteDeliveryResponse struct {
	Delivery         DeliveryResponse `json:"delivery"`
	AlreadyCompleted bool             `json:"already_completed"`
	OrderStatus      string           `json:"order_status"`
}
