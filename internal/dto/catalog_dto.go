package dto

import "github.com/shopspring/decimal"

// CatalogFilter is bound from the query string of the catalog list endpoints.
type CatalogFilter struct {
	Search string `form:"q"`
	Page   int    `form:"page,default=1" validate:"min=1"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateClientRequest struct {
	Code         string `json:"code"         validate:"required,max=50"`
	Name         string `json:"name"         validate:"required,max=200"`
	Address      string `json:"address"      validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required,max=100"`
	Reference    string `json:"reference"    validate:"omitempty,max=200"`
	Phone        string `json:"phone"        validate:"omitempty,max=20"`
}

type CreateSupplierRequest struct {
	Code    string `json:"code"    validate:"required,max=50"`
	Name    string `json:"name"    validate:"required,max=200"`
	Contact string `json:"contact" validate:"omitempty,max=200"`
	Phone   string `json:"phone"   validate:"omitempty,max=20"`
	Email   string `json:"email"   validate:"omitempty,email"`
}

type CreateProductRequest struct {
	Code        string          `json:"code"        validate:"required,max=50"`
	Name        string          `json:"name"        validate:"required,max=200"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"  validate:"required,gt=0"`
	Category    string          `json:"category"    validate:"omitempty,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClientResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`
	Phone        string `json:"phone"`
	CreatedAt    string `json:"created_at"`
}

type SupplierResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Category    string          `json:"category"`
	CreatedAt   string          `json:"created_at"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type SupplierListResponse struct {
	Data  []SupplierResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
