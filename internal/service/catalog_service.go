package service

import (
	"context"
	"strings"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CatalogService manages the team's clients, suppliers and products.
// Codes are unique per team; entities are never deleted.
type CatalogService interface {
	CreateClient(ctx context.Context, tc TenantContext, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.ClientListResponse, error)

	CreateSupplier(ctx context.Context, tc TenantContext, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	GetSupplier(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.SupplierResponse, error)
	ListSuppliers(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.SupplierListResponse, error)

	CreateProduct(ctx context.Context, tc TenantContext, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.ProductListResponse, error)
}

type catalogService struct {
	clients   repository.ClientRepository
	suppliers repository.SupplierRepository
	products  repository.ProductRepository
	pageSize  int
}

func NewCatalogService(
	clients repository.ClientRepository,
	suppliers repository.SupplierRepository,
	products repository.ProductRepository,
	pageSize int,
) CatalogService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &catalogService{clients: clients, suppliers: suppliers, products: products, pageSize: pageSize}
}

func (s *catalogService) filter(tc TenantContext, f dto.CatalogFilter) repository.CatalogFilter {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return repository.CatalogFilter{TeamID: tc.TeamID(), Search: f.Search, Page: page, Limit: s.pageSize}
}

// createErr maps a unique violation on (team_id, code) that slipped past the
// pre-check to ErrDuplicateCode.
func createErr(err error) error {
	if isDuplicateKey(err) {
		return ErrDuplicateCode
	}
	return err
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (s *catalogService) CreateClient(ctx context.Context, tc TenantContext, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateClient(req); err != nil {
		return nil, err
	}
	exists, err := s.clients.CodeExists(ctx, tc.TeamID(), req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCode
	}

	c := &model.Client{
		TeamID:       tc.TeamID(),
		Code:         req.Code,
		Name:         req.Name,
		Address:      strings.TrimSpace(req.Address),
		Neighborhood: strings.TrimSpace(req.Neighborhood),
		Reference:    strings.TrimSpace(req.Reference),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, createErr(err)
	}
	log.Info().Str("team_id", tc.TeamID().String()).Str("client_id", c.ID.String()).Msg("catalog: client created")
	resp := toClientResponse(c)
	return &resp, nil
}

func (s *catalogService) GetClient(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.ClientResponse, error) {
	c, err := s.clients.FindByID(ctx, tc.TeamID(), id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toClientResponse(c)
	return &resp, nil
}

func (s *catalogService) ListClients(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.ClientListResponse, error) {
	rf := s.filter(tc, f)
	rows, total, err := s.clients.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClientListResponse{Data: make([]dto.ClientResponse, len(rows)), Total: total, Page: rf.Page, Limit: rf.Limit}
	for i := range rows {
		resp.Data[i] = toClientResponse(&rows[i])
	}
	return resp, nil
}

// ── Suppliers ────────────────────────────────────────────────────────────────

func (s *catalogService) CreateSupplier(ctx context.Context, tc TenantContext, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := ValidateSupplier(req); err != nil {
		return nil, err
	}
	exists, err := s.suppliers.CodeExists(ctx, tc.TeamID(), req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCode
	}

	sup := &model.Supplier{
		TeamID:  tc.TeamID(),
		Code:    req.Code,
		Name:    req.Name,
		Contact: strings.TrimSpace(req.Contact),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, createErr(err)
	}
	log.Info().Str("team_id", tc.TeamID().String()).Str("supplier_id", sup.ID.String()).Msg("catalog: supplier created")
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *catalogService) GetSupplier(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.suppliers.FindByID(ctx, tc.TeamID(), id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.SupplierListResponse, error) {
	rf := s.filter(tc, f)
	rows, total, err := s.suppliers.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	resp := &dto.SupplierListResponse{Data: make([]dto.SupplierResponse, len(rows)), Total: total, Page: rf.Page, Limit: rf.Limit}
	for i := range rows {
		resp.Data[i] = toSupplierResponse(&rows[i])
	}
	return resp, nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *catalogService) CreateProduct(ctx context.Context, tc TenantContext, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateProduct(req); err != nil {
		return nil, err
	}
	exists, err := s.products.CodeExists(ctx, tc.TeamID(), req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCode
	}

	p := &model.Product{
		TeamID:      tc.TeamID(),
		Code:        req.Code,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		BasePrice:   req.BasePrice,
		Category:    strings.TrimSpace(req.Category),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, createErr(err)
	}
	log.Info().Str("team_id", tc.TeamID().String()).Str("product_id", p.ID.String()).Msg("catalog: product created")
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, tc.TeamID(), id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, tc TenantContext, f dto.CatalogFilter) (*dto.ProductListResponse, error) {
	rf := s.filter(tc, f)
	rows, total, err := s.products.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{Data: make([]dto.ProductResponse, len(rows)), Total: total, Page: rf.Page, Limit: rf.Limit}
	for i := range rows {
		resp.Data[i] = toProductResponse(&rows[i])
	}
	return resp, nil
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func toClientResponse(c *model.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID: c.ID.String(), Code: c.Code, Name: c.Name, Address: c.Address,
		Neighborhood: c.Neighborhood, Reference: c.Reference, Phone: c.Phone,
		CreatedAt: fmtTime(c.CreatedAt),
	}
}

func toSupplierResponse(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID: s.ID.String(), Code: s.Code, Name: s.Name, Contact: s.Contact,
		Phone: s.Phone, Email: s.Email, CreatedAt: fmtTime(s.CreatedAt),
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID: p.ID.String(), Code: p.Code, Name: p.Name, Description: p.Description,
		BasePrice: p.BasePrice, Category: p.Category, CreatedAt: fmtTime(p.CreatedAt),
	}
}
