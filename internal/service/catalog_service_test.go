package service

import (
	"context"
	"testing"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"
	"github.com/Cozta1/sistema-encomendas-V2/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory client repository stub ─────────────────────────────────────────

// stubClientRepo reports every code as free and then fails the insert with a
// unique violation, as a concurrent writer would cause.
type stubClientRepo struct {
	created []*model.Client
	racing  bool
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if r.racing {
		return gorm.ErrDuplicatedKey
	}
	c.ID = uuid.New()
	r.created = append(r.created, c)
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, teamID, id uuid.UUID) (*model.Client, error) {
	return r.FindByIDTx(nil, teamID, id)
}

func (r *stubClientRepo) FindByIDTx(_ *gorm.DB, teamID, id uuid.UUID) (*model.Client, error) {
	for _, c := range r.created {
		if c.ID == id && c.TeamID == teamID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) CodeExists(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (r *stubClientRepo) List(context.Context, repository.CatalogFilter) ([]model.Client, int64, error) {
	out := make([]model.Client, len(r.created))
	for i, c := range r.created {
		out[i] = *c
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Count(context.Context, uuid.UUID) (int64, error) {
	return int64(len(r.created)), nil
}

func clientReq(code string) dto.CreateClientRequest {
	return dto.CreateClientRequest{
		Code:         code,
		Name:         "Maria Oliveira",
		Address:      "Av. Brasil, 500",
		Neighborhood: "Jardim",
	}
}

func tenantFor(team *model.Team) TenantContext {
	return TenantContext{Team: team, UserID: team.AdministratorID, Role: model.RoleAdministrator}
}

func TestCreateClient_UniqueViolationIsDuplicateCode(t *testing.T) {
	repo := &stubClientRepo{racing: true}
	svc := NewCatalogService(repo, nil, nil, 20)
	tc := tenantFor(&model.Team{ID: uuid.New()})

	_, err := svc.CreateClient(context.Background(), tc, clientReq("C-1"))

	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateClient_TrimsAndValidates(t *testing.T) {
	repo := &stubClientRepo{}
	svc := NewCatalogService(repo, nil, nil, 20)
	tc := tenantFor(&model.Team{ID: uuid.New()})

	_, err := svc.CreateClient(context.Background(), tc, dto.CreateClientRequest{Code: "  ", Name: "x"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "code")
	assert.Contains(t, ve.Fields, "address")
	assert.Contains(t, ve.Fields, "neighborhood")

	resp, err := svc.CreateClient(context.Background(), tc, clientReq("  C-9  "))
	require.NoError(t, err)
	assert.Equal(t, "C-9", resp.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, tc.TeamID(), repo.created[0].TeamID)
}

// ── SQLite-backed catalog ────────────────────────────────────────────────────

func buildCatalogSvc(t *testing.T) (CatalogService, TenantContext, TenantContext) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	ana := testutil.SeedUser(t, db, "ana@example.com", "Ana")
	bruno := testutil.SeedUser(t, db, "bruno@example.com", "Bruno")
	svc := NewCatalogService(
		repository.NewClientRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewProductRepository(db),
		2,
	)
	return svc,
		tenantFor(testutil.SeedTeam(t, db, "Equipe A", ana)),
		tenantFor(testutil.SeedTeam(t, db, "Equipe B", bruno))
}

func TestCatalog_CodesAreUniquePerTeam(t *testing.T) {
	svc, a, b := buildCatalogSvc(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, a, clientReq("C-1"))
	require.NoError(t, err)
	_, err = svc.CreateClient(ctx, a, clientReq("C-1"))
	assert.ErrorIs(t, err, ErrDuplicateCode)
	_, err = svc.CreateClient(ctx, b, clientReq("C-1"))
	assert.NoError(t, err, "the same code is free in another team")

	_, err = svc.CreateSupplier(ctx, a, dto.CreateSupplierRequest{Code: "F-1", Name: "Distribuidora"})
	require.NoError(t, err)
	_, err = svc.CreateSupplier(ctx, a, dto.CreateSupplierRequest{Code: "F-1", Name: "Outra"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.CreateProduct(ctx, a, dto.CreateProductRequest{Code: "P-1", Name: "Bolo", BasePrice: dec("45.90")})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, a, dto.CreateProductRequest{Code: "P-1", Name: "Torta", BasePrice: dec("30.00")})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCatalog_ProductPriceRules(t *testing.T) {
	svc, a, _ := buildCatalogSvc(t)
	ctx := context.Background()

	for _, price := range []string{"0", "0.001", "-3.00"} {
		_, err := svc.CreateProduct(ctx, a, dto.CreateProductRequest{Code: "P-" + price, Name: "Item", BasePrice: dec(price)})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "price %s", price)
		assert.Contains(t, ve.Fields, "base_price")
	}
}

func TestCatalog_SupplierEmailNormalized(t *testing.T) {
	svc, a, _ := buildCatalogSvc(t)
	ctx := context.Background()

	resp, err := svc.CreateSupplier(ctx, a, dto.CreateSupplierRequest{Code: "F-1", Name: "Distribuidora", Email: " Vendas@Dist.COM "})
	require.NoError(t, err)
	assert.Equal(t, "vendas@dist.com", resp.Email)

	_, err = svc.CreateSupplier(ctx, a, dto.CreateSupplierRequest{Code: "F-2", Name: "Outra", Email: "invalido"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_GetIsTenantScoped(t *testing.T) {
	svc, a, b := buildCatalogSvc(t)
	ctx := context.Background()
	created, err := svc.CreateProduct(ctx, a, dto.CreateProductRequest{Code: "P-1", Name: "Bolo", BasePrice: dec("45.90")})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	got, err := svc.GetProduct(ctx, a, id)
	require.NoError(t, err)
	assert.True(t, got.BasePrice.Equal(dec("45.90")))

	_, err = svc.GetProduct(ctx, b, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ListSearchAndPaging(t *testing.T) {
	svc, a, b := buildCatalogSvc(t)
	ctx := context.Background()
	for _, c := range []struct{ code, name string }{
		{"C-1", "Ana Paula"},
		{"C-2", "Bruno Costa"},
		{"C-3", "Carla Paula"},
	} {
		req := clientReq(c.code)
		req.Name = c.name
		_, err := svc.CreateClient(ctx, a, req)
		require.NoError(t, err)
	}
	_, err := svc.CreateClient(ctx, b, clientReq("C-1"))
	require.NoError(t, err)

	page1, err := svc.ListClients(ctx, a, dto.CatalogFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page1.Total)
	require.Len(t, page1.Data, 2, "page size is 2")
	assert.Equal(t, "Ana Paula", page1.Data[0].Name)

	page2, err := svc.ListClients(ctx, a, dto.CatalogFilter{Page: 2})
	require.NoError(t, err)
	require.Len(t, page2.Data, 1)
	assert.Equal(t, "Carla Paula", page2.Data[0].Name)

	found, err := svc.ListClients(ctx, a, dto.CatalogFilter{Search: "PAULA"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Total)
}
