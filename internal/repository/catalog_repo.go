package repository

import (
	"context"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogFilter scopes a catalog listing to one team, an optional search term and a page.
type CatalogFilter struct {
	TeamID uuid.UUID
	Search string
	Page   int
	Limit  int
}

// ── Clients ──────────────────────────────────────────────────────────────────

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Client, error)
	FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Client, error)
	CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error)
	List(ctx context.Context, f CatalogFilter) ([]model.Client, int64, error)
	Count(ctx context.Context, teamID uuid.UUID) (int64, error)
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Client, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), teamID, id)
}

func (r *clientRepo) FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := conn(r.db, tx).Where("team_id = ? AND id = ?", teamID, id).First(&c).Error
	return &c, err
}

func (r *clientRepo) CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Client{}).
		Where("team_id = ? AND code = ?", teamID, code).
		Count(&n).Error
	return n > 0, err
}

func (r *clientRepo) List(ctx context.Context, f CatalogFilter) ([]model.Client, int64, error) {
	var out []model.Client
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Client{}).
		Where("team_id = ?", f.TeamID).
		Scopes(searchScope(f.Search, "name", "code", "address", "neighborhood", "phone"))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(f.Page, f.Limit)).Order("name ASC").Find(&out).Error
	return out, total, err
}

func (r *clientRepo) Count(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Client{}).Where("team_id = ?", teamID).Count(&n).Error
	return n, err
}

// ── Suppliers ────────────────────────────────────────────────────────────────

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Supplier, error)
	FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Supplier, error)
	CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error)
	List(ctx context.Context, f CatalogFilter) ([]model.Supplier, int64, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Supplier, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), teamID, id)
}

func (r *supplierRepo) FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := conn(r.db, tx).Where("team_id = ? AND id = ?", teamID, id).First(&s).Error
	return &s, err
}

func (r *supplierRepo) CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("team_id = ? AND code = ?", teamID, code).
		Count(&n).Error
	return n > 0, err
}

func (r *supplierRepo) List(ctx context.Context, f CatalogFilter) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("team_id = ?", f.TeamID).
		Scopes(searchScope(f.Search, "name", "code", "contact", "email", "phone"))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(f.Page, f.Limit)).Order("name ASC").Find(&out).Error
	return out, total, err
}

// ── Products ─────────────────────────────────────────────────────────────────

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Product, error)
	CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error)
	List(ctx context.Context, f CatalogFilter) ([]model.Product, int64, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), teamID, id)
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := conn(r.db, tx).Where("team_id = ? AND id = ?", teamID, id).First(&p).Error
	return &p, err
}

func (r *productRepo) CodeExists(ctx context.Context, teamID uuid.UUID, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("team_id = ? AND code = ?", teamID, code).
		Count(&n).Error
	return n > 0, err
}

func (r *productRepo) List(ctx context.Context, f CatalogFilter) ([]model.Product, int64, error) {
	var out []model.Product
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("team_id = ?", f.TeamID).
		Scopes(searchScope(f.Search, "name", "code", "category", "description"))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(f.Page, f.Limit)).Order("name ASC").Find(&out).Error
	return out, total, err
}
