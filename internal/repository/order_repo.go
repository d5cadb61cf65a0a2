package repository

import (
	"context"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter scopes an order listing.
type OrderFilter struct {
	TeamID   uuid.UUID
	Status   string
	ClientID *uuid.UUID
	Search   string
	Page     int
	Limit    int
}

// OrderSummary aggregates a team's orders for list headers and the dashboard.
type OrderSummary struct {
	Total      int64
	Pending    int64
	Delivered  int64
	TotalValue decimal.Decimal
}

type OrderRepository interface {
	// NextNumberTx advances the team's order counter and returns the new value.
	// Callers must hold the team row lock (TeamRepository.LockTx) in the same
	// transaction.
	NextNumberTx(tx *gorm.DB, teamID uuid.UUID) (int64, error)
	CreateTx(tx *gorm.DB, o *model.Order) error
	CreateLinesTx(tx *gorm.DB, lines []model.OrderLine) error
	UpdateLineTx(tx *gorm.DB, l *model.OrderLine) error
	DeleteLinesTx(tx *gorm.DB, orderID uuid.UUID, ids []uuid.UUID) error
	ListLinesTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderLine, error)
	// FindForUpdateTx loads the order with its lines under a row lock.
	FindForUpdateTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Order, error)
	UpdateTx(tx *gorm.DB, o *model.Order) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// FindByID loads the full aggregate: client, lines with product and supplier, delivery.
	FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Order, error)
	Delete(ctx context.Context, teamID, id uuid.UUID) (bool, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, int64, error)
	Summary(ctx context.Context, teamID uuid.UUID) (OrderSummary, error)
	Recent(ctx context.Context, teamID uuid.UUID, n int) ([]model.Order, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) NextNumberTx(tx *gorm.DB, teamID uuid.UUID) (int64, error) {
	db := conn(r.db, tx)
	res := db.Model(&model.Team{}).
		Where("id = ?", teamID).
		UpdateColumn("last_order_number", gorm.Expr("last_order_number + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var number int64
	err := db.Model(&model.Team{}).
		Select("last_order_number").
		Where("id = ?", teamID).
		Row().Scan(&number)
	return number, err
}

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return conn(r.db, tx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepo) CreateLinesTx(tx *gorm.DB, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return conn(r.db, tx).Omit(clause.Associations).Create(&lines).Error
}

func (r *orderRepo) UpdateLineTx(tx *gorm.DB, l *model.OrderLine) error {
	return conn(r.db, tx).Model(&model.OrderLine{}).
		Where("id = ? AND order_id = ?", l.ID, l.OrderID).
		Updates(map[string]interface{}{
			"product_id":  l.ProductID,
			"supplier_id": l.SupplierID,
			"quantity":    l.Quantity,
			"unit_price":  l.UnitPrice,
			"total":       l.Total,
			"notes":       l.Notes,
		}).Error
}

func (r *orderRepo) DeleteLinesTx(tx *gorm.DB, orderID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(r.db, tx).
		Where("order_id = ? AND id IN ?", orderID, ids).
		Delete(&model.OrderLine{}).Error
}

func (r *orderRepo) ListLinesTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	err := conn(r.db, tx).
		Where("order_id = ?", orderID).
		Order("position ASC, created_at ASC, id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *orderRepo) FindForUpdateTx(tx *gorm.DB, teamID, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := conn(r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("team_id = ? AND id = ?", teamID, id).
		First(&o).Error
	if err != nil {
		return &o, err
	}
	o.Lines, err = r.ListLinesTx(tx, o.ID)
	return &o, err
}

func (r *orderRepo) UpdateTx(tx *gorm.DB, o *model.Order) error {
	return conn(r.db, tx).Model(&model.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"client_id":  o.ClientID,
			"order_date": o.OrderDate,
			"status":     o.Status,
			"notes":      o.Notes,
		}).Error
}

func (r *orderRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return conn(r.db, tx).Model(&model.Order{}).Where("id = ?", id).Update("total", total).Error
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return conn(r.db, tx).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) FindByID(ctx context.Context, teamID, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC, id ASC") }).
		Preload("Lines.Product").
		Preload("Lines.Supplier").
		Preload("Delivery").
		Where("team_id = ? AND id = ?", teamID, id).
		First(&o).Error
	return &o, err
}

// Delete removes the order; lines and delivery go with it through ON DELETE CASCADE.
func (r *orderRepo) Delete(ctx context.Context, teamID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("team_id = ? AND id = ?", teamID, id).
		Delete(&model.Order{})
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("orders.team_id = ?", f.TeamID)
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.ClientID != nil {
		q = q.Where("orders.client_id = ?", *f.ClientID)
	}
	if f.Search != "" {
		q = q.Joins("JOIN clients ON clients.id = orders.client_id").
			Scopes(searchScope(f.Search, "clients.name", "orders.notes", "orders.created_by_name"))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Client").Preload("Delivery").
		Scopes(paginate(f.Page, f.Limit)).
		Order("orders.created_at DESC, orders.number DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) Summary(ctx context.Context, teamID uuid.UUID) (OrderSummary, error) {
	var s OrderSummary
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Order{}).Where("team_id = ?", teamID)
	}
	if err := base().Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := base().Where("status IN ?", model.PendingOrderStatuses).Count(&s.Pending).Error; err != nil {
		return s, err
	}
	if err := base().Where("status = ?", model.OrderDelivered).Count(&s.Delivered).Error; err != nil {
		return s, err
	}
	var value decimal.NullDecimal
	if err := base().Select("SUM(total)").Row().Scan(&value); err != nil {
		return s, err
	}
	s.TotalValue = decimal.Zero
	if value.Valid {
		s.TotalValue = value.Decimal
	}
	return s, nil
}

func (r *orderRepo) Recent(ctx context.Context, teamID uuid.UUID, n int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Limit(n).
		Find(&orders).Error
	return orders, err
}
