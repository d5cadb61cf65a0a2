package repository

import (
	"context"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryRepository interface {
	CreateTx(tx *gorm.DB, d *model.Delivery) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error)
	FindByOrderIDTx(tx *gorm.DB, orderID uuid.UUID) (*model.Delivery, error)
	UpdateTx(tx *gorm.DB, d *model.Delivery) error
}

type deliveryRepo struct{ db *gorm.DB }

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository { return &deliveryRepo{db: db} }

func (r *deliveryRepo) CreateTx(tx *gorm.DB, d *model.Delivery) error {
	return conn(r.db, tx).Omit(clause.Associations).Create(d).Error
}

func (r *deliveryRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	return r.FindByOrderIDTx(r.db.WithContext(ctx), orderID)
}

func (r *deliveryRepo) FindByOrderIDTx(tx *gorm.DB, orderID uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	err := conn(r.db, tx).Where("order_id = ?", orderID).First(&d).Error
	return &d, err
}

func (r *deliveryRepo) UpdateTx(tx *gorm.DB, d *model.Delivery) error {
	return conn(r.db, tx).Omit(clause.Associations).Save(d).Error
}
