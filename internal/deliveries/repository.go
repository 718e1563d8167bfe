package deliveries

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// Repository persists deliveries and reads the dispatch queue.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	Update(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id int64) (*models.Delivery, error)
	GetByTrackingCode(ctx context.Context, code string) (*models.Delivery, error)
	ListActiveForDriver(ctx context.Context, driverUserID int64) ([]models.Delivery, error)
	ListReadyOrders(ctx context.Context, warehouseID int64) ([]models.Order, error)
	HasActiveDeliveryForOrder(ctx context.Context, orderID int64) (bool, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed delivery repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.conn.WithContext(ctx).Create(delivery).Error
}

func (r *gormRepository) Update(ctx context.Context, delivery *models.Delivery) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(delivery).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id int64) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.conn.WithContext(ctx).
		Preload("Order").
		Preload("Order.Customer").
		First(&delivery, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *gormRepository) GetByTrackingCode(ctx context.Context, code string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.conn.WithContext(ctx).
		Preload("Order").
		First(&delivery, "tracking_code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *gormRepository) ListActiveForDriver(ctx context.Context, driverUserID int64) ([]models.Delivery, error) {
	var rows []models.Delivery
	err := r.conn.WithContext(ctx).
		Preload("Order").
		Preload("Order.Customer").
		Where("driver_user_id = ?", driverUserID).
		Where("status IN ?", []enums.DeliveryStatus{enums.DeliveryStatusAwaitingPickup, enums.DeliveryStatusInTransit}).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListReadyOrders is the dispatch queue: orders staged and waiting for a
// driver, oldest first.
func (r *gormRepository) ListReadyOrders(ctx context.Context, warehouseID int64) ([]models.Order, error) {
	query := r.conn.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("status = ?", enums.OrderStatusReadyToShip)
	if warehouseID != 0 {
		query = query.Where("assigned_warehouse_id = ?", warehouseID)
	}

	var rows []models.Order
	err := query.Order("order_date ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) HasActiveDeliveryForOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("order_id = ?", orderID).
		Where("status IN ?", []enums.DeliveryStatus{enums.DeliveryStatusAwaitingPickup, enums.DeliveryStatusInTransit}).
		Count(&count).Error
	return count > 0, err
}
