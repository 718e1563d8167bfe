package orders

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	"github.com/gasindo/gastrack-backend/pkg/pagination"
)

// Filter narrows order list queries. Zero-valued fields are ignored.
type Filter struct {
	CustomerID  int64
	WarehouseID int64
	SalesUserID int64
	Status      enums.OrderStatus
	Type        enums.OrderType
}

// Repository persists orders, items, and the status audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.Order], error)
	ListByStatuses(ctx context.Context, warehouseID int64, statuses []enums.OrderStatus) ([]models.Order, error)
	CountActiveAssignments(ctx context.Context, orderID int64) (int64, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	GetProducts(ctx context.Context, ids []int64) ([]models.Product, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed order repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, order *models.Order) error {
	return r.conn.WithContext(ctx).Create(order).Error
}

func (r *gormRepository) Update(ctx context.Context, order *models.Order) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Assignments").
		Preload("Items.Assignments.Cylinder").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Assignments").
		Preload("Items.Assignments.Cylinder").
		First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.Order], error) {
	params = params.Normalize()

	query := r.conn.WithContext(ctx).Model(&models.Order{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.WarehouseID != 0 {
		query = query.Where("assigned_warehouse_id = ?", filter.WarehouseID)
	}
	if filter.SalesUserID != 0 {
		query = query.Where("sales_user_id = ?", filter.SalesUserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("order_type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return pagination.Result[models.Order]{}, err
	}

	var rows []models.Order
	err := query.
		Preload("Customer").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return pagination.Result[models.Order]{}, err
	}

	return pagination.Result[models.Order]{
		Items:      rows,
		TotalItems: total,
		Page:       params.Page,
		Limit:      params.Limit,
	}, nil
}

func (r *gormRepository) ListByStatuses(ctx context.Context, warehouseID int64, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.conn.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Where("status IN ?", statuses)
	if warehouseID != 0 {
		query = query.Where("assigned_warehouse_id = ?", warehouseID)
	}

	var rows []models.Order
	err := query.Order("order_date ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) CountActiveAssignments(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Joins("JOIN order_items ON order_items.id = order_item_assignments.order_item_id").
		Where("order_items.order_id = ?", orderID).
		Where("order_item_assignments.status IN ?", enums.ActiveAssignmentStatuses()).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.conn.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) ListHistory(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.conn.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.conn.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) GetProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.conn.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}
