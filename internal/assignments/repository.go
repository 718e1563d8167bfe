package assignments

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// CandidateQuery selects cylinders eligible for assignment to one item.
// MaxAgeYears excludes cylinders built too long ago; zero means no limit.
type CandidateQuery struct {
	WarehouseID int64
	GasTypeID   int64
	PropertyID  int64
	MaxAgeYears int
	Limit       int
}

// Repository reads the order side and writes assignment rows. It queries
// orders and items directly through the shared models so the engine does not
// depend on the orders package.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderItem(ctx context.Context, itemID int64) (*models.OrderItem, error)
	ListItemsForOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	CountActiveForItem(ctx context.Context, itemID int64) (int64, error)
	ListCandidates(ctx context.Context, query CandidateQuery) ([]models.Cylinder, error)
	GetCylinderByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error)
	HasActiveAssignment(ctx context.Context, cylinderID int64) (bool, error)
	CreateAssignment(ctx context.Context, assignment *models.OrderItemAssignment) error
	ListActiveForOrder(ctx context.Context, orderID int64) ([]models.OrderItemAssignment, error)
	UpdateAssignment(ctx context.Context, assignment *models.OrderItemAssignment) error
	DeleteAssignment(ctx context.Context, assignmentID int64) error
	UpdateCylinder(ctx context.Context, cylinder *models.Cylinder) error
	GetCylinder(ctx context.Context, id int64) (*models.Cylinder, error)
	GetActiveByCylinder(ctx context.Context, cylinderID int64) (*models.OrderItemAssignment, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed assignment repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) GetOrderItem(ctx context.Context, itemID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.conn.WithContext(ctx).
		Preload("Product").
		Preload("Product.Property").
		First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormRepository) ListItemsForOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.conn.WithContext(ctx).
		Preload("Product").
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error
	return items, err
}

func (r *gormRepository) CountActiveForItem(ctx context.Context, itemID int64) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Where("order_item_id = ? AND status IN ?", itemID, enums.ActiveAssignmentStatuses()).
		Count(&count).Error
	return count, err
}

// ListCandidates returns full cylinders matching the item's product class in
// the order's warehouse, oldest build first with oldest fill as tie-break,
// skipping any cylinder an active assignment already holds and anything past
// its safe age.
func (r *gormRepository) ListCandidates(ctx context.Context, query CandidateQuery) ([]models.Cylinder, error) {
	held := r.conn.
		Model(&models.OrderItemAssignment{}).
		Select("cylinder_id").
		Where("status IN ?", enums.ActiveAssignmentStatuses())

	tx := r.conn.WithContext(ctx).
		Where("status = ?", enums.CylinderStatusFullInWarehouse).
		Where("warehouse_id = ?", query.WarehouseID).
		Where("gas_type_id = ?", query.GasTypeID).
		Where("cylinder_property_id = ?", query.PropertyID).
		Where("id NOT IN (?)", held)
	if query.MaxAgeYears > 0 {
		tx = tx.Where("manufacture_date >= ?", time.Now().AddDate(-query.MaxAgeYears, 0, 0))
	}

	var rows []models.Cylinder
	err := tx.
		Order("manufacture_date ASC, last_fill_date ASC, id ASC").
		Limit(query.Limit).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) GetCylinderByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error) {
	var cylinder models.Cylinder
	err := r.conn.WithContext(ctx).First(&cylinder, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &cylinder, nil
}

func (r *gormRepository) GetCylinder(ctx context.Context, id int64) (*models.Cylinder, error) {
	var cylinder models.Cylinder
	err := r.conn.WithContext(ctx).First(&cylinder, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cylinder, nil
}

func (r *gormRepository) HasActiveAssignment(ctx context.Context, cylinderID int64) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Where("cylinder_id = ? AND status IN ?", cylinderID, enums.ActiveAssignmentStatuses()).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) CreateAssignment(ctx context.Context, assignment *models.OrderItemAssignment) error {
	return r.conn.WithContext(ctx).Create(assignment).Error
}

// ListActiveForOrder joins assignments to the order's items.
func (r *gormRepository) ListActiveForOrder(ctx context.Context, orderID int64) ([]models.OrderItemAssignment, error) {
	var rows []models.OrderItemAssignment
	err := r.conn.WithContext(ctx).
		Joins("JOIN order_items ON order_items.id = order_item_assignments.order_item_id").
		Where("order_items.order_id = ?", orderID).
		Where("order_item_assignments.status IN ?", enums.ActiveAssignmentStatuses()).
		Order("order_item_assignments.id").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UpdateAssignment(ctx context.Context, assignment *models.OrderItemAssignment) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(assignment).Error
}

func (r *gormRepository) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	return r.conn.WithContext(ctx).Delete(&models.OrderItemAssignment{}, assignmentID).Error
}

func (r *gormRepository) UpdateCylinder(ctx context.Context, cylinder *models.Cylinder) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(cylinder).Error
}

func (r *gormRepository) GetActiveByCylinder(ctx context.Context, cylinderID int64) (*models.OrderItemAssignment, error) {
	var assignment models.OrderItemAssignment
	err := r.conn.WithContext(ctx).
		Where("cylinder_id = ? AND status IN ?", cylinderID, enums.ActiveAssignmentStatuses()).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
