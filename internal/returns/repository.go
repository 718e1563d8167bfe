package returns

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// Repository persists returned-cylinder records and the cylinder updates the
// return leg makes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateReturn(ctx context.Context, record *models.ReturnedCylinder) error
	UpdateReturn(ctx context.Context, record *models.ReturnedCylinder) error
	GetOpenReturnByCylinder(ctx context.Context, cylinderID int64) (*models.ReturnedCylinder, error)
	ListIncoming(ctx context.Context, warehouseID int64) ([]models.ReturnedCylinder, error)
	HasOpenReturn(ctx context.Context, cylinderID int64) (bool, error)
	GetCylinderByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error)
	UpdateCylinder(ctx context.Context, cylinder *models.Cylinder) error
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed returns repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) CreateReturn(ctx context.Context, record *models.ReturnedCylinder) error {
	return r.conn.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) UpdateReturn(ctx context.Context, record *models.ReturnedCylinder) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(record).Error
}

// GetOpenReturnByCylinder finds the one return still on a truck for this
// cylinder. The open-return guard at pickup keeps it unique.
func (r *gormRepository) GetOpenReturnByCylinder(ctx context.Context, cylinderID int64) (*models.ReturnedCylinder, error) {
	var record models.ReturnedCylinder
	err := r.conn.WithContext(ctx).
		Where("cylinder_id = ? AND status = ?", cylinderID, enums.ReturnStatusWithDriver).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListIncoming is the warehouse intake queue: cylinders on a truck headed
// this way, oldest pickup first.
func (r *gormRepository) ListIncoming(ctx context.Context, warehouseID int64) ([]models.ReturnedCylinder, error) {
	query := r.conn.WithContext(ctx).
		Preload("Cylinder").
		Preload("Customer").
		Where("status = ?", enums.ReturnStatusWithDriver)
	if warehouseID != 0 {
		query = query.Where("destination_warehouse_id = ?", warehouseID)
	}

	var rows []models.ReturnedCylinder
	err := query.Order("picked_up_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) HasOpenReturn(ctx context.Context, cylinderID int64) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.ReturnedCylinder{}).
		Where("cylinder_id = ? AND status = ?", cylinderID, enums.ReturnStatusWithDriver).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GetCylinderByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error) {
	var cylinder models.Cylinder
	err := r.conn.WithContext(ctx).First(&cylinder, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &cylinder, nil
}

func (r *gormRepository) UpdateCylinder(ctx context.Context, cylinder *models.Cylinder) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(cylinder).Error
}
