package cylinders

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// StockSummaryRow is one bucket of the per-warehouse stock breakdown.
type StockSummaryRow struct {
	WarehouseID int64                `gorm:"column:warehouse_id" json:"warehouse_id"`
	Status      enums.CylinderStatus `gorm:"column:status" json:"status"`
	GasTypeID   *int64               `gorm:"column:gas_type_id" json:"gas_type_id,omitempty"`
	Count       int64                `gorm:"column:count" json:"count"`
}

// Repository persists cylinders and answers registry lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cylinder *models.Cylinder) error
	Update(ctx context.Context, cylinder *models.Cylinder) error
	GetByID(ctx context.Context, id int64) (*models.Cylinder, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error)
	ListByBarcodes(ctx context.Context, barcodes []string) ([]models.Cylinder, error)
	ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error)
	PropertyExists(ctx context.Context, id int64) (bool, error)
	WarehouseExists(ctx context.Context, id int64) (bool, error)
	GasTypeExists(ctx context.Context, id int64) (bool, error)
	HasActiveAssignment(ctx context.Context, cylinderID int64) (bool, error)
	StockSummary(ctx context.Context, warehouseID int64) ([]StockSummaryRow, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed cylinder repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, cylinder *models.Cylinder) error {
	return r.conn.WithContext(ctx).Create(cylinder).Error
}

func (r *gormRepository) Update(ctx context.Context, cylinder *models.Cylinder) error {
	return r.conn.WithContext(ctx).Omit(clause.Associations).Save(cylinder).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id int64) (*models.Cylinder, error) {
	var cylinder models.Cylinder
	err := r.conn.WithContext(ctx).
		Preload("Property").
		Preload("GasType").
		Preload("Warehouse").
		Preload("Customer").
		First(&cylinder, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cylinder, nil
}

func (r *gormRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Cylinder, error) {
	var cylinder models.Cylinder
	err := r.conn.WithContext(ctx).
		Preload("Property").
		Preload("GasType").
		Preload("Warehouse").
		Preload("Customer").
		First(&cylinder, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &cylinder, nil
}

func (r *gormRepository) ListByBarcodes(ctx context.Context, barcodes []string) ([]models.Cylinder, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var rows []models.Cylinder
	err := r.conn.WithContext(ctx).
		Where("barcode IN ?", barcodes).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.conn.WithContext(ctx).
		Model(&models.Cylinder{}).
		Where("barcode IN ?", barcodes).
		Pluck("barcode", &existing).Error
	return existing, err
}

func (r *gormRepository) PropertyExists(ctx context.Context, id int64) (bool, error) {
	return r.rowExists(ctx, &models.CylinderProperty{}, id)
}

func (r *gormRepository) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	return r.rowExists(ctx, &models.Warehouse{}, id)
}

func (r *gormRepository) GasTypeExists(ctx context.Context, id int64) (bool, error) {
	return r.rowExists(ctx, &models.GasType{}, id)
}

func (r *gormRepository) rowExists(ctx context.Context, model any, id int64) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// HasActiveAssignment reports whether an order currently holds this cylinder.
// Exclusivity is derived from assignment rows rather than a back-reference on
// the cylinder itself.
func (r *gormRepository) HasActiveAssignment(ctx context.Context, cylinderID int64) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Where("cylinder_id = ? AND status IN ?", cylinderID, enums.ActiveAssignmentStatuses()).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) StockSummary(ctx context.Context, warehouseID int64) ([]StockSummaryRow, error) {
	query := r.conn.WithContext(ctx).
		Model(&models.Cylinder{}).
		Select("warehouse_id, status, gas_type_id, COUNT(*) AS count").
		Where("warehouse_id IS NOT NULL").
		Group("warehouse_id, status, gas_type_id").
		Order("warehouse_id, status")
	if warehouseID != 0 {
		query = query.Where("warehouse_id = ?", warehouseID)
	}

	var rows []StockSummaryRow
	err := query.Find(&rows).Error
	return rows, err
}
