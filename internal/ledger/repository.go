package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	"github.com/gasindo/gastrack-backend/pkg/pagination"
)

// Filter narrows ledger list queries. Zero-valued fields are ignored.
type Filter struct {
	CylinderID  int64
	OrderID     int64
	ActorUserID int64
	WarehouseID int64
	Type        enums.MovementType
	From        time.Time
	To          time.Time
}

// Repository persists and reads immutable stock movement rows. There is no
// update or delete on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.StockMovement) error
	ListByCylinder(ctx context.Context, cylinderID int64, from, to time.Time) ([]models.StockMovement, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.StockMovement], error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the GORM-backed ledger repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{conn: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, movement *models.StockMovement) error {
	return r.conn.WithContext(ctx).Create(movement).Error
}

// ListByCylinder returns the movement history of one cylinder, oldest first,
// so the rows read as the cylinder's life story. Zero times mean no bound.
func (r *gormRepository) ListByCylinder(ctx context.Context, cylinderID int64, from, to time.Time) ([]models.StockMovement, error) {
	query := r.conn.WithContext(ctx).
		Where("cylinder_id = ?", cylinderID)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	var rows []models.StockMovement
	err := query.
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.StockMovement], error) {
	params = params.Normalize()

	query := r.conn.WithContext(ctx).Model(&models.StockMovement{})
	if filter.CylinderID != 0 {
		query = query.Where("cylinder_id = ?", filter.CylinderID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ActorUserID != 0 {
		query = query.Where("actor_user_id = ?", filter.ActorUserID)
	}
	if filter.WarehouseID != 0 {
		query = query.Where("from_warehouse_id = ? OR to_warehouse_id = ?", filter.WarehouseID, filter.WarehouseID)
	}
	if filter.Type != "" {
		query = query.Where("movement_type = ?", filter.Type)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return pagination.Result[models.StockMovement]{}, err
	}

	var rows []models.StockMovement
	err := query.
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return pagination.Result[models.StockMovement]{}, err
	}

	return pagination.Result[models.StockMovement]{
		Items:      rows,
		TotalItems: total,
		Page:       params.Page,
		Limit:      params.Limit,
	}, nil
}
