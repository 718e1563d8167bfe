package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// StockMovement is the immutable ledger row recording one physical or
// state-changing event for one cylinder. Rows are only ever inserted; they
// are the sole source of truth for how a cylinder got where it is.
type StockMovement struct {
	ID              int64              `gorm:"column:id;primaryKey;autoIncrement"`
	CylinderID      int64              `gorm:"column:cylinder_id;not null;index"`
	ActorUserID     int64              `gorm:"column:actor_user_id;not null"`
	Type            enums.MovementType `gorm:"column:movement_type;type:movement_type;not null"`
	FromWarehouseID *int64             `gorm:"column:from_warehouse_id"`
	ToWarehouseID   *int64             `gorm:"column:to_warehouse_id"`
	FromCustomerID  *int64             `gorm:"column:from_customer_id"`
	ToCustomerID    *int64             `gorm:"column:to_customer_id"`
	OrderID         *int64             `gorm:"column:order_id"`
	Notes           string             `gorm:"column:notes;not null"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`

	Cylinder *Cylinder `gorm:"foreignKey:CylinderID"`
	Actor    *User     `gorm:"foreignKey:ActorUserID"`
}
