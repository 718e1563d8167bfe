package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// Delivery aggregates the cylinders physically moving for one order.
type Delivery struct {
	ID               int64                `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID          int64                `gorm:"column:order_id;not null"`
	DriverUserID     int64                `gorm:"column:driver_user_id;not null"`
	AssignedByUserID int64                `gorm:"column:assigned_by_user_id;not null"`
	VehicleNumber    *string              `gorm:"column:vehicle_number"`
	DocumentNumber   string               `gorm:"column:document_number;not null;uniqueIndex"`
	TrackingCode     string               `gorm:"column:tracking_code;not null"`
	Status           enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null;default:'awaiting_pickup'"`
	DispatchedAt     *time.Time           `gorm:"column:dispatched_at"`
	CompletedAt      *time.Time           `gorm:"column:completed_at"`
	DriverNotes      *string              `gorm:"column:driver_notes"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Order *Order `gorm:"foreignKey:OrderID"`
}
