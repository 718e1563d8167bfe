package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// ReturnedCylinder tracks one cylinder travelling back from a customer to a
// warehouse. The record is open (with_driver) until warehouse intake
// receives the cylinder and closes it.
type ReturnedCylinder struct {
	ID                     int64              `gorm:"column:id;primaryKey;autoIncrement"`
	CylinderID             int64              `gorm:"column:cylinder_id;not null;index"`
	PickedUpFromCustomerID int64              `gorm:"column:picked_up_from_customer_id;not null"`
	PickedUpByDriverID     int64              `gorm:"column:picked_up_by_driver_id;not null"`
	DeliveryID             *int64             `gorm:"column:delivery_id"`
	DestinationWarehouseID int64              `gorm:"column:destination_warehouse_id;not null"`
	Status                 enums.ReturnStatus `gorm:"column:status;type:return_status;not null;default:'with_driver'"`
	PickedUpAt             time.Time          `gorm:"column:picked_up_at;not null"`
	ReceivedAt             *time.Time         `gorm:"column:received_at"`
	CreatedAt              time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Cylinder *Cylinder `gorm:"foreignKey:CylinderID"`
	Customer *Customer `gorm:"foreignKey:PickedUpFromCustomerID"`
	Driver   *User     `gorm:"foreignKey:PickedUpByDriverID"`
}
