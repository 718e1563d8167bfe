package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// Cylinder is the long-lived physical asset every movement row references.
// Location is warehouse XOR customer; status decides which side must be set.
// Exclusivity against orders is derived from the one active assignment row
// per cylinder, not mirrored here.
type Cylinder struct {
	ID              int64                `gorm:"column:id;primaryKey;autoIncrement"`
	Barcode         string               `gorm:"column:barcode;not null;uniqueIndex"`
	PropertyID      int64                `gorm:"column:cylinder_property_id;not null"`
	GasTypeID       *int64               `gorm:"column:gas_type_id"`
	WarehouseID     *int64               `gorm:"column:warehouse_id"`
	CustomerID      *int64               `gorm:"column:customer_id"`
	Status          enums.CylinderStatus `gorm:"column:status;type:cylinder_status;not null"`
	ManufactureDate time.Time            `gorm:"column:manufacture_date;type:date;not null"`
	LastFillDate    *time.Time           `gorm:"column:last_fill_date;type:date"`
	OwnedByCustomer bool                 `gorm:"column:owned_by_customer;not null;default:false"`
	Notes           *string              `gorm:"column:notes"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Property  *CylinderProperty `gorm:"foreignKey:PropertyID"`
	GasType   *GasType          `gorm:"foreignKey:GasTypeID"`
	Warehouse *Warehouse        `gorm:"foreignKey:WarehouseID"`
	Customer  *Customer         `gorm:"foreignKey:CustomerID"`
}
