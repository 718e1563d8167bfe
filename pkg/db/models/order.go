package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// Order aggregates the line items requested by one customer and carries the
// coarse fulfillment status summarizing them.
type Order struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      int64             `gorm:"column:customer_id;not null"`
	SalesUserID     int64             `gorm:"column:sales_user_id;not null"`
	WarehouseID     int64             `gorm:"column:assigned_warehouse_id;not null"`
	OrderDate       time.Time         `gorm:"column:order_date;not null"`
	Type            enums.OrderType   `gorm:"column:order_type;type:order_type;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'new'"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	CustomerNotes   *string           `gorm:"column:customer_notes"`
	InternalNotes   *string           `gorm:"column:internal_notes"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Customer  *Customer   `gorm:"foreignKey:CustomerID"`
	Warehouse *Warehouse  `gorm:"foreignKey:WarehouseID"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}
