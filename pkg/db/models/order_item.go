package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one requested line within an order. Quantity is immutable
// after creation; assignments accumulate against it up to that quantity.
type OrderItem struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64           `gorm:"column:order_id;not null"`
	ProductID       int64           `gorm:"column:product_id;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	Unit            string          `gorm:"column:unit;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	IsRental        bool            `gorm:"column:is_rental;not null;default:false"`
	RentalStartDate *time.Time      `gorm:"column:rental_start_date;type:date"`
	RentalEndDate   *time.Time      `gorm:"column:rental_end_date;type:date"`
	WarehouseNotes  *string         `gorm:"column:warehouse_notes"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product     *Product              `gorm:"foreignKey:ProductID"`
	Assignments []OrderItemAssignment `gorm:"foreignKey:OrderItemID"`
}
