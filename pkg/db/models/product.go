package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable/rentable offering binding a cylinder property spec
// to a gas type. Pricing is carried as an opaque snapshot; billing math
// happens outside the core.
type Product struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string          `gorm:"column:name;not null"`
	SKU        string          `gorm:"column:sku;not null;uniqueIndex"`
	PropertyID int64           `gorm:"column:cylinder_property_id;not null"`
	GasTypeID  int64           `gorm:"column:gas_type_id;not null"`
	Unit       string          `gorm:"column:unit;not null;default:'cylinder'"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Property *CylinderProperty `gorm:"foreignKey:PropertyID"`
	GasType  *GasType          `gorm:"foreignKey:GasTypeID"`
}
