package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CylinderProperty is the physical class of a cylinder:
// size, material, and the maximum safe age counted from manufacture.
type CylinderProperty struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string          `gorm:"column:name;not null"`
	SizeCubicMeter decimal.Decimal `gorm:"column:size_cubic_meter;type:numeric(10,2);not null"`
	Material       string          `gorm:"column:material;not null"`
	MaxAgeYears    int             `gorm:"column:max_age_years;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
