package models

import "time"

// Customer is an external collaborator the core validates cylinder
// ownership and delivery destinations against.
type Customer struct {
	ID                     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name                   string    `gorm:"column:name;not null"`
	CompanyName            *string   `gorm:"column:company_name"`
	Phone                  *string   `gorm:"column:phone"`
	DefaultShippingAddress string    `gorm:"column:default_shipping_address;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
