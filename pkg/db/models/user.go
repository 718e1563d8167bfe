package models

import "time"

// User is the acting staff member recorded on movements and history rows.
// Roles and permissions are the caller's concern; the core only needs the
// actor identity and, for warehouse staff, their assigned warehouse.
type User struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null"`
	Username    string    `gorm:"column:username;not null;uniqueIndex"`
	WarehouseID *int64    `gorm:"column:warehouse_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
