package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// OrderItemAssignment binds exactly one cylinder to exactly one order item.
// A partial unique index on cylinder_id over the active statuses enforces
// the exclusivity lock under concurrent assignment attempts.
type OrderItemAssignment struct {
	ID          int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderItemID int64                  `gorm:"column:order_item_id;not null"`
	CylinderID  int64                  `gorm:"column:cylinder_id;not null"`
	Status      enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'allocated'"`
	AssignedAt  time.Time              `gorm:"column:assigned_at;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Cylinder *Cylinder `gorm:"foreignKey:CylinderID"`
}
