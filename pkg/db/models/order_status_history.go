package models

import (
	"time"

	"github.com/gasindo/gastrack-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit counterpart of the stock
// movement ledger: one row per order status transition, never updated.
type OrderStatusHistory struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64             `gorm:"column:order_id;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	ActorUserID int64             `gorm:"column:actor_user_id;not null"`
	Notes       *string           `gorm:"column:notes"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
