package models

// DocSequence is an atomic per-prefix counter for human-readable document
// numbers (order numbers, shipment documents). Incrementing the row inside
// the caller's transaction replaces the race-prone "last row with this
// prefix" lookup.
type DocSequence struct {
	Prefix    string `gorm:"column:prefix;primaryKey"`
	NextValue int64  `gorm:"column:next_value;not null;default:0"`
}
