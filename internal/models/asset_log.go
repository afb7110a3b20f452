package models

import "time"

// Action tags written to the asset log.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionMoveToActive = "move_to_active"
	ActionMoveToStock  = "move_to_stock"
	ActionImport       = "import"
)

// AssetLog is an append-only audit row. AssetID carries no foreign key so
// rows outlive the asset they describe.
type AssetLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"column:asset_id;not null;index" json:"asset_id"`
	UserID    *uint     `gorm:"column:user_id;index" json:"user_id"`
	Action    string    `gorm:"column:action;size:50;not null" json:"action"`
	Details   string    `gorm:"column:details;type:text" json:"details"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
}

// HistoryEntry is an AssetLog row joined with the acting username.
type HistoryEntry struct {
	ID        uint      `json:"id"`
	AssetID   uint      `json:"asset_id"`
	UserID    *uint     `json:"user_id"`
	Username  *string   `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
