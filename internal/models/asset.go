package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conventional asset statuses. Status is free-form text; only these two
// values drive the issue/return workflow.
const (
	StatusActive = "Active"
	StatusStock  = "Stock"
)

// Asset is one inventoried hardware item.
type Asset struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SerialNumber   string          `gorm:"column:serial_number;size:100;not null;uniqueIndex" json:"serial_number"`
	Company        string          `gorm:"column:company;size:255" json:"company"`
	Location       string          `gorm:"column:location;size:255" json:"location"`
	Category       string          `gorm:"column:category;size:100;not null;index" json:"category"`
	Status         string          `gorm:"column:status;size:50;index" json:"status"`
	Username       string          `gorm:"column:username;size:255" json:"username"`
	Designation    string          `gorm:"column:designation;size:255" json:"designation"`
	Department     string          `gorm:"column:department;size:255" json:"department"`
	Model          string          `gorm:"column:model;size:255" json:"model"`
	Description    string          `gorm:"column:description;type:text" json:"description"`
	IssueDate      *datatypes.Date `gorm:"column:issue_date" json:"issue_date"`
	ComputerID     string          `gorm:"column:computer_id;size:100" json:"computer_id"`
	WorkingStatus  string          `gorm:"column:working_status;size:100" json:"working_status"`
	Condition      string          `gorm:"column:condition;size:100" json:"condition"`
	Audit          string          `gorm:"column:audit;size:255" json:"audit"`
	EmployeeID     string          `gorm:"column:employee_id;size:100" json:"employee_id"`
	PurchaseDate   *datatypes.Date `gorm:"column:purchase_date" json:"purchase_date"`
	RackTrayNumber string          `gorm:"column:rack_tray_number;size:100" json:"rack_tray_number"`
	ServiceCenter  string          `gorm:"column:service_center;size:255" json:"service_center"`
	LPONumber      string          `gorm:"column:lpo_number;size:100" json:"lpo_number"`
	InvoiceNumber  string          `gorm:"column:invoice_number;size:100" json:"invoice_number"`
	Supplier       string          `gorm:"column:supplier;size:255" json:"supplier"`
	EstimatedCost  *float64        `gorm:"column:estimated_cost" json:"estimated_cost"`
	Remarks        string          `gorm:"column:remarks;type:text" json:"remarks"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// SearchableColumns lists the asset columns accepted as search filters.
var SearchableColumns = []string{
	"serial_number", "company", "location", "category", "status",
	"username", "designation", "department", "model", "description",
	"computer_id", "working_status", "condition", "audit", "employee_id",
	"rack_tray_number", "service_center", "lpo_number", "invoice_number",
	"supplier", "remarks",
}

// IsSearchable reports whether column may be used as a search filter.
func IsSearchable(column string) bool {
	for _, c := range SearchableColumns {
		if c == column {
			return true
		}
	}
	return false
}

// NewDate converts t to a calendar date pointer.
func NewDate(t time.Time) *datatypes.Date {
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return &d
}

// DateOf returns the time value of d and whether it is set.
func DateOf(d *datatypes.Date) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	return time.Time(*d), true
}
