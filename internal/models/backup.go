package models

import "time"

// Backup status values. Failed attempts use "error: <message>".
const (
	BackupSuccess = "success"
	BackupExpired = "deleted (expired)"
)

// Backup records one snapshot attempt of the database file.
type Backup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Filename  string    `gorm:"column:filename;size:255;not null" json:"filename"`
	Path      string    `gorm:"column:path;size:1024;not null" json:"path"`
	Size      int64     `gorm:"column:size;not null;default:0" json:"size"`
	Status    string    `gorm:"column:status;size:255;not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}
