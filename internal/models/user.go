package models

import "time"

// Role is the single permission role a user holds.
type Role string

const (
	RoleAdministrator      Role = "administrator"
	RoleStandard           Role = "standard"
	RoleDocumentController Role = "document_controller"
	RoleViewOnly           Role = "view_only"
)

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleStandard, RoleDocumentController, RoleViewOnly}
}

// ValidRole reports whether s names one of the fixed roles.
func ValidRole(s string) bool {
	for _, r := range Roles() {
		if string(r) == s {
			return true
		}
	}
	return false
}

// User is an account allowed to operate on the inventory.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"column:username;size:100;not null;uniqueIndex" json:"username"`
	Password  string     `gorm:"column:password;size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role      Role       `gorm:"column:role;size:50;not null" json:"role"`
	Email     string     `gorm:"column:email;size:255" json:"email,omitempty"`
	FullName  string     `gorm:"column:full_name;size:255" json:"full_name"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	LastLogin *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
}

// IsAdmin reports whether u holds the administrator role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdministrator }
