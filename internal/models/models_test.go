package models

import (
	"testing"
	"time"
)

func TestValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"administrator", true},
		{"standard", true},
		{"document_controller", true},
		{"view_only", true},
		{"Administrator", false},
		{"", false},
		{"root", false},
	}
	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.want {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestUser_IsAdmin(t *testing.T) {
	var nilUser *User
	if nilUser.IsAdmin() {
		t.Error("nil user must not be admin")
	}
	if (&User{Role: RoleStandard}).IsAdmin() {
		t.Error("standard user must not be admin")
	}
	if !(&User{Role: RoleAdministrator}).IsAdmin() {
		t.Error("administrator must be admin")
	}
}

func TestIsSearchable(t *testing.T) {
	if !IsSearchable("serial_number") || !IsSearchable("remarks") {
		t.Error("expected text columns to be searchable")
	}
	for _, col := range []string{"id", "estimated_cost", "serial_number; DROP TABLE assets", ""} {
		if IsSearchable(col) {
			t.Errorf("IsSearchable(%q) = true, want false", col)
		}
	}
}

func TestNewDate_TruncatesClock(t *testing.T) {
	in := time.Date(2023, 5, 17, 15, 4, 5, 0, time.FixedZone("X", 3600))
	got, ok := DateOf(NewDate(in))
	if !ok {
		t.Fatal("expected date to be set")
	}
	want := time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NewDate() = %v, want %v", got, want)
	}
	if _, ok := DateOf(nil); ok {
		t.Error("DateOf(nil) must report unset")
	}
}
