// Package validation collects field-level input problems.
package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/diewo77/go-assets/internal/apperr"
)

// Violations maps a field name to a problem code such as "required".
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when v is empty, otherwise an *Error wrapping apperr.ErrValidation.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Fields: v}
}

// Error reports every violation at once.
type Error struct {
	Fields Violations
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return apperr.ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *Error) Unwrap() error { return apperr.ErrValidation }

// FieldsOf returns the violations carried by err, if any.
func FieldsOf(err error) Violations {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// OneOf records "invalid_choice" unless value is in allowed. Empty values
// are left to Required.
func OneOf(field, value string, allowed []string, v Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v[field] = "invalid_choice"
}

// NonNegativeFloat accepts nil.
func NonNegativeFloat(field string, val *float64, v Violations) {
	if val != nil && *val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if len(value) > n {
		v[field] = "too_long"
	}
}
