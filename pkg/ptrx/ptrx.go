// Package ptrx provides pointer helpers for optional request fields.
package ptrx

import "time"

// Bool returns a pointer to the given bool.
func Bool(v bool) *bool { return &v }

// String returns a pointer to the given string.
func String(v string) *string { return &v }

// Int returns a pointer to the given int.
func Int(v int) *int { return &v }

// Time returns a pointer to the given time.
func Time(v time.Time) *time.Time { return &v }

// BoolValue dereferences p, returning false when p is nil.
func BoolValue(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

// StringValue dereferences p, returning "" when p is nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
