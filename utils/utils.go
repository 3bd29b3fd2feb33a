// Package utils provides utility functions for the application.
package utils

import "strings"

func ToPtr[T any](v T) *T {
	return &v
}

// TrimToNil trims whitespace and returns nil for an empty result
func TrimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
