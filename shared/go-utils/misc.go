package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

func Val[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}

// NormalizeKey trims and lower-cases a tenant slug or email so comparisons
// are case and whitespace insensitive.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrimmedPtr returns nil for nil or blank input, otherwise a pointer to the
// trimmed value. Form fields that were submitted empty count as absent.
func TrimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
