package utils

import (
	"strings"
	"unicode"
)

// SplitFullName splits a full name into first and last parts. The first
// token becomes the first name and everything after it the last name.
// ok is false when the name has fewer than two tokens.
func SplitFullName(fullName string) (first, last string, ok bool) {
	parts := strings.FieldsFunc(strings.TrimSpace(fullName), unicode.IsSpace)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], strings.Join(parts[1:], " "), true
}

// MaskName masks a full name for logging (e.g. "Ada Obi Eze" -> "Ada O** Eze")
func MaskName(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		name := parts[0]
		if len(name) <= 1 {
			return name
		}
		return name[:1] + strings.Repeat("*", len(name)-1)
	}

	masked := make([]string, len(parts))
	masked[0] = parts[0]
	masked[len(parts)-1] = parts[len(parts)-1]
	for i := 1; i < len(parts)-1; i++ {
		if len(parts[i]) > 1 {
			masked[i] = parts[i][:1] + strings.Repeat("*", len(parts[i])-1)
		} else {
			masked[i] = parts[i]
		}
	}
	return strings.Join(masked, " ")
}
