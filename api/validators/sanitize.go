package validators

import "strings"

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeOptional trims a pointer value, returning nil for blank input.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	value := SanitizeString(*input, maxLen)
	if value == "" {
		return nil
	}
	return &value
}
