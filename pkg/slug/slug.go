package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make lower-cases name and replaces each run of whitespace with a single dash.
func Make(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(name)), unicode.IsSpace)
	return strings.Join(fields, "-")
}

// Copy returns the nth duplicate slug of base: base-copy, base-copy-2, ...
func Copy(base string, n int) string {
	if n <= 1 {
		return base + "-copy"
	}
	return fmt.Sprintf("%s-copy-%d", base, n)
}
