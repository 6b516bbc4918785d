package depot

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidFileName validates that a name can be used as a public file identifier.
// It checks that the name:
//   - is not empty, "." or ".."
//   - contains no path separators (/ or \)
//   - is valid UTF-8
//   - contains no null bytes or control characters
//   - is at most 255 bytes long
//
// Spaces are allowed since they are common in uploaded file names.
func IsValidFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > 255 {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r == 0 || r == 0x7f || unicode.IsControl(r) {
			return false
		}
	}

	return true
}

// NormalizeMediaType returns the lower-cased media type of a Content-Type
// value with its parameters removed, or "" if it cannot be parsed.
func NormalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mediaType
}

var validWarehouseNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// IsValidWarehouseName checks if a warehouse name is usable as a URL segment (lowercase, max 63 chars).
func IsValidWarehouseName(name string) bool {
	return validWarehouseNameRegex.MatchString(name) && len(name) <= 63
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Events == "" {
		return errors.New("validate tables: events table name cannot be empty")
	}

	if !IsValidTableName(t.Events) {
		return fmt.Errorf("validate tables: invalid events table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Events)
	}

	return nil
}
