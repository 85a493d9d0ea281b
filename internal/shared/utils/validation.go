package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxJSONSize  = 4 * 1024 * 1024 // 4MB - whole workspace document
	MaxWriteSize = 1 * 1024 * 1024 // 1MB - single PTY write
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxPathLength        = 4096
	MaxCommandLength     = 8192
	MaxDescriptionLength = 64 * 1024
)

// Terminal dimension limits
const (
	MaxTerminalCols = 1000
	MaxTerminalRows = 1000
)

// SafeIDPattern allows alphanumeric, hyphens, underscores and dots
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateName validates a display name. Whitespace-only names are rejected.
func ValidateName(name, fieldName string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidatePath validates a filesystem path argument
func ValidatePath(path, fieldName string, required bool) error {
	return ValidateString(path, fieldName, 1, MaxPathLength, required)
}

// ValidateDimensions validates terminal columns and rows
func ValidateDimensions(cols, rows int) error {
	if cols <= 0 || cols > MaxTerminalCols {
		return fmt.Errorf("cols must be between 1 and %d", MaxTerminalCols)
	}
	if rows <= 0 || rows > MaxTerminalRows {
		return fmt.Errorf("rows must be between 1 and %d", MaxTerminalRows)
	}
	return nil
}

// ValidateSize checks a payload against a byte limit
func ValidateSize(data []byte, maxSize int, fieldName string) error {
	if len(data) > maxSize {
		return fmt.Errorf("%s size %d bytes exceeds maximum %d bytes", fieldName, len(data), maxSize)
	}
	return nil
}
