package errors

import (
	"strings"
	"unicode"
)

// ValidatePath checks that a user-supplied file path is usable.
// It rejects empty paths and paths containing control characters; it does
// not check that the file exists.
func ValidatePath(flag, path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "%s: path cannot be empty", flag)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "%s: path contains control characters", flag)
		}
	}
	return nil
}

// ValidatePositive returns an INVALID_INPUT error when v is not > 0.
func ValidatePositive(name string, v int64) error {
	if v <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %d", name, v)
	}
	return nil
}
