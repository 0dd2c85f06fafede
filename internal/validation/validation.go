// Package validation checks user-supplied paths before they reach the
// filesystem.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
)

// ValidatePath rejects empty or overlong paths and paths containing NUL or
// other control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}
