// Package errors provides the typed error taxonomy of the segmenter.
//
// Every fatal condition raised while enumerating a Standard Format source has
// its own type so callers can present it without parsing messages. All types
// unwrap to one of the sentinels below.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrFile indicates a source file could not be opened or read
	ErrFile = errors.New("file error")
	// ErrInvalidChapter indicates a chapter marker without a usable number
	ErrInvalidChapter = errors.New("invalid chapter number")
	// ErrInvalidMarker indicates a marker containing characters outside the marker alphabet
	ErrInvalidMarker = errors.New("invalid character in marker")
	// ErrConverterMissing indicates a legacy encoding converter is not installed
	ErrConverterMissing = errors.New("encoding converter missing")
	// ErrConversion indicates the legacy encoding converter failed
	ErrConversion = errors.New("encoding conversion failed")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "book", "encoding converter")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "YAML", "XML", "verse")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

// Unwrap exposes both the underlying decoder error and ErrInvalidInput.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrInvalidInput}
	}
	return []error{ErrInvalidInput}
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// FileError reports a failure to open or read a source file mid-stream.
// The file handle is always closed before a FileError is returned.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("error reading source file %s: %v", e.Path, e.Err)
}

// Is reports ErrFile so that errors.Is works while Unwrap exposes the cause.
func (e *FileError) Is(target error) bool {
	return target == ErrFile
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// InvalidChapterError reports a chapter marker whose content does not start
// with a chapter number.
type InvalidChapterError struct {
	Path        string
	Line        int
	LineText    string
	Book        string
	ChapterText string
}

func (e *InvalidChapterError) Error() string {
	return fmt.Sprintf("invalid chapter number %q for book %s at %s:%d: %q",
		e.ChapterText, e.Book, e.Path, e.Line, e.LineText)
}

func (e *InvalidChapterError) Unwrap() error {
	return ErrInvalidChapter
}

// InvalidMarkerError reports a marker token with characters outside the
// allowed marker alphabet.
type InvalidMarkerError struct {
	Marker    string
	Reference string
	Path      string
	Line      int
}

func (e *InvalidMarkerError) Error() string {
	return fmt.Sprintf("invalid character in marker %q at %s (%s:%d)", e.Marker, e.Reference, e.Path, e.Line)
}

func (e *InvalidMarkerError) Unwrap() error {
	return ErrInvalidMarker
}

// ConverterMissingError reports a writing system whose legacy mapping has no
// installed converter.
type ConverterMissingError struct {
	Path      string
	Line      int
	MappingID string
	Marker    string
}

func (e *ConverterMissingError) Error() string {
	return fmt.Sprintf("encoding converter %q not installed (marker %s, %s:%d)", e.MappingID, e.Marker, e.Path, e.Line)
}

func (e *ConverterMissingError) Unwrap() error {
	return ErrConverterMissing
}

// ConversionError reports a failure inside a legacy encoding converter.
type ConversionError struct {
	Converter string
	Message   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("encoding converter %s failed: %s", e.Converter, e.Message)
}

func (e *ConversionError) Unwrap() error {
	return ErrConversion
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewFile creates a FileError
func NewFile(path string, err error) *FileError {
	return &FileError{
		Path: path,
		Err:  err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
