package errors

import (
	"fmt"
)

// NotFoundError is returned when a report source path does not exist.
type NotFoundError struct {
	Path string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("path %q does not exist", e.Path)
}

// NewNotFoundError creates a new NotFoundError for the given path.
func NewNotFoundError(path string) error {
	return &NotFoundError{Path: path}
}

// ParseError wraps any structural problem found while reading a report.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s report: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("failed to parse %s report %q: %v", e.Format, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError. A nil cause is replaced with a generic one so the
// error always carries a message.
func NewParseError(format, path string, err error) error {
	if err == nil {
		err = fmt.Errorf("malformed report")
	}
	return &ParseError{
		Path:   path,
		Format: format,
		Err:    err,
	}
}

// UnsupportedFormatError is returned when a report source declares an unknown or rejected format tag.
type UnsupportedFormatError struct {
	Tag string
}

// Error implements the error interface for UnsupportedFormatError.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("report format %q is not supported", e.Tag)
}

// NewUnsupportedFormatError creates a new UnsupportedFormatError naming the offending tag.
func NewUnsupportedFormatError(tag string) error {
	return &UnsupportedFormatError{Tag: tag}
}

// NotADirectoryError is returned by the source tree walker when its operand is not a directory.
type NotADirectoryError struct {
	Path string
}

// Error implements the error interface for NotADirectoryError.
func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("path %q is not a directory", e.Path)
}

// NewNotADirectoryError creates a new NotADirectoryError.
func NewNotADirectoryError(path string) error {
	return &NotADirectoryError{Path: path}
}

// CatalogError signals that a finding-type catalog could not be initialised.
type CatalogError struct {
	Family string
	Err    error
}

// Error implements the error interface for CatalogError.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("failed to load %q finding-type catalog: %v", e.Family, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewCatalogError creates a new CatalogError for a tool family.
func NewCatalogError(family string, err error) error {
	return &CatalogError{
		Family: family,
		Err:    err,
	}
}
