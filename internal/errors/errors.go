// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrFetchFailed      = errors.New("market data fetch failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ValidationError represents a request or input validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents an error obtaining or decoding market data.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// ComputationError represents a numeric analysis failure on degenerate input.
type ComputationError struct {
	Component string
	Message   string
	Err       error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("computation error [%s]: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("computation error [%s]: %s", e.Component, e.Message)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// NewComputationError creates a new ComputationError.
func NewComputationError(component, message string, err error) *ComputationError {
	return &ComputationError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents a kline payload that could not be normalized.
type ParseError struct {
	Format  string
	Index   int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error [%s] element %d: %s: %v", e.Format, e.Index, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error [%s] element %d: %s", e.Format, e.Index, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(format string, index int, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Index:   index,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
