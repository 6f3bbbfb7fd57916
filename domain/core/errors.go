package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Source errors
	ErrDataSource        = errors.New("data source error")
	ErrSourceNotFound    = fmt.Errorf("%w: file not found", ErrDataSource)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrDataSource)
	ErrMissingColumn     = fmt.Errorf("%w: missing required column", ErrDataSource)
	ErrEmptySource       = fmt.Errorf("%w: no data rows", ErrDataSource)

	// Analysis errors
	ErrNoIndicators           = errors.New("no indicator codes requested")
	ErrUnknownIndicator       = errors.New("unknown indicator code")
	ErrDegenerateCorrelation  = errors.New("correlation undefined for pair")
	ErrInsufficientData       = errors.New("insufficient data for analysis")
	ErrInvalidSampleSizeMode  = errors.New("invalid sample size mode")
	ErrNonDeterministicOutput = errors.New("non-deterministic result")
)

// NewMissingColumnError names the column the source header lacks.
func NewMissingColumnError(column string, source string) error {
	return fmt.Errorf("%w %q in %s", ErrMissingColumn, column, source)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsDataSourceError reports whether err originates from reading or parsing an input table.
func IsDataSourceError(err error) bool {
	return errors.Is(err, ErrDataSource)
}
