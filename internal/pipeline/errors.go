package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// AdapterError means a document could not be opened or parsed. The run
// continues with the remaining documents.
type AdapterError struct {
	Filename string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// ConfigurationError means the persona or collection input is unusable. It
// is fatal for a relevance run.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsAdapterError reports whether err came from a span extractor.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsTimeout reports whether a document was abandoned at its deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
