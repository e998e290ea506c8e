package tts

import "fmt"

// ValidationError rejects a request before any model work happens.
// The API layer maps it to a client-side failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ModelLoadError reports that the inference engine failed to
// initialize. The loader stays retryable after returning one.
type ModelLoadError struct {
	Err error
}

func (e *ModelLoadError) Error() string { return "model load failed: " + e.Err.Error() }
func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError reports a failure during model execution on an
// otherwise healthy engine.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return "inference failed: " + e.Err.Error() }
func (e *InferenceError) Unwrap() error { return e.Err }

// EncodingError reports a codec or container failure after inference
// succeeded.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return "audio encoding failed: " + e.Err.Error() }
func (e *EncodingError) Unwrap() error { return e.Err }
