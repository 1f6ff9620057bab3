package dispatcher

import "fmt"

// ValidationError is a request refused before any upstream call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// UnsupportedMediaError is an upload that is neither image nor audio.
type UnsupportedMediaError struct {
	MIMEType string
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported media type: %s", e.MIMEType)
}
