package generation

import (
	"errors"
	"fmt"

	"resume-tailor/internal/applications"
)

var (
	// ErrNotFound is returned when the application does not exist.
	ErrNotFound = applications.ErrNotFound

	ErrNoInputResumes       = errors.New("no base resumes uploaded")
	ErrNoParseableInput     = errors.New("could not parse any provided resumes")
	ErrUnknownModel         = errors.New("unknown model")
	ErrMalformedModelOutput = errors.New("malformed model output")

	errEmptyText = errors.New("no text extracted")
)

// MalformedOutputError carries the parser's message for a reply that held no usable object.
type MalformedOutputError struct {
	Message string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedModelOutput, e.Message)
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedModelOutput
}

// FailedRunError wraps an error raised after the application was marked
// processing. The application has been moved to failed when it is returned.
type FailedRunError struct {
	Err error
}

func (e *FailedRunError) Error() string { return e.Err.Error() }

func (e *FailedRunError) Unwrap() error { return e.Err }
