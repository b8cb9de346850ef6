package render

import (
	"errors"
	"fmt"
)

// ErrRenderFailure matches every error returned by Render and WriteFile.
var ErrRenderFailure = errors.New("render failure")

// Error wraps the step of rendering that failed.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("render %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrRenderFailure
}

func failure(op, path string, err error) error {
	return &Error{Op: op, Path: path, Err: err}
}
