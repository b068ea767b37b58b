package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrPageNotFound       = errors.New("page not found")
	ErrRegionNotFound     = errors.New("text region not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnprocessableImage = errors.New("unable to process image")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
