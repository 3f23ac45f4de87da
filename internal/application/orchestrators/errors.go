package orchestrators

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks errors caused by the caller's input. Handlers answer
// them with 400.
var ErrInvalidInput = errors.New("invalid input")

// invalid tags err as a caller error while keeping it matchable.
func invalid(err error) error {
	if err == nil || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
