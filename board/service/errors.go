// board/service/errors.go
package service

import (
	"errors"
	"fmt"

	"github.com/Ftotnem/LIVEBOARD/board/store"
)

// Errors returned to the transport layer. Wrap with context via %w and test
// with errors.Is.
var (
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrNotFound        = fmt.Errorf("not found")
	ErrValidation      = fmt.Errorf("validation error")
	ErrRateLimited     = fmt.Errorf("rate limited")
	ErrConflict        = fmt.Errorf("conflict")
)

// notFound converts a store miss into ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
