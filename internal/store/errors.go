package store

import (
	"fmt"

	"github.com/abhisek/mentor/ent"
)

// wrap maps ent's typed errors onto the package sentinels so callers can
// use errors.Is without importing ent.
func wrap(op string, err error) error {
	switch {
	case ent.IsNotFound(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case ent.IsValidationError(err), ent.IsConstraintError(err):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalid, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
