package certificate

import (
	"errors"
	"fmt"
)

// Sentinel errors for the certificate service layer. All three are
// call-level: they fail the whole request before any row is processed.
var (
	ErrNotFound        = errors.New("certificate not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrTooManyRows     = errors.New("too many rows in one call")
	ErrDuplicateNumber = errors.New("certificate number already exists")
)

// duplicateNumberError is the row-scoped collision failure. Its message is
// formatted so the standard per-row error prefix produces exactly
// `Row "<name>": certificate <NUMBER> already exists; skipped.`
type duplicateNumberError struct {
	Number string
}

func (e *duplicateNumberError) Error() string {
	return fmt.Sprintf("certificate %s already exists; skipped.", e.Number)
}

func (e *duplicateNumberError) Is(target error) bool {
	return target == ErrDuplicateNumber
}
